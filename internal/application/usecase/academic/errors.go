package academic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const resourceName = "Academic details"

var tracer = otel.Tracer("academic_usecase")

// validateForWrite runs the schema rules and then the examination-result
// checks. Nothing is written unless both pass.
func validateForWrite(r *academic.Record) error {
	if err := r.Validate(); err != nil {
		return toValidationError(err)
	}
	if err := r.ValidateQualifications(); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	var qe *academic.QualificationError
	if errors.As(err, &qe) {
		msg := qe.Err.Error()
		paths := qe.FieldPaths()
		fields := make([]apperror.FieldError, len(paths))
		for i, p := range paths {
			fields[i] = apperror.FieldError{Field: p, Message: msg}
		}
		return apperror.NewValidation(msg, fields, err)
	}

	var violations academic.FieldViolations
	if errors.As(err, &violations) {
		fields := make([]apperror.FieldError, len(violations))
		for i, v := range violations {
			fields[i] = apperror.FieldError{Field: v.Field, Message: v.Message()}
		}
		return apperror.NewValidation("Validation Error", fields, err)
	}
	return apperror.NewInvalidInput("validation failed", err)
}

func toRepoError(err error, userID uuid.UUID, details string) error {
	switch {
	case errors.Is(err, academic.ErrRecordNotFound):
		return apperror.NewNotFound(resourceName, userID.String())
	case errors.Is(err, academic.ErrRecordExists):
		return apperror.NewConflict(resourceName, "user_id", userID.String())
	default:
		return apperror.NewInternal(details, err)
	}
}

func publishAsync(log logger.Logger, pub service.EventPublisher, e service.AcademicEvent) {
	go func() {
		if err := pub.PublishAcademicEvent(context.Background(), e); err != nil {
			log.Error("Failed to publish academic event", err,
				zap.String("event_type", string(e.EventType)),
				zap.String("user_id", e.UserID.String()),
			)
		}
	}()
}
