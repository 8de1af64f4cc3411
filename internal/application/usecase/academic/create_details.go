package academic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// CreateAcademicDetailsUseCase inserts a fresh record. Unlike the upsert path
// it applies schema rules only; examination results are not checked.
type CreateAcademicDetailsUseCase struct {
	repo      academic.Repository
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewCreateAcademicDetailsUseCase(repo academic.Repository, pub service.EventPublisher, log logger.Logger) *CreateAcademicDetailsUseCase {
	return &CreateAcademicDetailsUseCase{
		repo:      repo,
		publisher: pub,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateAcademicDetailsInput struct {
	UserID         uuid.UUID
	Qualifications []academic.Qualification
	Experience     []academic.Experience
	Publications   []academic.Publication
}

func (uc *CreateAcademicDetailsUseCase) Execute(ctx context.Context, input CreateAcademicDetailsInput) (*academic.Record, error) {
	ctx, span := tracer.Start(ctx, "CreateAcademicDetails")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	now := uc.now()
	rec := academic.NewRecord(input.UserID, now)
	rec.Apply(academic.Patch{
		Qualifications: &input.Qualifications,
		Experience:     &input.Experience,
		Publications:   &input.Publications,
	}, now)

	if err := rec.Validate(); err != nil {
		err = toValidationError(err)
		span.RecordError(err)
		return nil, err
	}

	if err := uc.repo.Create(ctx, rec); err != nil {
		err = toRepoError(err, input.UserID, "failed to create academic details")
		span.RecordError(err)
		return nil, err
	}

	publishAsync(uc.logger, uc.publisher, service.AcademicEvent{
		EventType:  service.EventRecordCreated,
		UserID:     rec.UserID,
		OccurredAt: now,
	})
	return rec, nil
}
