package academic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

type UpsertAcademicUseCase struct {
	repo      academic.Repository
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewUpsertAcademicUseCase(repo academic.Repository, pub service.EventPublisher, log logger.Logger) *UpsertAcademicUseCase {
	return &UpsertAcademicUseCase{
		repo:      repo,
		publisher: pub,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type UpsertAcademicInput struct {
	UserID uuid.UUID
	Patch  academic.Patch
}

type UpsertAcademicOutput struct {
	Record  *academic.Record
	Created bool
}

func (uc *UpsertAcademicUseCase) Execute(ctx context.Context, input UpsertAcademicInput) (*UpsertAcademicOutput, error) {
	ctx, span := tracer.Start(ctx, "UpsertAcademic")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	now := uc.now()
	rec, err := uc.repo.FindByUserID(ctx, input.UserID)
	switch {
	case errors.Is(err, academic.ErrRecordNotFound):
		rec = academic.NewRecord(input.UserID, now)
	case err != nil:
		err = apperror.NewInternal("failed to load academic details", err)
		span.RecordError(err)
		return nil, err
	}

	rec.Apply(input.Patch, now)
	if err := validateForWrite(rec); err != nil {
		span.RecordError(err)
		return nil, err
	}

	created, err := uc.repo.Upsert(ctx, rec)
	if err != nil {
		err = toRepoError(err, input.UserID, "failed to save academic details")
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("created", created))

	eventType := service.EventRecordUpdated
	if created {
		eventType = service.EventRecordCreated
	}
	publishAsync(uc.logger, uc.publisher, service.AcademicEvent{
		EventType:  eventType,
		UserID:     rec.UserID,
		OccurredAt: now,
	})

	return &UpsertAcademicOutput{Record: rec, Created: created}, nil
}
