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

type UpdateAcademicUseCase struct {
	repo      academic.Repository
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewUpdateAcademicUseCase(repo academic.Repository, pub service.EventPublisher, log logger.Logger) *UpdateAcademicUseCase {
	return &UpdateAcademicUseCase{
		repo:      repo,
		publisher: pub,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type UpdateAcademicInput struct {
	UserID uuid.UUID
	Patch  academic.Patch
}

func (uc *UpdateAcademicUseCase) Execute(ctx context.Context, input UpdateAcademicInput) (*academic.Record, error) {
	ctx, span := tracer.Start(ctx, "UpdateAcademic")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	rec, err := uc.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		err = toRepoError(err, input.UserID, "failed to load academic details")
		span.RecordError(err)
		return nil, err
	}

	now := uc.now()
	rec.Apply(input.Patch, now)
	if err := validateForWrite(rec); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := uc.repo.Update(ctx, rec); err != nil {
		err = toRepoError(err, input.UserID, "failed to update academic details")
		span.RecordError(err)
		return nil, err
	}

	publishAsync(uc.logger, uc.publisher, service.AcademicEvent{
		EventType:  service.EventRecordUpdated,
		UserID:     rec.UserID,
		OccurredAt: now,
	})
	return rec, nil
}
