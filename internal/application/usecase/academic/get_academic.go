package academic

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/logger"
)

type GetAcademicUseCase struct {
	repo   academic.Repository
	logger logger.Logger
}

func NewGetAcademicUseCase(repo academic.Repository, log logger.Logger) *GetAcademicUseCase {
	return &GetAcademicUseCase{repo: repo, logger: log}
}

func (uc *GetAcademicUseCase) Execute(ctx context.Context, userID uuid.UUID) (*academic.Record, error) {
	ctx, span := tracer.Start(ctx, "GetAcademic")
	defer span.End()

	rec, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		err = toRepoError(err, userID, "failed to fetch academic details")
		span.RecordError(err)
		return nil, err
	}
	return rec, nil
}
