package upload

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/internal/domain/upload"
	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

type UploadDocumentUseCase struct {
	stager
	repo      academic.Repository
	publisher service.EventPublisher
	now       func() time.Time
}

func NewUploadDocumentUseCase(repo academic.Repository, temp service.TempStore, blob service.BlobStore, pub service.EventPublisher, dest Destination, log logger.Logger) *UploadDocumentUseCase {
	return &UploadDocumentUseCase{
		stager:    stager{temp: temp, blob: blob, dest: dest, logger: log},
		repo:      repo,
		publisher: pub,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type UploadDocumentInput struct {
	UserID       uuid.UUID
	File         FileInput
	DocumentType string
	Index        string
}

type UploadDocumentOutput struct {
	URL         string
	PreviousURL string
	Record      *academic.Record
}

func (uc *UploadDocumentUseCase) Execute(ctx context.Context, input UploadDocumentInput) (*UploadDocumentOutput, error) {
	ctx, span := tracer.Start(ctx, "UploadDocument")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", input.UserID.String()))

	f, err := uc.stage(input.File, upload.CategoryDocument)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer uc.release(f)

	if err := uc.accept(f, upload.CategoryDocument); err != nil {
		span.RecordError(err)
		return nil, err
	}

	sel, err := academic.ParseDocumentSelector(input.DocumentType, input.Index)
	if err != nil {
		err = selectorError(err)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("document_slot", sel.String()))

	// Reject before paying for the remote upload.
	rec, err := uc.repo.FindByUserID(ctx, input.UserID)
	if err != nil {
		err = linkError(err, input.UserID)
		span.RecordError(err)
		return nil, err
	}
	if err := rec.CheckSlot(sel); err != nil {
		err = selectorError(err)
		span.RecordError(err)
		return nil, err
	}

	asset, err := uc.push(ctx, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	updated, prev, err := uc.repo.AttachDocument(ctx, input.UserID, sel, asset.URL)
	if err != nil {
		uc.discard(asset)
		err = linkError(err, input.UserID)
		span.RecordError(err)
		return nil, err
	}

	uc.logger.Info("Document linked",
		zap.String("user_id", input.UserID.String()),
		zap.String("slot", sel.Path()),
		zap.String("public_id", asset.PublicID),
	)
	uc.publish(input.UserID, sel, asset.URL, prev)

	return &UploadDocumentOutput{URL: asset.URL, PreviousURL: prev, Record: updated}, nil
}

func (uc *UploadDocumentUseCase) publish(userID uuid.UUID, sel academic.DocumentSelector, url, prev string) {
	now := uc.now()
	events := []service.AcademicEvent{{
		EventType:  service.EventDocumentUploaded,
		UserID:     userID,
		Section:    string(sel.Section),
		Index:      sel.Index,
		URL:        url,
		OccurredAt: now,
	}}
	if prev != "" && prev != url {
		events = append(events, service.AcademicEvent{
			EventType:   service.EventDocumentReplaced,
			UserID:      userID,
			Section:     string(sel.Section),
			Index:       sel.Index,
			URL:         url,
			PreviousURL: prev,
			OccurredAt:  now,
		})
	}

	go func() {
		for _, e := range events {
			if err := uc.publisher.PublishAcademicEvent(context.Background(), e); err != nil {
				uc.logger.Error("Failed to publish document event", err,
					zap.String("event_type", string(e.EventType)),
					zap.String("user_id", userID.String()),
				)
			}
		}
	}()
}

func selectorError(err error) error {
	switch {
	case errors.Is(err, academic.ErrInvalidDocumentType):
		return apperror.NewAppError(apperror.ErrInvalidInput, "Invalid document type", err.Error(), err)
	case errors.Is(err, academic.ErrInvalidDocumentIndex):
		return apperror.NewAppError(apperror.ErrInvalidInput, "Invalid document index", err.Error(), err)
	default:
		return apperror.NewInvalidInput(err.Error(), err)
	}
}

func linkError(err error, userID uuid.UUID) error {
	switch {
	case errors.Is(err, academic.ErrRecordNotFound):
		return apperror.NewNotFound("Academic details", userID.String())
	case errors.Is(err, academic.ErrInvalidDocumentIndex), errors.Is(err, academic.ErrInvalidDocumentType):
		return selectorError(err)
	default:
		return apperror.NewInternal("failed to link document", err)
	}
}
