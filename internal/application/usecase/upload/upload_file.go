package upload

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/upload"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// UploadFileUseCase pushes a standalone image and returns its URL. Nothing is
// linked to a record.
type UploadFileUseCase struct {
	stager
}

func NewUploadFileUseCase(temp service.TempStore, blob service.BlobStore, dest Destination, log logger.Logger) *UploadFileUseCase {
	return &UploadFileUseCase{stager{temp: temp, blob: blob, dest: dest, logger: log}}
}

type UploadFileOutput struct {
	URL string
}

func (uc *UploadFileUseCase) Execute(ctx context.Context, input FileInput) (*UploadFileOutput, error) {
	ctx, span := tracer.Start(ctx, "UploadFile")
	defer span.End()

	f, err := uc.stage(input, upload.CategoryImage)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer uc.release(f)
	span.SetAttributes(attribute.Int64("size", f.Size))

	if err := uc.accept(f, upload.CategoryImage); err != nil {
		span.RecordError(err)
		return nil, err
	}

	asset, err := uc.push(ctx, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &UploadFileOutput{URL: asset.URL}, nil
}
