package asset

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/pkg/logger"
)

var tracer = otel.Tracer("asset_usecase")

// LocateFunc maps a delivery URL back to the blob store's public id.
type LocateFunc func(url string) (publicID, resourceType string, err error)

// CleanupAssetUseCase destroys the remote asset a replaced document pointed at.
type CleanupAssetUseCase struct {
	blob   service.BlobStore
	locate LocateFunc
	logger logger.Logger
}

func NewCleanupAssetUseCase(blob service.BlobStore, locate LocateFunc, log logger.Logger) *CleanupAssetUseCase {
	return &CleanupAssetUseCase{blob: blob, locate: locate, logger: log}
}

// Execute ignores events other than document.replaced. URLs the locator
// cannot parse are logged and skipped; they will never become parseable.
func (uc *CleanupAssetUseCase) Execute(ctx context.Context, e service.AcademicEvent) error {
	if e.EventType != service.EventDocumentReplaced || e.PreviousURL == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "CleanupAsset")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", e.UserID.String()))

	publicID, resourceType, err := uc.locate(e.PreviousURL)
	if err != nil {
		uc.logger.Warn("Skipping cleanup of unrecognised asset url",
			zap.String("url", e.PreviousURL),
			zap.Error(err),
		)
		return nil
	}

	if err := uc.blob.Delete(ctx, publicID, resourceType); err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to delete replaced asset", err, zap.String("public_id", publicID))
		return err
	}

	uc.logger.Info("Deleted replaced asset",
		zap.String("public_id", publicID),
		zap.String("user_id", e.UserID.String()),
	)
	return nil
}
