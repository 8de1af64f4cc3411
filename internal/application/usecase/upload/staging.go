package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/upload"
	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

var tracer = otel.Tracer("upload_usecase")

// Destination is where accepted files land in the blob store.
type Destination struct {
	Folder       string
	ResourceType string
}

type FileInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// stager wraps the temp store with the gatekeeper. Every path it returns
// must be released with release on all exit paths.
type stager struct {
	temp   service.TempStore
	blob   service.BlobStore
	dest   Destination
	logger logger.Logger
}

// stage copies at most MaxSize+1 bytes so an oversized body is detected
// without reading it to the end.
func (s *stager) stage(in FileInput, c upload.Category) (upload.File, error) {
	policy, err := upload.PolicyFor(c)
	if err != nil {
		return upload.File{}, apperror.NewInternal("unknown upload category", err)
	}

	path, size, err := s.temp.Stage(in.Reader, in.Filename, policy.MaxSize+1)
	if err != nil {
		return upload.File{}, apperror.NewInternal("failed to stage upload", err)
	}

	f := upload.File{
		Path:         path,
		OriginalName: in.Filename,
		ContentType:  in.ContentType,
		Size:         size,
	}
	if strings.TrimSpace(f.ContentType) == "" {
		f.ContentType = s.temp.DetectContentType(path)
	}
	return f, nil
}

// accept applies the category policy and deletes a rejected file right away.
func (s *stager) accept(f upload.File, c upload.Category) error {
	policy, err := upload.PolicyFor(c)
	if err != nil {
		return apperror.NewInternal("unknown upload category", err)
	}
	if err := policy.Check(f); err != nil {
		s.release(f)
		s.logger.Info("Upload rejected",
			zap.String("category", string(c)),
			zap.String("file_name", f.OriginalName),
			zap.String("content_type", f.ContentType),
			zap.Int64("size", f.Size),
		)
		return rejection(policy, err)
	}
	return nil
}

func rejection(p upload.Policy, err error) error {
	msg := p.RejectMessage
	if errors.Is(err, upload.ErrFileTooLarge) {
		msg = fmt.Sprintf("File size should be less than %s", humanize.IBytes(uint64(p.MaxSize)))
	}
	return apperror.NewAppError(apperror.ErrInvalidInput, msg, err.Error(), err)
}

func (s *stager) release(f upload.File) {
	s.temp.Remove(f.Path)
}

// push uploads the staged bytes. The public id reuses the unique staged name;
// raw assets keep their extension so the delivery URL ends in it.
func (s *stager) push(ctx context.Context, f upload.File) (*service.UploadedAsset, error) {
	rc, err := s.temp.Open(f.Path)
	if err != nil {
		return nil, apperror.NewInternal("failed to open staged file", err)
	}
	defer rc.Close()

	publicID := filepath.Base(f.Path)
	if s.dest.ResourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, filepath.Ext(publicID))
	}

	asset, err := s.blob.Upload(ctx, rc, service.UploadOptions{
		Folder:       s.dest.Folder,
		PublicID:     publicID,
		ResourceType: s.dest.ResourceType,
	})
	if err != nil {
		s.logger.Error("Failed to upload to blob store", err, zap.String("file_name", f.OriginalName))
		return nil, apperror.NewInternal("failed to upload file", err)
	}
	return asset, nil
}

// discard removes an uploaded asset that could not be linked.
func (s *stager) discard(asset *service.UploadedAsset) {
	go func() {
		if err := s.blob.Delete(context.Background(), asset.PublicID, asset.ResourceType); err != nil {
			s.logger.Error("Failed to delete orphaned asset", err, zap.String("public_id", asset.PublicID))
		}
	}()
}
