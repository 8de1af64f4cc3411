package asset

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/pkg/logger"
)

type deleteCall struct{ publicID, resourceType string }

type fakeBlob struct {
	calls []deleteCall
	err   error
}

func (b *fakeBlob) Upload(ctx context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadedAsset, error) {
	return nil, errors.New("not used")
}

func (b *fakeBlob) Delete(ctx context.Context, publicID, resourceType string) error {
	b.calls = append(b.calls, deleteCall{publicID, resourceType})
	return b.err
}

func staticLocate(url string) (string, string, error) {
	if url == "bad" {
		return "", "", errors.New("not a blob url")
	}
	return "academic_documents/" + url, "raw", nil
}

func replaced(prev string) service.AcademicEvent {
	return service.AcademicEvent{
		EventType:   service.EventDocumentReplaced,
		UserID:      uuid.New(),
		PreviousURL: prev,
	}
}

func TestCleanupAsset_DeletesPreviousAsset(t *testing.T) {
	blob := &fakeBlob{}
	uc := NewCleanupAssetUseCase(blob, staticLocate, logger.NewNop())

	require.NoError(t, uc.Execute(context.Background(), replaced("old.pdf")))
	assert.Equal(t, []deleteCall{{"academic_documents/old.pdf", "raw"}}, blob.calls)
}

func TestCleanupAsset_IgnoresOtherEvents(t *testing.T) {
	blob := &fakeBlob{}
	uc := NewCleanupAssetUseCase(blob, staticLocate, logger.NewNop())

	require.NoError(t, uc.Execute(context.Background(), service.AcademicEvent{EventType: service.EventDocumentUploaded, URL: "x"}))
	require.NoError(t, uc.Execute(context.Background(), replaced("")))
	assert.Empty(t, blob.calls)
}

func TestCleanupAsset_SkipsUnparseableURL(t *testing.T) {
	blob := &fakeBlob{}
	uc := NewCleanupAssetUseCase(blob, staticLocate, logger.NewNop())

	require.NoError(t, uc.Execute(context.Background(), replaced("bad")))
	assert.Empty(t, blob.calls)
}

func TestCleanupAsset_PropagatesDeleteFailure(t *testing.T) {
	blob := &fakeBlob{err: errors.New("rate limited")}
	uc := NewCleanupAssetUseCase(blob, staticLocate, logger.NewNop())

	assert.ErrorContains(t, uc.Execute(context.Background(), replaced("old.pdf")), "rate limited")
}
