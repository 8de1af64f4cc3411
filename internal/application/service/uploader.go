package service

import (
	"context"
	"io"
)

type UploadOptions struct {
	Folder       string
	PublicID     string
	ResourceType string
}

type UploadedAsset struct {
	URL          string
	PublicID     string
	ResourceType string
}

// BlobStore is the remote object store staged files are pushed to. file may
// be read more than once when it also implements io.Seeker.
type BlobStore interface {
	Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadedAsset, error)
	Delete(ctx context.Context, publicID, resourceType string) error
}
