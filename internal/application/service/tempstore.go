package service

import (
	"io"
)

// TempStore stages request payloads on local disk until they are pushed to
// the BlobStore.
type TempStore interface {
	// Stage copies at most limit bytes of src and returns the staged path and
	// the number of bytes written. A result of limit bytes means the source
	// was at least that large.
	Stage(src io.Reader, originalName string, limit int64) (path string, size int64, err error)
	Open(path string) (io.ReadSeekCloser, error)
	DetectContentType(path string) string
	// Remove never fails the caller; problems are logged.
	Remove(path string)
	Sweep() int
}
