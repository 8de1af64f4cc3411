package upload

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
)

var (
	ErrUnknownCategory = errors.New("unknown upload category")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// File is a staged upload. It only lives for the duration of one request.
type File struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

func (f File) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.OriginalName)), ".")
}

// MediaType is the declared content type without parameters.
func (f File) MediaType() string {
	mt, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(f.ContentType))
	}
	return mt
}

type Policy struct {
	Category          Category
	MaxSize           int64
	AllowedExtensions []string
	AllowedMIMETypes  []string
	RejectMessage     string
}

var policies = map[Category]Policy{
	CategoryImage: {
		Category:          CategoryImage,
		MaxSize:           2 << 20,
		AllowedExtensions: []string{"jpg", "jpeg", "png", "gif"},
		RejectMessage:     "Only image files are allowed!",
	},
	CategoryDocument: {
		Category:         CategoryDocument,
		MaxSize:          5 << 20,
		AllowedMIMETypes: []string{"application/pdf"},
		RejectMessage:    "Only PDF files are allowed!",
	},
}

func PolicyFor(c Category) (Policy, error) {
	p, ok := policies[c]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return p, nil
}

// Accept checks f against the policy of category c.
func Accept(f File, c Category) error {
	p, err := PolicyFor(c)
	if err != nil {
		return err
	}
	return p.Check(f)
}

func (p Policy) Check(f File) error {
	if len(p.AllowedExtensions) > 0 && !slices.Contains(p.AllowedExtensions, f.Extension()) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, p.RejectMessage)
	}
	if len(p.AllowedMIMETypes) > 0 && !slices.Contains(p.AllowedMIMETypes, f.MediaType()) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, p.RejectMessage)
	}
	if f.Size > p.MaxSize {
		return fmt.Errorf("%w: file size should be less than %s", ErrFileTooLarge, humanize.IBytes(uint64(p.MaxSize)))
	}
	return nil
}
