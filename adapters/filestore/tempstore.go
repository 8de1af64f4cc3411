package filestore

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// stagedName matches only files this store wrote, so sweeping a shared
// directory such as /tmp leaves everything else alone.
var stagedName = regexp.MustCompile(`^\d+-\d+(\.[a-z0-9]{1,10})?$`)

type TempStore struct {
	fs        afero.Fs
	dir       string
	retention time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewTempStore(fs afero.Fs, dir string, retention time.Duration, log logger.Logger) (*TempStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create uploads dir %q: %w", dir, err)
	}
	return &TempStore{
		fs:        fs,
		dir:       dir,
		retention: retention,
		logger:    log.With(zap.String("uploads_dir", dir)),
		now:       time.Now,
	}, nil
}

var _ service.TempStore = (*TempStore)(nil)

func (s *TempStore) Dir() string {
	return s.dir
}

func (s *TempStore) Stage(src io.Reader, originalName string, limit int64) (string, int64, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("cannot create uploads dir: %w", err)
	}

	path := filepath.Join(s.dir, s.newName(originalName))
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("cannot create staged file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(src, limit))
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		s.Remove(path)
		return "", 0, fmt.Errorf("cannot write staged file: %w", err)
	}

	s.logger.Debug("Staged upload", zap.String("path", path), zap.Int64("size", n))
	return path, n, nil
}

func (s *TempStore) newName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if !stagedName.MatchString("0-0" + ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), rand.Int64N(1_000_000_000), ext)
}

func (s *TempStore) Open(path string) (io.ReadSeekCloser, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open staged file: %w", err)
	}
	return f, nil
}

// DetectContentType sniffs the staged bytes. Used when the client did not
// declare a type.
func (s *TempStore) DetectContentType(path string) string {
	f, err := s.fs.Open(path)
	if err != nil {
		s.logger.Warn("Could not open staged file for sniffing", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return mt.String()
}

func (s *TempStore) Remove(path string) {
	if path == "" {
		return
	}
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		s.logger.Warn("Could not stat temporary file", zap.String("path", path), zap.Error(err))
		return
	}
	if !exists {
		return
	}
	if err := s.fs.Remove(path); err != nil {
		s.logger.Warn("Could not delete temporary file", zap.String("path", path), zap.Error(err))
	}
}

// Sweep deletes staged files older than the retention window and returns how
// many were removed.
func (s *TempStore) Sweep() int {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		s.logger.Warn("Could not read uploads directory", zap.Error(err))
		return 0
	}

	cutoff := s.now().Add(-s.retention)
	removed := 0
	for _, fi := range entries {
		if fi.IsDir() || !stagedName.MatchString(fi.Name()) {
			continue
		}
		if !fi.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, fi.Name())
		if err := s.fs.Remove(path); err != nil {
			s.logger.Warn("Could not process file", zap.String("file", fi.Name()), zap.Error(err))
			continue
		}
		removed++
		s.logger.Info("Cleaned up old file", zap.String("file", fi.Name()))
	}
	return removed
}
