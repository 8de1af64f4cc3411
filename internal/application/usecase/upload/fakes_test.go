package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/academic"
)

type memTemp struct {
	mu    sync.Mutex
	files map[string][]byte
	seq   int
}

func newMemTemp() *memTemp {
	return &memTemp{files: map[string][]byte{}}
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

func (m *memTemp) Stage(src io.Reader, originalName string, limit int64) (string, int64, error) {
	body, err := io.ReadAll(io.LimitReader(src, limit))
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	path := fmt.Sprintf("/uploads/1700000000000-%d%s", m.seq, strings.ToLower(filepath.Ext(originalName)))
	m.files[path] = body
	return path, int64(len(body)), nil
}

func (m *memTemp) Open(path string) (io.ReadSeekCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return nopSeekCloser{bytes.NewReader(body)}, nil
}

func (m *memTemp) DetectContentType(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return http.DetectContentType(m.files[path])
}

func (m *memTemp) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

func (m *memTemp) Sweep() int { return 0 }

func (m *memTemp) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type fakeBlob struct {
	mu        sync.Mutex
	uploadErr error
	uploads   []service.UploadOptions
	deleted   chan string
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{deleted: make(chan string, 4)}
}

func (b *fakeBlob) Upload(ctx context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadedAsset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, opts)
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	id := opts.Folder + "/" + opts.PublicID
	return &service.UploadedAsset{
		URL:          "https://res.cloudinary.com/demo/" + opts.ResourceType + "/upload/v1/" + id,
		PublicID:     id,
		ResourceType: opts.ResourceType,
	}, nil
}

func (b *fakeBlob) Delete(ctx context.Context, publicID, resourceType string) error {
	b.deleted <- publicID
	return nil
}

func (b *fakeBlob) uploadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploads)
}

type memRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*academic.Record
	attachErr error
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[uuid.UUID]*academic.Record{}}
}

func (m *memRepo) FindByUserID(ctx context.Context, id uuid.UUID) (*academic.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, academic.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) Upsert(ctx context.Context, r *academic.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[r.UserID]
	m.records[r.UserID] = r
	return !ok, nil
}

func (m *memRepo) Update(ctx context.Context, r *academic.Record) error {
	_, err := m.Upsert(ctx, r)
	return err
}

func (m *memRepo) Create(ctx context.Context, r *academic.Record) error {
	_, err := m.Upsert(ctx, r)
	return err
}

func (m *memRepo) AttachDocument(ctx context.Context, id uuid.UUID, sel academic.DocumentSelector, url string) (*academic.Record, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attachErr != nil {
		return nil, "", m.attachErr
	}
	r, ok := m.records[id]
	if !ok {
		return nil, "", academic.ErrRecordNotFound
	}
	prev, err := r.AttachDocument(sel, url)
	return r, prev, err
}

type chanPublisher struct {
	events chan service.AcademicEvent
}

func newChanPublisher() *chanPublisher {
	return &chanPublisher{events: make(chan service.AcademicEvent, 8)}
}

func (p *chanPublisher) PublishAcademicEvent(ctx context.Context, e service.AcademicEvent) error {
	p.events <- e
	return nil
}
