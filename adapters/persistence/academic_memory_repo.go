package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/academic-records/internal/domain/academic"
)

// memoryAcademicRepo backs db.driver=memory for local runs without a
// database. Records are stored as encoded documents so callers never share
// memory with the store.
type memoryAcademicRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID][]byte
	now     func() time.Time
}

func NewMemoryAcademicRepo() academic.Repository {
	return &memoryAcademicRepo{
		records: map[uuid.UUID][]byte{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryAcademicRepo) encode(r *academic.Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode academic record: %w", err)
	}
	return b, nil
}

func (m *memoryAcademicRepo) decode(b []byte) (*academic.Record, error) {
	var r academic.Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("failed to decode academic record: %w", err)
	}
	return &r, nil
}

func (m *memoryAcademicRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*academic.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.records[userID]
	if !ok {
		return nil, academic.ErrRecordNotFound
	}
	return m.decode(b)
}

func (m *memoryAcademicRepo) Upsert(ctx context.Context, r *academic.Record) (bool, error) {
	b, err := m.encode(r)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.records[r.UserID]
	m.records[r.UserID] = b
	return !exists, nil
}

func (m *memoryAcademicRepo) Update(ctx context.Context, r *academic.Record) error {
	b, err := m.encode(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.UserID]; !ok {
		return academic.ErrRecordNotFound
	}
	m.records[r.UserID] = b
	return nil
}

func (m *memoryAcademicRepo) Create(ctx context.Context, r *academic.Record) error {
	b, err := m.encode(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.UserID]; ok {
		return academic.ErrRecordExists
	}
	m.records[r.UserID] = b
	return nil
}

func (m *memoryAcademicRepo) AttachDocument(ctx context.Context, userID uuid.UUID, sel academic.DocumentSelector, url string) (*academic.Record, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.records[userID]
	if !ok {
		return nil, "", academic.ErrRecordNotFound
	}
	r, err := m.decode(b)
	if err != nil {
		return nil, "", err
	}
	prev, err := r.AttachDocument(sel, url)
	if err != nil {
		return nil, "", err
	}
	r.UpdatedAt = m.now()
	if m.records[userID], err = m.encode(r); err != nil {
		return nil, "", err
	}
	return r, prev, nil
}
