package academic

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/domain/academic"
)

// memRepo stores deep copies so callers cannot mutate what was saved.
type memRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*academic.Record
	writes  int
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[uuid.UUID]*academic.Record{}}
}

func clone(r *academic.Record) *academic.Record {
	b, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	var out academic.Record
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

func (m *memRepo) seed(r *academic.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.UserID] = clone(r)
}

func (m *memRepo) stored(id uuid.UUID) *academic.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil
	}
	return clone(r)
}

func (m *memRepo) FindByUserID(ctx context.Context, id uuid.UUID) (*academic.Record, error) {
	if r := m.stored(id); r != nil {
		return r, nil
	}
	return nil, academic.ErrRecordNotFound
}

func (m *memRepo) Upsert(ctx context.Context, r *academic.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	_, exists := m.records[r.UserID]
	m.records[r.UserID] = clone(r)
	return !exists, nil
}

func (m *memRepo) Update(ctx context.Context, r *academic.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.UserID]; !ok {
		return academic.ErrRecordNotFound
	}
	m.writes++
	m.records[r.UserID] = clone(r)
	return nil
}

func (m *memRepo) Create(ctx context.Context, r *academic.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.UserID]; ok {
		return academic.ErrRecordExists
	}
	m.writes++
	m.records[r.UserID] = clone(r)
	return nil
}

func (m *memRepo) AttachDocument(ctx context.Context, id uuid.UUID, sel academic.DocumentSelector, url string) (*academic.Record, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, "", academic.ErrRecordNotFound
	}
	prev, err := r.AttachDocument(sel, url)
	if err != nil {
		return nil, "", err
	}
	return clone(r), prev, nil
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
