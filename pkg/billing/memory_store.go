package billing

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory RecordStore for tests and local development.
// Records are stored by value, so callers can never mutate stored state
// except through Update.
type memoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

// NewMemoryStore returns an empty in-memory RecordStore.
func NewMemoryStore() RecordStore {
	return &memoryStore{records: make(map[uuid.UUID]Record)}
}

func (s *memoryStore) Create(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.TenantID]; exists {
		return ErrRecordAlreadyExists
	}
	s.records[rec.TenantID] = rec
	return nil
}

func (s *memoryStore) Get(ctx context.Context, tenantID uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[tenantID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *memoryStore) GetBySlug(ctx context.Context, slug string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Slug == slug {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (s *memoryStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (Record, error) {
	if subscriptionID == "" {
		return Record{}, ErrRecordNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.SubscriptionID == subscriptionID {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (s *memoryStore) Update(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.TenantID]; !exists {
		return ErrRecordNotFound
	}
	rec.UpdatedAt = time.Now().UTC()
	s.records[rec.TenantID] = rec
	return nil
}

func (s *memoryStore) ListActive(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.IsActive {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	return out, nil
}
