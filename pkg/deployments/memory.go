package deployments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/multiasset/pkg/identity"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[identity.Fingerprint]*Record
	now     func() time.Time
}

// NewMemoryStore returns a Store that lives for the process. It is used when the
// database journal is disabled.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[identity.Fingerprint]*Record),
		now:     time.Now,
	}
}

func (s *memoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.records[rec.Contract]; ok {
		existing.Phase = rec.Phase
		existing.UpdatedAt = now
		*rec = *existing
		return nil
	}

	stored := *rec
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[rec.Contract] = &stored
	*rec = stored
	return nil
}

func (s *memoryStore) Get(_ context.Context, contract identity.Fingerprint) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[contract]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *memoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
