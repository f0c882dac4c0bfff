package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/scalableminds/wknml/pkg/nml"
)

// MemoryStore keeps annotations in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	meta Annotation
	data []byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Put(ctx context.Context, name string, n nml.NML) (Annotation, error) {
	a, data, err := newRecord(name, n)
	if err != nil {
		return Annotation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[a.ID] = memoryRecord{meta: a, data: data}
	return a, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (nml.NML, Annotation, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nml.NML{}, Annotation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n, err := decode(rec.data)
	if err != nil {
		return nml.NML{}, Annotation{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return n, rec.meta, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Annotation, error) {
	s.mu.RLock()
	out := make([]Annotation, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.meta)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Annotation) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
