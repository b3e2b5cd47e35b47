package memapi

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-crudview/pkg/animal"
)

// ErrNotFound is returned for ids the store does not hold.
var ErrNotFound = errors.New("memapi: animal not found")

// Store persists animals. List returns them in insertion order and Create
// assigns increasing ids starting at 1.
type Store interface {
	List(ctx context.Context) ([]animal.Animal, error)
	Create(ctx context.Context, a animal.Animal) (animal.Animal, error)
	Update(ctx context.Context, a animal.Animal) error
	Delete(ctx context.Context, id int64) error
	Close() error
}

// MemoryStore keeps animals in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []int64
	animals map[int64]animal.Animal
	seq     int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with the given animals, which get
// fresh ids.
func NewMemoryStore(seed ...animal.Animal) *MemoryStore {
	s := &MemoryStore{animals: make(map[int64]animal.Animal)}
	for _, a := range seed {
		_, _ = s.Create(context.Background(), a)
	}
	return s
}

func (s *MemoryStore) List(context.Context) ([]animal.Animal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]animal.Animal, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.animals[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, a animal.Animal) (animal.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	a = a.Clone()
	a.ID = s.seq
	s.animals[a.ID] = a
	s.order = append(s.order, a.ID)
	return a.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, a animal.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.animals[a.ID]; !ok {
		return ErrNotFound
	}
	s.animals[a.ID] = a.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.animals[id]; !ok {
		return ErrNotFound
	}
	delete(s.animals, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
