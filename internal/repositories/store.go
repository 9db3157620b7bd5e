package repositories

import "sync"

// EntityStore maps generated identifiers to records of one entity type.
type EntityStore[T any] interface {
	// Put inserts or overwrites the record stored under id.
	Put(id string, record T) error
	// Get returns the record and true, or the zero value and false when id is unknown.
	Get(id string) (T, bool, error)
	// ListAll returns every record in insertion order.
	ListAll() ([]T, error)
	// Remove deletes the record under id. Unknown ids are ignored.
	Remove(id string) error
}

// MemoryStore is an in-memory EntityStore. Nothing survives a restart.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]T
	order   []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		records: make(map[string]T),
	}
}

// Put stores record under id. Overwriting keeps the original position.
func (s *MemoryStore[T]) Put(id string, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = record
	return nil
}

// Get returns the record stored under id.
func (s *MemoryStore[T]) Get(id string) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	return record, ok, nil
}

// ListAll returns a snapshot of all records in insertion order.
func (s *MemoryStore[T]) ListAll() ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]T, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.records[id])
	}
	return list, nil
}

// Remove deletes the record stored under id, if any.
func (s *MemoryStore[T]) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports how many records are stored.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
