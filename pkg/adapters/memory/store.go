package memory

import (
	"context"
	"sync"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Store implements ports.MetadataStore in memory.
type Store struct {
	mu   sync.Mutex
	data map[domain.Entity]map[string]string
}

// NewStore creates an empty metadata store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.Entity]map[string]string),
	}
}

var _ ports.MetadataStore = (*Store)(nil)

// SetAttribute writes an attribute value for an entity.
func (s *Store) SetAttribute(ctx context.Context, e domain.Entity, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[e] == nil {
		s.data[e] = make(map[string]string)
	}
	s.data[e][key] = value
	return nil
}

// Attribute reads an attribute value.
func (s *Store) Attribute(ctx context.Context, e domain.Entity, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[e][key]
	if !ok {
		return "", domain.ErrAttributeNotFound
	}
	return val, nil
}

// ClearAttribute removes an attribute; absent attributes are ignored.
func (s *Store) ClearAttribute(ctx context.Context, e domain.Entity, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, ok := s.data[e]
	if !ok {
		return nil
	}
	delete(attrs, key)
	if len(attrs) == 0 {
		delete(s.data, e)
	}
	return nil
}
