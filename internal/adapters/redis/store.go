// Package redis implements ports.MetadataStore over a Redis hash per
// entity, for hosts that want GUID attributes to survive the process.
package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/tether/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Keyer lets an entity choose its own stable storage key. Entities that
// do not implement it are keyed by their string form.
type Keyer interface {
	Key() string
}

// Store implements ports.MetadataStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix for entity hashes.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "tether:meta:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(e domain.Entity) string {
	if k, ok := e.(Keyer); ok {
		return s.prefix + k.Key()
	}
	return s.prefix + fmt.Sprint(e)
}

// SetAttribute writes one field of the entity's hash.
func (s *Store) SetAttribute(ctx context.Context, e domain.Entity, key, value string) error {
	if err := s.client.HSet(ctx, s.key(e), key, value).Err(); err != nil {
		return fmt.Errorf("failed to write attribute: %w", err)
	}
	return nil
}

// Attribute reads one field of the entity's hash.
func (s *Store) Attribute(ctx context.Context, e domain.Entity, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.key(e), key).Result()
	if err != nil {
		if err == backend.Nil {
			return "", domain.ErrAttributeNotFound
		}
		return "", fmt.Errorf("failed to read attribute: %w", err)
	}
	return val, nil
}

// ClearAttribute deletes one field of the entity's hash. Deleting an
// absent field is not an error.
func (s *Store) ClearAttribute(ctx context.Context, e domain.Entity, key string) error {
	if err := s.client.HDel(ctx, s.key(e), key).Err(); err != nil {
		return fmt.Errorf("failed to clear attribute: %w", err)
	}
	return nil
}
