package store

import (
	"context"
	"time"
)

// NullStore never stores anything.
type NullStore struct{}

// NewNullStore returns a store where every Get misses.
func NewNullStore() Store {
	return &NullStore{}
}

// Get always misses.
func (s *NullStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (s *NullStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (s *NullStore) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

var _ Store = (*NullStore)(nil)
