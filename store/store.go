package store

import (
	"errors"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"offercube/config"
)

// ErrNotFound is returned by Get and Delete for a missing key.
var ErrNotFound = errors.New("key not found")

// Store keeps values by key. List returns values in key order.
type Store[T any] interface {
	Put(key string, value T) error
	Get(key string) (T, error)
	Delete(key string) error
	List() ([]T, error)
	Count() (int, error)
}

// Open returns a bbolt database for the persistent store type, or nil for
// the memory store.
func Open(conf config.Store) (*bbolt.DB, error) {
	if conf.Type != "persistent" {
		return nil, nil
	}
	db, err := bbolt.Open(conf.Path, os.FileMode(0600), nil)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", conf.Path, err)
	}
	return db, nil
}

// New returns a persistent store on bucket when db is set, and an
// in-memory store otherwise.
func New[T any](db *bbolt.DB, bucket string) (Store[T], error) {
	if db == nil {
		return NewInMemoryStore[T](), nil
	}
	return NewPersistentStore[T](db, bucket)
}
