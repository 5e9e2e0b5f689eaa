package store

import (
	"fmt"
	"sort"
	"sync"
)

type InMemoryStore[T any] struct {
	mu sync.RWMutex
	Db map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		Db: make(map[string]T),
	}
}

func (i *InMemoryStore[T]) Count() (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryStore[T]) Get(key string) (v T, err error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	v, ok := i.Db[key]
	if !ok {
		return v, fmt.Errorf("%s: %w", key, ErrNotFound)
	}

	return v, nil
}

func (i *InMemoryStore[T]) List() ([]T, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	keys := make([]string, 0, len(i.Db))
	for k := range i.Db {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vs := make([]T, 0, len(keys))
	for _, k := range keys {
		vs = append(vs, i.Db[k])
	}

	return vs, nil
}

func (i *InMemoryStore[T]) Put(key string, value T) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Db[key] = value
	return nil
}

func (i *InMemoryStore[T]) Delete(key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.Db[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(i.Db, key)
	return nil
}
