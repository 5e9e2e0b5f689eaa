package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"offercube/config"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openBolt(t *testing.T) *bbolt.DB {
	db, err := Open(config.Store{Type: "persistent", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func stores(t *testing.T) map[string]Store[item] {
	persistent, err := NewPersistentStore[item](openBolt(t), "items")
	require.NoError(t, err)
	return map[string]Store[item]{
		"memory":     NewInMemoryStore[item](),
		"persistent": persistent,
	}
}

func TestStore(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			list, err := s.List()
			require.NoError(t, err)
			assert.Empty(t, list)

			require.NoError(t, s.Put("b", item{Name: "b", Count: 2}))
			require.NoError(t, s.Put("a", item{Name: "a", Count: 1}))
			require.NoError(t, s.Put("c", item{Name: "c", Count: 3}))
			require.NoError(t, s.Put("a", item{Name: "a", Count: 10}))

			v, err := s.Get("a")
			require.NoError(t, err)
			assert.Equal(t, item{Name: "a", Count: 10}, v)

			list, err = s.List()
			require.NoError(t, err)
			assert.Equal(t, []item{{"a", 10}, {"b", 2}, {"c", 3}}, list)

			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, s.Delete("b"))
			_, err = s.Get("b")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete("b"), ErrNotFound)

			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestPersistentStoreReopensBucket(t *testing.T) {
	db := openBolt(t)

	first, err := NewPersistentStore[item](db, "items")
	require.NoError(t, err)
	require.NoError(t, first.Put("x", item{Name: "x"}))

	second, err := NewPersistentStore[item](db, "items")
	require.NoError(t, err)
	v, err := second.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "x", v.Name)
}

func TestNew(t *testing.T) {
	db, err := Open(config.Store{Type: "memory"})
	require.NoError(t, err)
	assert.Nil(t, db)

	s, err := New[item](nil, "items")
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore[item]{}, s)

	s, err = New[item](openBolt(t), "items")
	require.NoError(t, err)
	assert.IsType(t, &PersistentStore[item]{}, s)
}
