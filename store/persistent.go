package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// PersistentStore keeps JSON encoded values in one bbolt bucket.
type PersistentStore[T any] struct {
	Db     *bbolt.DB
	Bucket string
}

func NewPersistentStore[T any](db *bbolt.DB, bucket string) (*PersistentStore[T], error) {
	p := &PersistentStore[T]{
		Db:     db,
		Bucket: bucket,
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", bucket, err)
	}

	return p, nil
}

func (p *PersistentStore[T]) Count() (int, error) {
	count := 0

	err := p.Db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(p.Bucket)).ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
	})
	if err != nil {
		return -1, err
	}

	return count, nil
}

func (p *PersistentStore[T]) Get(key string) (v T, err error) {
	err = p.Db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(p.Bucket))
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}

		return json.Unmarshal(data, &v)
	})

	return
}

func (p *PersistentStore[T]) List() (vs []T, err error) {
	vs = []T{}
	err = p.Db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(p.Bucket))
		return b.ForEach(func(k, data []byte) error {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			vs = append(vs, v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return vs, nil
}

func (p *PersistentStore[T]) Put(key string, value T) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return p.Db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(p.Bucket)).Put([]byte(key), buf)
	})
}

func (p *PersistentStore[T]) Delete(key string) error {
	return p.Db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(p.Bucket))
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return b.Delete([]byte(key))
	})
}
