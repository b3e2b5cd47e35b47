package memapi

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/goliatone/go-crudview/pkg/animal"
)

const bucketAnimals = "animals"

// BoltStore keeps animals in a bbolt file keyed by big-endian id, so cursor
// order is insertion order.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("memapi: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketAnimals))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memapi: initialize %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) List(context.Context) ([]animal.Animal, error) {
	out := []animal.Animal{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAnimals)).ForEach(func(_, v []byte) error {
			var a animal.Animal
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("memapi: list: %w", err)
	}
	return out, nil
}

func (s *BoltStore) Create(_ context.Context, a animal.Animal) (animal.Animal, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAnimals))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		a.ID = int64(seq)
		return put(b, a)
	})
	if err != nil {
		return animal.Animal{}, fmt.Errorf("memapi: create: %w", err)
	}
	return a, nil
}

func (s *BoltStore) Update(_ context.Context, a animal.Animal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAnimals))
		if b.Get(marshalID(a.ID)) == nil {
			return ErrNotFound
		}
		return put(b, a)
	})
}

func (s *BoltStore) Delete(_ context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAnimals))
		if b.Get(marshalID(id)) == nil {
			return ErrNotFound
		}
		return b.Delete(marshalID(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, a animal.Animal) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return b.Put(marshalID(a.ID), payload)
}

func marshalID(id int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}
