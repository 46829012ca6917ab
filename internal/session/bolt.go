package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketSession = "session" // key: "token" | "user" -> value

// BoltStore persists the session in a bbolt file.
type BoltStore struct {
	storage *bbolt.DB
}

// NewBoltStore opens (or creates) the bbolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketSession))
		return err
	}); err != nil {
		_ = instance.Close()

		return nil, err
	}

	return &BoltStore{storage: instance}, nil
}

func (b *BoltStore) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.storage.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketSession)).Get([]byte(key))
		if data != nil {
			value = string(data)
			ok = true
		}
		return nil
	})
	if err != nil {
		return "", false, translateBoltErr(err)
	}
	return value, ok, nil
}

func (b *BoltStore) Put(_ context.Context, key, value string) error {
	return translateBoltErr(b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSession)).Put([]byte(key), []byte(value))
	}))
}

func (b *BoltStore) Delete(_ context.Context, key string) error {
	return translateBoltErr(b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSession)).Delete([]byte(key))
	}))
}

// Close closes the database.
func (b *BoltStore) Close() error {
	return b.storage.Close()
}

func translateBoltErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrStoreClosed
	}
	return err
}
