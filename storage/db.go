package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned by GetKey when the key does not exist.
var ErrKeyNotFound = badger.ErrKeyNotFound

// maxTxnRetries bounds how often Update retries a transaction that lost a
// write conflict against a concurrent writer of the same key.
const maxTxnRetries = 32

type Config struct {
	Path string

	// InMemory keeps the whole database in RAM, Path is ignored.
	InMemory bool
}

// UpdateFunc receives the current value (nil when the key is absent) and
// returns the value to store.
type UpdateFunc func(current []byte) ([]byte, error)

type Storage interface {
	Close() error

	GetKey(key []byte) ([]byte, error)
	GetByPrefix(prefix []byte) ([]*KeyValueItem, error)

	// A key only counting keys that has a prefix, very efficient because only operating on lsm tree
	CountKeysByPrefix(prefix []byte) (int64, error)

	// Update performs an atomic read-modify-write of a single key.
	Update(key []byte, fn UpdateFunc) ([]byte, error)

	Vacuum() error
	DbPath() string

	Backup(ctx context.Context, w io.Writer, since uint64) (uint64, error)
	Load(ctx context.Context, r io.Reader) error
}

type KeyValueItem struct {
	Key   []byte
	Value []byte
}

type BadgerStorage struct {
	config *Config
	db     *badger.DB
}

// Create storage pool at the particular path
func NewWithPath(path string) (Storage, error) {
	return New(&Config{
		Path: path,
	})
}

// Create storage pool with the given config
func New(c *Config) (Storage, error) {
	opts := badger.DefaultOptions(c.Path)
	if c.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	db, err := badger.Open(
		opts.WithSyncWrites(!c.InMemory).WithLogger(nil),
	)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", c.Path, err)
	}

	return &BadgerStorage{
		config: c,
		db:     db,
	}, nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func (s *BadgerStorage) Update(key []byte, fn UpdateFunc) ([]byte, error) {
	var next []byte

	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			var current []byte

			item, err := txn.Get(key)
			switch {
			case err == nil:
				current, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}

			next, err = fn(current)
			if err != nil {
				return err
			}

			return txn.Set(key, next)
		})

		if !errors.Is(err, badger.ErrConflict) {
			return next, err
		}
	}

	return nil, fmt.Errorf("update %q: %w", key, badger.ErrConflict)
}

// GetByPrefix return a list of key/value item whoser key prefix matches
func (s *BadgerStorage) GetByPrefix(prefix []byte) ([]*KeyValueItem, error) {
	var result []*KeyValueItem

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 30
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			k := item.KeyCopy(nil)
			v, e := item.ValueCopy(nil)
			if e != nil {
				return e
			}

			result = append(result, &KeyValueItem{
				Key:   k,
				Value: v,
			})
		}
		return nil
	})

	return result, err
}

// CountKeysByPrefix return total key under a specfic prefix
func (s *BadgerStorage) CountKeysByPrefix(prefix []byte) (int64, error) {
	total := int64(0)

	if len(prefix) == 0 {
		return 0, fmt.Errorf("cannot count prefix with length 0")
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			total += 1
		}
		return nil
	})

	if err != nil {
		return 0, err
	}

	return total, nil
}

func (s *BadgerStorage) GetKey(key []byte) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	return value, err
}

// Vacuum reclaims value log space. Having nothing to rewrite is not an error.
func (s *BadgerStorage) Vacuum() error {
	if s.config.InMemory {
		return nil
	}

	err := s.db.RunValueLogGC(0.7)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

func (s *BadgerStorage) DbPath() string {
	return s.config.Path
}

// Backup streams every key version newer than since to w and returns the
// version to pass as since for an incremental backup.
func (s *BadgerStorage) Backup(ctx context.Context, w io.Writer, since uint64) (uint64, error) {
	return s.db.Backup(w, since)
}

func (s *BadgerStorage) Load(ctx context.Context, r io.Reader) error {
	return s.db.Load(r, 16)
}
