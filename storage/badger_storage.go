package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
)

// BadgerKeyValueStorage implements model.KeyValueStore on an embedded badger
// database. Keys are stored as "<scope>/<key>".
type BadgerKeyValueStorage struct {
	db *badger.DB
}

// NewBadgerKeyValueStorage opens a badger database in cfg.DataDir, or an
// in-memory database if cfg.InMemory is set.
func NewBadgerKeyValueStorage(cfg Config) (*BadgerKeyValueStorage, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.DataDir == "" {
			return nil, pkgerrors.New("badger storage requires a data_dir")
		}
		opts = badger.DefaultOptions(cfg.DataDir)
	}
	if !cfg.Debug {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open badger database")
	}
	return &BadgerKeyValueStorage{db: db}, nil
}

func badgerKey(scope, key string) []byte {
	return []byte(scope + "/" + key)
}

// Get returns the JSON value for a (scope, key). If not found, returns nil, nil.
func (s *BadgerKeyValueStorage) Get(scope, key string) (datatypes.JSON, error) {
	var value []byte
	err := s.db.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get(badgerKey(scope, key))
			if err != nil {
				return err
			}
			value, err = item.ValueCopy(nil)
			return err
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores/replaces the value for a (scope, key).
func (s *BadgerKeyValueStorage) Set(scope, key string, value datatypes.JSON) error {
	return s.db.Update(
		func(txn *badger.Txn) error {
			return txn.Set(badgerKey(scope, key), value)
		},
	)
}

// Delete removes the entry for a (scope, key). No error if missing.
func (s *BadgerKeyValueStorage) Delete(scope, key string) error {
	return s.db.Update(
		func(txn *badger.Txn) error {
			return txn.Delete(badgerKey(scope, key))
		},
	)
}

// GetAs retrieves and unmarshals the value for (scope, key) into out.
func (s *BadgerKeyValueStorage) GetAs(scope, key string, out any) (bool, error) {
	return getAs(s, scope, key, out)
}

// SetAny marshals v to JSON and stores it at (scope, key).
func (s *BadgerKeyValueStorage) SetAny(scope, key string, v any) error {
	return setAny(s, scope, key, v)
}

// Close closes the badger database
func (s *BadgerKeyValueStorage) Close() error {
	return s.db.Close()
}
