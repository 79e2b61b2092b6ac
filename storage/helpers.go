package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/storage/model"
)

// now and newID are replaced in tests
var (
	now   = time.Now
	newID = uuid.NewString
)

// readRecord loads the record at key into out. Missing, unreadable and
// corrupt records are reported as not found; failures are logged and never
// returned.
func readRecord(kv model.KeyValueStore, key string, out any) bool {
	found, err := kv.GetAs(model.KeyValueScopeCredHouse, key, out)
	if err != nil {
		log.WithError(err).WithFields(
			log.Fields{
				"scope": model.KeyValueScopeCredHouse,
				"key":   key,
			},
		).Warn("could not read stored record, treating it as empty")
		return false
	}
	return found
}

// readList loads a JSON array record. The result is nil if the record is
// missing or corrupt, partially decoded data is discarded.
func readList[T any](kv model.KeyValueStore, key string) []T {
	var items []T
	if !readRecord(kv, key, &items) {
		return nil
	}
	return items
}

// loadList reads a JSON array record that is about to be rewritten. Missing
// and corrupt records are empty. Any other read failure is returned, so that
// a list that could not be read is never overwritten.
func loadList[T any](kv model.KeyValueStore, key string) ([]T, error) {
	var items []T
	_, err := kv.GetAs(model.KeyValueScopeCredHouse, key, &items)
	if err == nil {
		return items, nil
	}
	var corrupt model.CorruptError
	if errors.As(err, &corrupt) {
		log.WithError(err).WithFields(
			log.Fields{
				"scope": model.KeyValueScopeCredHouse,
				"key":   key,
			},
		).Warn("stored record is corrupt, it will be replaced")
		return nil, nil
	}
	return nil, errors.Wrapf(err, "storage: reading '%s' failed", key)
}

func writeRecord(kv model.KeyValueStore, key string, v any) error {
	if err := kv.SetAny(model.KeyValueScopeCredHouse, key, v); err != nil {
		return errors.Wrapf(err, "storage: writing '%s' failed", key)
	}
	return nil
}
