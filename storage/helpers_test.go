package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/credhouse/credhouse/storage/model"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestKV returns an in-memory badger store and replaces the clock and the
// id generator with deterministic versions for the duration of the test
func newTestKV(t *testing.T) model.KeyValueStore {
	t.Helper()
	kv, err := NewBadgerKeyValueStorage(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	origNow, origNewID := now, newID
	counter := 0
	now = func() time.Time { return testTime }
	newID = func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	t.Cleanup(
		func() {
			now, newID = origNow, origNewID
		},
	)
	return kv
}

func newTestBackends(t *testing.T) model.Backends {
	t.Helper()
	return NewBackends(newTestKV(t))
}

// failingKV wraps a store and fails Set for the configured key
type failingKV struct {
	model.KeyValueStore
	failKey string
}

func (f failingKV) SetAny(scope, key string, v any) error {
	if key == f.failKey {
		return fmt.Errorf("write to %s refused", key)
	}
	return f.KeyValueStore.SetAny(scope, key, v)
}

// flakyKV wraps a store and fails the next reads of the configured key as a
// backend would on a timeout
type flakyKV struct {
	model.KeyValueStore
	failKey  string
	failures int
}

func (f *flakyKV) GetAs(scope, key string, out any) (bool, error) {
	if key == f.failKey && f.failures > 0 {
		f.failures--
		return false, fmt.Errorf("read %s: i/o timeout", key)
	}
	return f.KeyValueStore.GetAs(scope, key, out)
}
