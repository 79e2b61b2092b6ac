package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	KV       KeyValueStore
	Identity IdentityStore
	Ledger   LedgerStore
}

// Close closes the underlying key-value store.
func (b Backends) Close() error {
	if b.KV == nil {
		return nil
	}
	return b.KV.Close()
}
