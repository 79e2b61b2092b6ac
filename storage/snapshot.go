package storage

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/credhouse/credhouse/storage/model"
)

// SnapshotFormat is an encoding for snapshots
type SnapshotFormat string

// Supported snapshot formats
const (
	SnapshotJSON    SnapshotFormat = "json"
	SnapshotYAML    SnapshotFormat = "yaml"
	SnapshotMsgpack SnapshotFormat = "msgpack"
)

// Snapshot holds a copy of all four durable records
type Snapshot struct {
	CurrentUser        *model.UserProfile        `json:"current_user,omitempty"`
	RegisteredUsers    []model.StoredUser        `json:"registered_users"`
	IssuedCredentials  []model.IssuedCredential  `json:"issued_credentials"`
	CredentialRequests []model.CredentialRequest `json:"credential_requests"`
}

// TakeSnapshot reads all records from the backends. Corrupt records are
// exported as empty.
func TakeSnapshot(backs model.Backends) Snapshot {
	return Snapshot{
		CurrentUser:        backs.Identity.CurrentUser(),
		RegisteredUsers:    backs.Identity.Users(),
		IssuedCredentials:  backs.Ledger.IssuedCredentials(),
		CredentialRequests: backs.Ledger.CredentialRequests(),
	}
}

// Restore overwrites all four records in kv with the snapshot contents. The
// session is cleared if the snapshot has none.
func (snap Snapshot) Restore(kv model.KeyValueStore) error {
	records := map[string]any{
		model.KeyValueKeyRegisteredUsers:    nonNil(snap.RegisteredUsers),
		model.KeyValueKeyIssuedCredentials:  nonNil(snap.IssuedCredentials),
		model.KeyValueKeyCredentialRequests: nonNil(snap.CredentialRequests),
	}
	for key, v := range records {
		if err := writeRecord(kv, key, v); err != nil {
			return err
		}
	}
	if snap.CurrentUser == nil {
		return errors.WithStack(kv.Delete(model.KeyValueScopeCredHouse, model.KeyValueKeyCurrentUser))
	}
	return writeRecord(kv, model.KeyValueKeyCurrentUser, snap.CurrentUser)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Encode writes the snapshot to w in the given format. YAML and msgpack use
// the same field names as JSON.
func (snap Snapshot) Encode(w io.Writer, format SnapshotFormat) error {
	switch format {
	case SnapshotJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.WithStack(enc.Encode(snap))
	case SnapshotYAML:
		generic, err := toGeneric(snap)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(generic); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(enc.Close())
	case SnapshotMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return errors.WithStack(enc.Encode(snap))
	default:
		return errors.Errorf("unsupported snapshot format '%s'", format)
	}
}

// DecodeSnapshot reads a snapshot in the given format from r
func DecodeSnapshot(r io.Reader, format SnapshotFormat) (Snapshot, error) {
	var snap Snapshot
	switch format {
	case SnapshotJSON, "":
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return snap, errors.Wrap(err, "invalid json snapshot")
		}
	case SnapshotYAML:
		var generic any
		if err := yaml.NewDecoder(r).Decode(&generic); err != nil {
			return snap, errors.Wrap(err, "invalid yaml snapshot")
		}
		data, err := json.Marshal(generic)
		if err != nil {
			return snap, errors.WithStack(err)
		}
		if err = json.Unmarshal(data, &snap); err != nil {
			return snap, errors.Wrap(err, "invalid yaml snapshot")
		}
	case SnapshotMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&snap); err != nil {
			return snap, errors.Wrap(err, "invalid msgpack snapshot")
		}
	default:
		return snap, errors.Errorf("unsupported snapshot format '%s'", format)
	}
	return snap, nil
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err = dec.Decode(&generic); err != nil {
		return nil, errors.WithStack(err)
	}
	return numbersToFloat(generic), nil
}

// numbersToFloat replaces json.Number values so that the YAML encoder emits
// them as numbers instead of strings
func numbersToFloat(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = numbersToFloat(e)
		}
	case []any:
		for i, e := range t {
			t[i] = numbersToFloat(e)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	}
	return v
}

// Migrate copies all durable records from src to dst. Records missing in src
// are left untouched in dst.
func Migrate(src, dst model.KeyValueStore) error {
	for _, key := range model.DurableKeys {
		raw, err := src.Get(model.KeyValueScopeCredHouse, key)
		if err != nil {
			return errors.Wrapf(err, "failed to read '%s' from source", key)
		}
		if raw == nil {
			continue
		}
		if err = dst.Set(model.KeyValueScopeCredHouse, key, raw); err != nil {
			return errors.Wrapf(err, "failed to write '%s' to destination", key)
		}
	}
	return nil
}
