package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Metadata is additional free-form information attached to a credential on
// issuance. Values are restricted to scalars: strings, numbers, booleans and
// null.
type Metadata map[string]any

// ParseMetadata decodes a JSON object into Metadata. Empty input yields nil
// metadata. Malformed JSON, a non-object document or a non-scalar value is
// reported as a ValidationError.
func ParseMetadata(raw []byte) (Metadata, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	var m Metadata
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, ValidationErrorFmt("metadata is not a JSON object: %s", err)
	}
	if dec.More() {
		return nil, ValidationError("metadata contains trailing data")
	}
	for k, v := range m {
		if n, ok := v.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return nil, ValidationErrorFmt("metadata value for '%s' is not a valid number", k)
			}
			m[k] = f
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that keys are non-empty and all values are scalars.
func (m Metadata) Validate() error {
	for k, v := range m {
		if k == "" {
			return ValidationError("metadata keys must not be empty")
		}
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
		default:
			return errors.WithStack(ValidationErrorFmt("metadata value for '%s' must be a scalar, got %T", k, v))
		}
	}
	return nil
}
