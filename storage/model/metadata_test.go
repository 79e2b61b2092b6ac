package model

import (
	"errors"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata([]byte(`{"gpa": 3.9, "year": 2024, "honors": true, "minor": null, "major": "CS"}`))
	if err != nil {
		t.Fatalf("Failed to parse metadata: %v", err)
	}
	if m["gpa"] != 3.9 || m["year"] != float64(2024) || m["honors"] != true || m["major"] != "CS" {
		t.Errorf("unexpected metadata: %v", m)
	}
	if v, ok := m["minor"]; !ok || v != nil {
		t.Errorf("expected null value to be kept, got %v", v)
	}
}

func TestParseMetadataEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n"} {
		m, err := ParseMetadata([]byte(raw))
		if err != nil || m != nil {
			t.Errorf("ParseMetadata(%q) = %v, %v; want nil, nil", raw, m, err)
		}
	}
}

func TestParseMetadataRejects(t *testing.T) {
	tests := map[string]string{
		"malformed":  `{"gpa": }`,
		"array":      `[1, 2]`,
		"nested":     `{"courses": {"a": 1}}`,
		"list value": `{"courses": ["a"]}`,
		"trailing":   `{"a": 1} {"b": 2}`,
		"empty key":  `{"": 1}`,
		"scalar":     `"text"`,
	}
	for name, raw := range tests {
		t.Run(
			name, func(t *testing.T) {
				_, err := ParseMetadata([]byte(raw))
				var invalid ValidationError
				if !errors.As(err, &invalid) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			},
		)
	}
}

func TestMetadataValidate(t *testing.T) {
	if err := (Metadata{"a": 1, "b": int64(2), "c": "x", "d": nil}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Metadata{"a": struct{}{}}).Validate(); err == nil {
		t.Errorf("expected error for struct value")
	}
	if err := Metadata(nil).Validate(); err != nil {
		t.Errorf("nil metadata must be valid: %v", err)
	}
}
