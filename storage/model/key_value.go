package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KeyValueScopeCredHouse is the scope under which all durable records live.
const KeyValueScopeCredHouse = "credhouse"

// Keys of the four independent durable records. Each holds a complete JSON
// document.
const (
	KeyValueKeyCurrentUser        = "current_user"
	KeyValueKeyIssuedCredentials  = "issued_credentials"
	KeyValueKeyRegisteredUsers    = "registered_users"
	KeyValueKeyCredentialRequests = "credential_requests"
)

// DurableKeys lists all record keys in the credhouse scope.
var DurableKeys = []string{
	KeyValueKeyCurrentUser,
	KeyValueKeyIssuedCredentials,
	KeyValueKeyRegisteredUsers,
	KeyValueKeyCredentialRequests,
}

// KeyValue stores arbitrary key-value data.
//
// Values are serialized using GORM's json type, which leverages the database
// JSON type when available (e.g., PostgreSQL, MySQL), and falls back to TEXT
// in others (e.g., SQLite).
type KeyValue struct {
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Scope allows grouping keys by namespace; empty string is global scope.
	Scope string `gorm:"primaryKey" json:"scope"`

	// Key is the identifier within a scope.
	Key string `gorm:"primaryKey" json:"key"`

	Value datatypes.JSON `json:"value"`
}

// KeyValueAccessor defines common operations for key-value storage.
// Implementations must honor the uniqueness of (scope,key) and store values
// as JSON.
type KeyValueAccessor interface {
	// Get retrieves the value for a (scope, key). Returns (nil, nil) if not found.
	Get(scope, key string) (datatypes.JSON, error)

	// Set stores/replaces the value for a (scope, key).
	Set(scope, key string, value datatypes.JSON) error

	// Delete removes the entry for a (scope, key). No error if missing.
	Delete(scope, key string) error
}

// KeyValueStore extends KeyValueAccessor with JSON helpers.
type KeyValueStore interface {
	KeyValueAccessor

	// GetAs unmarshals the value for (scope, key) into out. Returns (false,
	// nil) if not found.
	GetAs(scope, key string, out any) (bool, error)

	// SetAny marshals v to JSON and stores it at (scope, key).
	SetAny(scope, key string, v any) error

	// Close releases the underlying resources
	Close() error
}
