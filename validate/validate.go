// Package validate holds the syntax checks for user supplied identifiers:
// email addresses, wallet addresses and credential ids.
package validate

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Errors returned when input fails validation. They are wrapped with a
// FieldError naming the offending field, use errors.Is to match them.
var (
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidWalletAddress = errors.New("invalid wallet address format")
	ErrInvalidCredentialID  = errors.New("invalid credential id")
)

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	hexWalletPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)
	namedWalletPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.apt$`)
)

const (
	namedWalletMarker      = ".apt"
	minLenientWalletLength = 6
	maxLenientWalletLength = 100
	maxCredentialIDLength  = 100
)

// FieldError associates a validation error with the field it was raised for.
type FieldError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// Unwrap returns the underlying validation error
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Field wraps err into a FieldError for the named field.
func Field(field string, err error) error {
	return &FieldError{
		Field: field,
		Err:   err,
	}
}

// IsValidEmail reports whether s looks like local@domain.tld.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidWalletAddress reports whether s is a hex address (0x...), a named
// address (name.apt) or, leniently, any string of 6 to 100 characters.
//
// The lenient branch accepts arbitrary strings; a production deployment has
// to settle on a real address grammar.
func IsValidWalletAddress(s string) bool {
	addr := strings.TrimSpace(s)
	if addr == "" {
		return false
	}
	if strings.HasPrefix(addr, "0x") {
		return hexWalletPattern.MatchString(addr)
	}
	if strings.Contains(addr, namedWalletMarker) {
		return namedWalletPattern.MatchString(addr)
	}
	return len(addr) >= minLenientWalletLength && len(addr) <= maxLenientWalletLength
}

// IsValidWallet is an alias of IsValidWalletAddress.
func IsValidWallet(s string) bool {
	return IsValidWalletAddress(s)
}

// IsValidCredentialID reports whether s is a non-empty id of at most 100
// characters after trimming.
func IsValidCredentialID(s string) bool {
	id := strings.TrimSpace(s)
	return id != "" && len(id) <= maxCredentialIDLength
}

// RequireFields returns a FieldError wrapping ErrMissingField for the first
// name whose value is empty after trimming. Pairs are given as
// name, value, name, value, ...
func RequireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return Field(pairs[i], ErrMissingField)
		}
	}
	return nil
}

// Email returns a FieldError if s is empty or not a valid email address.
// Surrounding whitespace is ignored.
func Email(field, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return Field(field, ErrMissingField)
	}
	if !IsValidEmail(s) {
		return Field(field, ErrInvalidEmail)
	}
	return nil
}

// WalletAddress returns a FieldError if s is empty or not a valid wallet
// address.
func WalletAddress(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return Field(field, ErrMissingField)
	}
	if !IsValidWalletAddress(s) {
		return Field(field, ErrInvalidWalletAddress)
	}
	return nil
}
