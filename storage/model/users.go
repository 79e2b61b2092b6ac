package model

import (
	"strings"
	"time"
)

// Role is the role a user registered with; it never changes afterwards.
type Role string

// Constants for Role
const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleIssuer  Role = "issuer"
)

// Valid reports whether the role is one of the defined constants.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleIssuer:
		return true
	default:
		return false
	}
}

// ParseRole converts a string to a Role, returning an error for invalid values.
func ParseRole(v string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	if !r.Valid() {
		return "", ValidationErrorFmt("invalid role: %s", v)
	}
	return r, nil
}

// UserProfile is the profile of a registered user. The same shape is used for
// the active session and for the entries of the user registry.
type UserProfile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	WalletAddress string    `json:"walletAddress"`
	Role          Role      `json:"role"`
	Organization  string    `json:"organization,omitempty"`
	Institution   string    `json:"institution,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StoredUser is the registry entry of a user, kept independently of the
// active session.
type StoredUser = UserProfile

// NormalizeEmail returns the registry key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Registration holds the data needed to register a user. Organization is only
// kept for staff and Institution only for issuers.
type Registration struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
	Organization  string `json:"organization,omitempty"`
	Institution   string `json:"institution,omitempty"`
}

// ProfileUpdate is a partial update of the session profile; nil fields are
// left untouched.
type ProfileUpdate struct {
	Name          *string `json:"name,omitempty"`
	WalletAddress *string `json:"walletAddress,omitempty"`
	Organization  *string `json:"organization,omitempty"`
	Institution   *string `json:"institution,omitempty"`
}

// Apply merges the non-nil fields of u into p.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.WalletAddress != nil {
		p.WalletAddress = strings.TrimSpace(*u.WalletAddress)
	}
	if u.Organization != nil {
		p.Organization = *u.Organization
	}
	if u.Institution != nil {
		p.Institution = *u.Institution
	}
}

// IdentityStore is the registry of users plus the current session slot.
type IdentityStore interface {
	// SaveUserProfile overwrites the current session
	SaveUserProfile(profile UserProfile) error
	// CurrentUser returns the current session profile or nil
	CurrentUser() *UserProfile
	// Logout clears the current session; the registry is untouched
	Logout() error

	// Register adds a new user with the given role without signing in
	Register(role Role, data Registration) (*UserProfile, error)
	RegisterStudent(data Registration) (*UserProfile, error)
	RegisterStaff(data Registration) (*UserProfile, error)
	RegisterIssuer(data Registration) (*UserProfile, error)

	// SignInStudent requires both email and wallet address to match
	SignInStudent(email, walletAddress string) (*UserProfile, error)
	SignInStaff(email string) (*UserProfile, error)
	SignInIssuer(email string) (*UserProfile, error)

	// UpdateProfile merges update into the session; no-op without session
	UpdateProfile(update ProfileUpdate) (*UserProfile, error)
	// MatchUser returns the user matching the sign in data without
	// touching the session, or nil
	MatchUser(role Role, email, walletAddress string) *StoredUser

	// Users returns all registered users in registration order
	Users() []StoredUser
	// UsersByRole returns the registered users with the given role
	UsersByRole(role Role) []StoredUser
	// UserByWallet returns the user with the given role and wallet or nil
	UserByWallet(role Role, walletAddress string) *StoredUser
	// Institutions returns the distinct institutions of registered issuers
	Institutions() []string
}
