package storage

import (
	"sort"
	"strings"
	"sync"

	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"

	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
)

// IdentityStorage implements model.IdentityStore on a key-value store. The
// registry and the session are kept in two independent records.
type IdentityStorage struct {
	kv model.KeyValueStore
	mu sync.Mutex
}

// NewIdentityStorage returns an IdentityStorage backed by kv
func NewIdentityStorage(kv model.KeyValueStore) *IdentityStorage {
	return &IdentityStorage{kv: kv}
}

// SaveUserProfile overwrites the current session
func (s *IdentityStorage) SaveUserProfile(profile model.UserProfile) error {
	return writeRecord(s.kv, model.KeyValueKeyCurrentUser, profile)
}

// CurrentUser returns the current session profile, or nil if there is no
// session or the stored session cannot be decoded
func (s *IdentityStorage) CurrentUser() *model.UserProfile {
	var profile model.UserProfile
	if !readRecord(s.kv, model.KeyValueKeyCurrentUser, &profile) || profile.ID == "" {
		return nil
	}
	return &profile
}

// Logout clears the current session; registered users are untouched
func (s *IdentityStorage) Logout() error {
	if err := s.kv.Delete(model.KeyValueScopeCredHouse, model.KeyValueKeyCurrentUser); err != nil {
		return errors.Wrap(err, "storage: clearing session failed")
	}
	return nil
}

// Register adds a new user with the given role. The user is not signed in.
func (s *IdentityStorage) Register(role model.Role, data model.Registration) (*model.UserProfile, error) {
	if !role.Valid() {
		return nil, model.ValidationErrorFmt("invalid role: %s", role)
	}
	if err := validate.RequireFields("name", data.Name); err != nil {
		return nil, err
	}
	if err := validate.Email("email", data.Email); err != nil {
		return nil, err
	}
	if err := validate.WalletAddress("walletAddress", data.WalletAddress); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.StoredUser](s.kv, model.KeyValueKeyRegisteredUsers)
	if err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(data.Email)
	if _, exists := arrays.FindOne(
		users, func(u model.StoredUser) bool {
			return model.NormalizeEmail(u.Email) == email
		},
	); exists {
		return nil, model.AlreadyExistsErrorFmt("user already exists: %s", email)
	}

	user := model.StoredUser{
		ID:            newID(),
		Name:          strings.TrimSpace(data.Name),
		Email:         strings.TrimSpace(data.Email),
		WalletAddress: strings.TrimSpace(data.WalletAddress),
		Role:          role,
		CreatedAt:     now(),
	}
	switch role {
	case model.RoleStaff:
		user.Organization = strings.TrimSpace(data.Organization)
	case model.RoleIssuer:
		user.Institution = strings.TrimSpace(data.Institution)
	}
	users = append(users, user)
	if err = writeRecord(s.kv, model.KeyValueKeyRegisteredUsers, users); err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"id":   user.ID,
			"role": user.Role,
		},
	).Info("registered user")
	return &user, nil
}

// RegisterStudent registers a student
func (s *IdentityStorage) RegisterStudent(data model.Registration) (*model.UserProfile, error) {
	return s.Register(model.RoleStudent, data)
}

// RegisterStaff registers a staff member
func (s *IdentityStorage) RegisterStaff(data model.Registration) (*model.UserProfile, error) {
	return s.Register(model.RoleStaff, data)
}

// RegisterIssuer registers an issuer
func (s *IdentityStorage) RegisterIssuer(data model.Registration) (*model.UserProfile, error) {
	return s.Register(model.RoleIssuer, data)
}

// SignInStudent signs in the student whose email and wallet address both
// match. The wallet address must be identical to the registered one.
func (s *IdentityStorage) SignInStudent(email, walletAddress string) (*model.UserProfile, error) {
	return s.signIn(model.RoleStudent, email, walletAddress)
}

// SignInStaff signs in the staff member with the given email
func (s *IdentityStorage) SignInStaff(email string) (*model.UserProfile, error) {
	return s.signIn(model.RoleStaff, email, "")
}

// SignInIssuer signs in the issuer with the given email
func (s *IdentityStorage) SignInIssuer(email string) (*model.UserProfile, error) {
	return s.signIn(model.RoleIssuer, email, "")
}

// signIn returns nil, nil if no user matches
func (s *IdentityStorage) signIn(role model.Role, email, walletAddress string) (*model.UserProfile, error) {
	user := s.MatchUser(role, email, walletAddress)
	if user == nil {
		return nil, nil
	}
	if err := s.SaveUserProfile(*user); err != nil {
		return nil, err
	}
	return user, nil
}

// MatchUser returns the registered user with the given role and email, or
// nil. Students must also match the wallet address, it is ignored for the
// other roles. The session is not touched.
func (s *IdentityStorage) MatchUser(role model.Role, email, walletAddress string) *model.StoredUser {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return nil
	}
	wallet := strings.TrimSpace(walletAddress)
	user, found := arrays.FindOne(
		s.Users(), func(u model.StoredUser) bool {
			return model.NormalizeEmail(u.Email) == normalized && u.Role == role &&
				(role != model.RoleStudent || u.WalletAddress == wallet)
		},
	)
	if !found {
		log.WithField("role", role).Debug("sign in failed: no matching user")
		return nil
	}
	return &user
}

// UpdateProfile merges update into the session profile and persists it. It
// is a no-op returning nil if there is no session.
func (s *IdentityStorage) UpdateProfile(update model.ProfileUpdate) (*model.UserProfile, error) {
	if update.WalletAddress != nil {
		if err := validate.WalletAddress("walletAddress", *update.WalletAddress); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.CurrentUser()
	if profile == nil {
		return nil, nil
	}
	update.Apply(profile)
	if err := s.SaveUserProfile(*profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Users returns all registered users in registration order
func (s *IdentityStorage) Users() []model.StoredUser {
	return readList[model.StoredUser](s.kv, model.KeyValueKeyRegisteredUsers)
}

// UsersByRole returns the registered users with the given role
func (s *IdentityStorage) UsersByRole(role model.Role) []model.StoredUser {
	return arrays.Filter(
		s.Users(), func(u model.StoredUser) bool {
			return u.Role == role
		},
	)
}

// UserByWallet returns the registered user with the given role and wallet
// address, or nil
func (s *IdentityStorage) UserByWallet(role model.Role, walletAddress string) *model.StoredUser {
	wallet := strings.TrimSpace(walletAddress)
	user, found := arrays.FindOne(
		s.Users(), func(u model.StoredUser) bool {
			return u.Role == role && u.WalletAddress == wallet
		},
	)
	if !found {
		return nil
	}
	return &user
}

// Institutions returns the sorted, distinct institutions of registered issuers
func (s *IdentityStorage) Institutions() []string {
	var institutions []string
	for _, u := range s.UsersByRole(model.RoleIssuer) {
		if u.Institution != "" {
			institutions = append(institutions, u.Institution)
		}
	}
	institutions = slices.Unique(institutions)
	sort.Strings(institutions)
	return institutions
}
