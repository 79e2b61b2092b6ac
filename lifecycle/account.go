package lifecycle

import (
	"context"

	arrays "github.com/adam-hanna/arrayOperations"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
)

// Credentials are what a user signs in with. The wallet address is only
// checked for students.
type Credentials struct {
	Role          model.Role `json:"role"`
	Email         string     `json:"email"`
	WalletAddress string     `json:"walletAddress,omitempty"`
}

// ErrSignInFailed is returned when no registered user matches the given
// credentials
const ErrSignInFailed = model.PermissionError("no user matches the given credentials")

// Register registers a new user with the given role. The user is not signed
// in afterwards.
func (e *Engine) Register(role model.Role, data model.Registration) (*model.UserProfile, error) {
	return e.identity.Register(role, data)
}

// Authenticate returns the registered user matching creds. It does not
// establish a session; callers keep the returned profile in their own.
func (e *Engine) Authenticate(creds Credentials) (*model.UserProfile, error) {
	if err := validate.Email("email", creds.Email); err != nil {
		return nil, err
	}
	switch creds.Role {
	case model.RoleStudent:
		if err := validate.RequireFields("walletAddress", creds.WalletAddress); err != nil {
			return nil, err
		}
	case model.RoleStaff, model.RoleIssuer:
	default:
		return nil, model.ValidationErrorFmt("invalid role: %s", creds.Role)
	}
	profile := e.identity.MatchUser(creds.Role, creds.Email, creds.WalletAddress)
	if profile == nil {
		return nil, ErrSignInFailed
	}
	return profile, nil
}

// SignIn stores the user matching creds in the durable session slot and
// returns a context carrying it as actor
func (e *Engine) SignIn(ctx context.Context, creds Credentials) (context.Context, *model.UserProfile, error) {
	profile, err := e.Authenticate(creds)
	if err != nil {
		return ctx, nil, err
	}
	if err = e.identity.SaveUserProfile(*profile); err != nil {
		return ctx, nil, err
	}
	log.WithFields(
		log.Fields{
			"id":   profile.ID,
			"role": profile.Role,
		},
	).Info("signed in")
	return WithActor(ctx, profile), profile, nil
}

// User returns the registered user with the given id
func (e *Engine) User(id string) (*model.UserProfile, bool) {
	user, found := arrays.FindOne(
		e.identity.Users(), func(u model.StoredUser) bool {
			return u.ID == id
		},
	)
	if !found {
		return nil, false
	}
	return &user, true
}

// SignOut clears the session
func (e *Engine) SignOut() error {
	return e.identity.Logout()
}

// Session returns a context carrying the currently signed in user, if any
func (e *Engine) Session(ctx context.Context) context.Context {
	return WithActor(ctx, e.identity.CurrentUser())
}

// UpdateProfile changes the profile of the acting user
func (e *Engine) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.UserProfile, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return nil, ErrNoSession
	}
	return e.identity.UpdateProfile(update)
}

// MergeProfile returns the acting user's profile with update applied.
// Nothing is persisted.
func (e *Engine) MergeProfile(ctx context.Context, update model.ProfileUpdate) (*model.UserProfile, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	if update.WalletAddress != nil {
		if err := validate.WalletAddress("walletAddress", *update.WalletAddress); err != nil {
			return nil, err
		}
	}
	profile := *actor
	update.Apply(&profile)
	return &profile, nil
}

// Issuers returns all registered issuers
func (e *Engine) Issuers() []model.StoredUser {
	return e.identity.UsersByRole(model.RoleIssuer)
}

// Institutions returns the distinct institutions of registered issuers
func (e *Engine) Institutions() []string {
	return e.identity.Institutions()
}
