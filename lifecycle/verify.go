package lifecycle

import (
	"context"
	"strings"

	arrays "github.com/adam-hanna/arrayOperations"

	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
)

// Verification is the outcome of checking a credential against a wallet
type Verification struct {
	Valid      bool                    `json:"valid"`
	Reason     string                  `json:"reason,omitempty"`
	Credential *model.IssuedCredential `json:"credential,omitempty"`
}

// Reasons reported for credentials that fail verification
const (
	ReasonWrongHolder = "credential is not held by this address"
	ReasonNotIssued   = "credential is not in issued state"
)

// Verify checks that the credential with the given id exists, is held by
// address and is issued. Anyone may verify, no session is required.
// An unknown id is reported as model.NotFoundError.
func (e *Engine) Verify(_ context.Context, address, credentialID string) (*Verification, error) {
	address = strings.TrimSpace(address)
	credentialID = strings.TrimSpace(credentialID)
	if err := validate.RequireFields("address", address, "credentialId", credentialID); err != nil {
		return nil, err
	}
	if err := validate.WalletAddress("address", address); err != nil {
		return nil, err
	}
	if !validate.IsValidCredentialID(credentialID) {
		return nil, validate.Field("credentialId", validate.ErrInvalidCredentialID)
	}
	credential, err := e.ledger.Credential(credentialID)
	if err != nil {
		return nil, err
	}
	if credential.StudentWalletAddress != address {
		return &Verification{Reason: ReasonWrongHolder}, nil
	}
	if credential.Status != model.CredentialIssued {
		return &Verification{
			Reason:     ReasonNotIssued,
			Credential: credential,
		}, nil
	}
	return &Verification{
		Valid:      true,
		Credential: credential,
	}, nil
}

// Credential returns the credential with the given id. Credentials are
// public, no session is required.
func (e *Engine) Credential(_ context.Context, credentialID string) (*model.IssuedCredential, error) {
	if !validate.IsValidCredentialID(credentialID) {
		return nil, validate.Field("credentialId", validate.ErrInvalidCredentialID)
	}
	return e.ledger.Credential(credentialID)
}

// Profile is the public view of a wallet reached through a profile URL
type Profile struct {
	Address     string                   `json:"address"`
	Name        string                   `json:"name,omitempty"`
	Credentials []model.IssuedCredential `json:"credentials"`
}

// Profile returns the issued credentials held by address and, if a student
// with that wallet is registered, their name
func (e *Engine) Profile(_ context.Context, address string) (*Profile, error) {
	if err := validate.WalletAddress("address", address); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	profile := &Profile{
		Address: address,
		Credentials: arrays.Filter(
			e.ledger.CredentialsForStudent(address), func(c model.IssuedCredential) bool {
				return c.Status == model.CredentialIssued
			},
		),
	}
	if profile.Credentials == nil {
		profile.Credentials = []model.IssuedCredential{}
	}
	if student := e.identity.UserByWallet(model.RoleStudent, address); student != nil {
		profile.Name = student.Name
	}
	return profile, nil
}
