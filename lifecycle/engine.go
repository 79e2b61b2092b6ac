// Package lifecycle drives credential requests from submission to approval
// or rejection and mints credentials. Every operation acts on behalf of the
// user carried in its context, see WithActor.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
)

// Engine applies the request state machine on top of the identity store and
// the ledger
type Engine struct {
	identity  model.IdentityStore
	ledger    model.LedgerStore
	mintDelay time.Duration
}

// NewEngine creates an Engine. mintDelay is waited before a credential is
// written; zero disables the delay.
func NewEngine(backs model.Backends, mintDelay time.Duration) *Engine {
	return &Engine{
		identity:  backs.Identity,
		ledger:    backs.Ledger,
		mintDelay: mintDelay,
	}
}

// RequestInput holds what a student enters when requesting a credential
type RequestInput struct {
	IssuerWalletAddress string `json:"issuerWalletAddress"`
	IssuerName          string `json:"issuerName,omitempty"`
	IssuerInstitution   string `json:"issuerInstitution,omitempty"`
	CredentialTitle     string `json:"credentialTitle"`
	Description         string `json:"description"`
}

// MintInput holds what an issuer enters when issuing a credential directly
type MintInput struct {
	StudentWalletAddress string         `json:"studentWalletAddress"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Metadata             model.Metadata `json:"metadata,omitempty"`
}

// SubmitRequest creates a pending credential request from the acting student
// to the issuer with the given wallet address. Name and institution of a
// registered issuer take precedence over the ones given in input.
func (e *Engine) SubmitRequest(ctx context.Context, input RequestInput) (*model.CredentialRequest, error) {
	student, err := requireActor(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err = validate.RequireFields(
		"issuerWalletAddress", input.IssuerWalletAddress,
		"credentialTitle", input.CredentialTitle,
	); err != nil {
		return nil, err
	}
	if err = validate.WalletAddress("issuerWalletAddress", input.IssuerWalletAddress); err != nil {
		return nil, err
	}

	issuerName, institution := input.IssuerName, input.IssuerInstitution
	if issuer := e.identity.UserByWallet(model.RoleIssuer, input.IssuerWalletAddress); issuer != nil {
		issuerName, institution = issuer.Name, issuer.Institution
	} else {
		log.WithField("issuer", input.IssuerWalletAddress).Debug("issuer is not registered, using given details")
	}

	return e.ledger.SubmitCredentialRequest(
		model.NewCredentialRequest{
			StudentName:          student.Name,
			StudentEmail:         student.Email,
			StudentWalletAddress: student.WalletAddress,
			IssuerWalletAddress:  input.IssuerWalletAddress,
			IssuerName:           strings.TrimSpace(issuerName),
			IssuerInstitution:    strings.TrimSpace(institution),
			CredentialTitle:      strings.TrimSpace(input.CredentialTitle),
			Description:          strings.TrimSpace(input.Description),
		},
	)
}

// ownRequest loads the request and checks that the acting issuer is the one
// it is addressed to and that it may still move to next
func (e *Engine) ownRequest(
	ctx context.Context, requestID string, next model.RequestStatus,
) (*model.CredentialRequest, error) {
	issuer, err := requireActor(ctx, model.RoleIssuer)
	if err != nil {
		return nil, err
	}
	requestID = strings.TrimSpace(requestID)
	if err = validate.RequireFields("requestId", requestID); err != nil {
		return nil, err
	}
	req, err := e.ledger.CredentialRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.IssuerWalletAddress != issuer.WalletAddress {
		return nil, model.PermissionErrorFmt("credential request %s is not addressed to you", requestID)
	}
	if !req.Status.CanTransition(next) {
		return nil, model.NotPendingErrorFmt("credential request %s is already %s", requestID, req.Status)
	}
	return req, nil
}

// Approve approves a pending request addressed to the acting issuer and
// mints the credential. Cancelling ctx during the mint delay aborts the
// approval before anything is written.
func (e *Engine) Approve(
	ctx context.Context, requestID string, metadata model.Metadata,
) (*model.CredentialRequest, *model.IssuedCredential, error) {
	if err := metadata.Validate(); err != nil {
		return nil, nil, err
	}
	req, err := e.ownRequest(ctx, requestID, model.RequestApproved)
	if err != nil {
		return nil, nil, err
	}
	if err = e.wait(ctx); err != nil {
		return nil, nil, err
	}
	return e.ledger.ApproveCredentialRequest(req.ID, metadata)
}

// Reject rejects a pending request addressed to the acting issuer
func (e *Engine) Reject(ctx context.Context, requestID, note string) (*model.CredentialRequest, error) {
	req, err := e.ownRequest(ctx, requestID, model.RequestRejected)
	if err != nil {
		return nil, err
	}
	return e.ledger.RejectCredentialRequest(req.ID, strings.TrimSpace(note))
}

// Mint issues a credential from the acting issuer to a student without a
// prior request
func (e *Engine) Mint(ctx context.Context, input MintInput) (*model.IssuedCredential, error) {
	issuer, err := requireActor(ctx, model.RoleIssuer)
	if err != nil {
		return nil, err
	}
	if err = validate.RequireFields(
		"studentWalletAddress", input.StudentWalletAddress,
		"title", input.Title,
	); err != nil {
		return nil, err
	}
	if err = validate.WalletAddress("studentWalletAddress", input.StudentWalletAddress); err != nil {
		return nil, err
	}
	if err = input.Metadata.Validate(); err != nil {
		return nil, err
	}
	if err = e.wait(ctx); err != nil {
		return nil, err
	}
	return e.ledger.SaveIssuedCredential(
		model.NewCredential{
			Title:                strings.TrimSpace(input.Title),
			Description:          strings.TrimSpace(input.Description),
			StudentWalletAddress: input.StudentWalletAddress,
			IssuerWalletAddress:  issuer.WalletAddress,
			IssuerName:           issuer.Name,
			IssuerInstitution:    issuer.Institution,
			Metadata:             input.Metadata,
		},
	)
}

func (e *Engine) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if e.mintDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(e.mintDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "minting aborted")
	case <-timer.C:
		return nil
	}
}

// PendingRequests returns the pending requests addressed to the acting issuer
func (e *Engine) PendingRequests(ctx context.Context) ([]model.CredentialRequest, error) {
	issuer, err := requireActor(ctx, model.RoleIssuer)
	if err != nil {
		return nil, err
	}
	return e.ledger.PendingRequestsForIssuer(issuer.WalletAddress), nil
}

// IssuedByMe returns the credentials issued by the acting issuer
func (e *Engine) IssuedByMe(ctx context.Context) ([]model.IssuedCredential, error) {
	issuer, err := requireActor(ctx, model.RoleIssuer)
	if err != nil {
		return nil, err
	}
	return e.ledger.CredentialsByIssuer(issuer.WalletAddress), nil
}

// MyCredentials returns the credentials held by the acting student
func (e *Engine) MyCredentials(ctx context.Context) ([]model.IssuedCredential, error) {
	student, err := requireActor(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	return e.ledger.CredentialsForStudent(student.WalletAddress), nil
}

// MyRequests returns all requests submitted by the acting student
func (e *Engine) MyRequests(ctx context.Context) ([]model.CredentialRequest, error) {
	student, err := requireActor(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	return e.ledger.RequestsForStudent(student.WalletAddress), nil
}
