package model

import (
	"time"
)

// IssuedCredential is a minted credential. It is immutable once created apart
// from a status change to revoked.
type IssuedCredential struct {
	ID                   string           `json:"id"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	StudentWalletAddress string           `json:"studentWalletAddress"`
	IssuerWalletAddress  string           `json:"issuerWalletAddress"`
	IssuerName           string           `json:"issuerName"`
	IssuerInstitution    string           `json:"issuerInstitution"`
	IssuedDate           time.Time        `json:"issuedDate"`
	Status               CredentialStatus `json:"status"`
	RequestID            string           `json:"requestId,omitempty"`
	Metadata             Metadata         `json:"metadata,omitempty"`
}

// NewCredential holds the caller supplied fields of a credential; id, issue
// date and status are assigned by the ledger.
type NewCredential struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	StudentWalletAddress string   `json:"studentWalletAddress"`
	IssuerWalletAddress  string   `json:"issuerWalletAddress"`
	IssuerName           string   `json:"issuerName"`
	IssuerInstitution    string   `json:"issuerInstitution"`
	RequestID            string   `json:"requestId,omitempty"`
	Metadata             Metadata `json:"metadata,omitempty"`
}

// CredentialRequest is a student's request for a credential from an issuer.
type CredentialRequest struct {
	ID                   string        `json:"id"`
	StudentName          string        `json:"studentName"`
	StudentEmail         string        `json:"studentEmail"`
	StudentWalletAddress string        `json:"studentWalletAddress"`
	IssuerWalletAddress  string        `json:"issuerWalletAddress"`
	IssuerName           string        `json:"issuerName"`
	IssuerInstitution    string        `json:"issuerInstitution"`
	CredentialTitle      string        `json:"credentialTitle"`
	Description          string        `json:"description"`
	RequestDate          time.Time     `json:"requestDate"`
	Status               RequestStatus `json:"status"`
	RejectionNote        string        `json:"rejectionNote,omitempty"`
}

// NewCredentialRequest holds the caller supplied fields of a request; id,
// request date and status are assigned by the ledger.
type NewCredentialRequest struct {
	StudentName          string `json:"studentName"`
	StudentEmail         string `json:"studentEmail"`
	StudentWalletAddress string `json:"studentWalletAddress"`
	IssuerWalletAddress  string `json:"issuerWalletAddress"`
	IssuerName           string `json:"issuerName"`
	IssuerInstitution    string `json:"issuerInstitution"`
	CredentialTitle      string `json:"credentialTitle"`
	Description          string `json:"description"`
}

// DefaultRejectionNote is stored when a request is rejected without a note.
const DefaultRejectionNote = "Request rejected by issuer"

// LedgerStore holds issued credentials and credential requests.
type LedgerStore interface {
	SaveIssuedCredential(c NewCredential) (*IssuedCredential, error)
	// IssuedCredentials returns all credentials in insertion order
	IssuedCredentials() []IssuedCredential
	Credential(id string) (*IssuedCredential, error)
	CredentialsByIssuer(walletAddress string) []IssuedCredential
	CredentialsForStudent(walletAddress string) []IssuedCredential

	SubmitCredentialRequest(r NewCredentialRequest) (*CredentialRequest, error)
	CredentialRequests() []CredentialRequest
	CredentialRequest(id string) (*CredentialRequest, error)
	PendingRequestsForIssuer(walletAddress string) []CredentialRequest
	RequestsForStudent(walletAddress string) []CredentialRequest

	// ApproveCredentialRequest marks a pending request approved and mints
	// the corresponding credential
	ApproveCredentialRequest(id string, metadata Metadata) (*CredentialRequest, *IssuedCredential, error)
	// RejectCredentialRequest marks a pending request rejected
	RejectCredentialRequest(id, note string) (*CredentialRequest, error)
}
