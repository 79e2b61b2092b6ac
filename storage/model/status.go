package model

// RequestStatus is the state of a CredentialRequest. A request starts as
// pending and moves exactly once to approved or rejected.
type RequestStatus string

// Constants for RequestStatus
const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether the status is one of the defined constants.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CanTransition reports whether a request in state s may move to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == RequestPending && next.Terminal()
}

// ParseRequestStatus converts a string to a RequestStatus, returning an error for invalid values.
func ParseRequestStatus(v string) (RequestStatus, error) {
	s := RequestStatus(v)
	if !s.Valid() {
		return "", ValidationErrorFmt("invalid request status: %s", v)
	}
	return s, nil
}

// CredentialStatus is the status of an IssuedCredential
type CredentialStatus string

// Constants for CredentialStatus
const (
	CredentialIssued  CredentialStatus = "issued"
	CredentialPending CredentialStatus = "pending"
	CredentialRevoked CredentialStatus = "revoked"
)

// Valid reports whether the status is one of the defined constants.
func (s CredentialStatus) Valid() bool {
	switch s {
	case CredentialIssued, CredentialPending, CredentialRevoked:
		return true
	default:
		return false
	}
}

// ParseCredentialStatus converts a string to a CredentialStatus, returning an error for invalid values.
func ParseCredentialStatus(v string) (CredentialStatus, error) {
	s := CredentialStatus(v)
	if !s.Valid() {
		return "", ValidationErrorFmt("invalid credential status: %s", v)
	}
	return s, nil
}
