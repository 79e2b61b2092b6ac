package storage

import (
	stdslices "slices"
	"strings"
	"sync"

	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/storage/model"
)

// LedgerStorage implements model.LedgerStore on a key-value store. Issued
// credentials and credential requests are two independent JSON arrays.
//
// Mutations are serialized by a mutex, so a single process can not lose
// updates. Other processes writing the same store are not coordinated.
type LedgerStorage struct {
	kv model.KeyValueStore
	mu sync.Mutex
}

// NewLedgerStorage returns a LedgerStorage backed by kv
func NewLedgerStorage(kv model.KeyValueStore) *LedgerStorage {
	return &LedgerStorage{kv: kv}
}

// SaveIssuedCredential assigns id, issue date and the issued status to c and
// appends it to the ledger
func (s *LedgerStorage) SaveIssuedCredential(c model.NewCredential) (*model.IssuedCredential, error) {
	if err := c.Metadata.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveIssuedCredential(c)
}

// saveIssuedCredential must be called while holding s.mu
func (s *LedgerStorage) saveIssuedCredential(c model.NewCredential) (*model.IssuedCredential, error) {
	credential := model.IssuedCredential{
		ID:                   newID(),
		Title:                c.Title,
		Description:          c.Description,
		StudentWalletAddress: strings.TrimSpace(c.StudentWalletAddress),
		IssuerWalletAddress:  strings.TrimSpace(c.IssuerWalletAddress),
		IssuerName:           c.IssuerName,
		IssuerInstitution:    c.IssuerInstitution,
		IssuedDate:           now(),
		Status:               model.CredentialIssued,
		RequestID:            c.RequestID,
		Metadata:             c.Metadata,
	}
	credentials, err := loadList[model.IssuedCredential](s.kv, model.KeyValueKeyIssuedCredentials)
	if err != nil {
		return nil, err
	}
	credentials = append(credentials, credential)
	if err = writeRecord(s.kv, model.KeyValueKeyIssuedCredentials, credentials); err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"credential": credential.ID,
			"issuer":     credential.IssuerWalletAddress,
			"student":    credential.StudentWalletAddress,
		},
	).Info("issued credential")
	return &credential, nil
}

// IssuedCredentials returns all credentials in insertion order
func (s *LedgerStorage) IssuedCredentials() []model.IssuedCredential {
	return readList[model.IssuedCredential](s.kv, model.KeyValueKeyIssuedCredentials)
}

// Credential returns the credential with the given id
func (s *LedgerStorage) Credential(id string) (*model.IssuedCredential, error) {
	id = strings.TrimSpace(id)
	credential, found := arrays.FindOne(
		s.IssuedCredentials(), func(c model.IssuedCredential) bool {
			return c.ID == id
		},
	)
	if !found {
		return nil, model.NotFoundErrorFmt("credential not found: %s", id)
	}
	return &credential, nil
}

// CredentialsByIssuer returns the credentials whose issuer wallet address is
// exactly walletAddress
func (s *LedgerStorage) CredentialsByIssuer(walletAddress string) []model.IssuedCredential {
	return arrays.Filter(
		s.IssuedCredentials(), func(c model.IssuedCredential) bool {
			return c.IssuerWalletAddress == walletAddress
		},
	)
}

// CredentialsForStudent returns the credentials whose student wallet address
// is exactly walletAddress
func (s *LedgerStorage) CredentialsForStudent(walletAddress string) []model.IssuedCredential {
	return arrays.Filter(
		s.IssuedCredentials(), func(c model.IssuedCredential) bool {
			return c.StudentWalletAddress == walletAddress
		},
	)
}

// SubmitCredentialRequest assigns id, request date and the pending status to
// r and appends it to the request list
func (s *LedgerStorage) SubmitCredentialRequest(r model.NewCredentialRequest) (*model.CredentialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request := model.CredentialRequest{
		ID:                   newID(),
		StudentName:          r.StudentName,
		StudentEmail:         r.StudentEmail,
		StudentWalletAddress: strings.TrimSpace(r.StudentWalletAddress),
		IssuerWalletAddress:  strings.TrimSpace(r.IssuerWalletAddress),
		IssuerName:           r.IssuerName,
		IssuerInstitution:    r.IssuerInstitution,
		CredentialTitle:      r.CredentialTitle,
		Description:          r.Description,
		RequestDate:          now(),
		Status:               model.RequestPending,
	}
	requests, err := loadList[model.CredentialRequest](s.kv, model.KeyValueKeyCredentialRequests)
	if err != nil {
		return nil, err
	}
	requests = append(requests, request)
	if err = writeRecord(s.kv, model.KeyValueKeyCredentialRequests, requests); err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"request": request.ID,
			"issuer":  request.IssuerWalletAddress,
		},
	).Info("submitted credential request")
	return &request, nil
}

// CredentialRequests returns all requests in submission order
func (s *LedgerStorage) CredentialRequests() []model.CredentialRequest {
	return readList[model.CredentialRequest](s.kv, model.KeyValueKeyCredentialRequests)
}

// CredentialRequest returns the request with the given id
func (s *LedgerStorage) CredentialRequest(id string) (*model.CredentialRequest, error) {
	request, found := arrays.FindOne(
		s.CredentialRequests(), func(r model.CredentialRequest) bool {
			return r.ID == id
		},
	)
	if !found {
		return nil, model.NotFoundErrorFmt("credential request not found: %s", id)
	}
	return &request, nil
}

// PendingRequestsForIssuer returns the pending requests addressed to the
// issuer with the given wallet address
func (s *LedgerStorage) PendingRequestsForIssuer(walletAddress string) []model.CredentialRequest {
	return arrays.Filter(
		s.CredentialRequests(), func(r model.CredentialRequest) bool {
			return r.Status == model.RequestPending && r.IssuerWalletAddress == walletAddress
		},
	)
}

// RequestsForStudent returns all requests submitted by the student with the
// given wallet address
func (s *LedgerStorage) RequestsForStudent(walletAddress string) []model.CredentialRequest {
	return arrays.Filter(
		s.CredentialRequests(), func(r model.CredentialRequest) bool {
			return r.StudentWalletAddress == walletAddress
		},
	)
}

// transition loads the requests and returns them together with the index of
// the request with the given id, if it may move to next. Must be called while
// holding s.mu.
func (s *LedgerStorage) transition(id string, next model.RequestStatus) ([]model.CredentialRequest, int, error) {
	requests, err := loadList[model.CredentialRequest](s.kv, model.KeyValueKeyCredentialRequests)
	if err != nil {
		return nil, -1, err
	}
	idx := stdslices.IndexFunc(
		requests, func(r model.CredentialRequest) bool {
			return r.ID == id
		},
	)
	if idx < 0 {
		return nil, -1, model.NotFoundErrorFmt("credential request not found: %s", id)
	}
	if current := requests[idx].Status; !current.CanTransition(next) {
		return nil, -1, model.NotPendingErrorFmt("credential request %s is already %s", id, current)
	}
	return requests, idx, nil
}

// ApproveCredentialRequest marks the pending request approved and mints a
// credential from its student and issuer fields.
//
// The request is written before the credential. If writing the credential
// fails the request is put back to pending; if that fails as well the request
// stays approved without a credential and the inconsistency is logged.
func (s *LedgerStorage) ApproveCredentialRequest(
	id string, metadata model.Metadata,
) (*model.CredentialRequest, *model.IssuedCredential, error) {
	if err := metadata.Validate(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, idx, err := s.transition(id, model.RequestApproved)
	if err != nil {
		return nil, nil, err
	}
	requests[idx].Status = model.RequestApproved
	if err = writeRecord(s.kv, model.KeyValueKeyCredentialRequests, requests); err != nil {
		return nil, nil, err
	}
	request := requests[idx]

	credential, err := s.saveIssuedCredential(
		model.NewCredential{
			Title:                request.CredentialTitle,
			Description:          request.Description,
			StudentWalletAddress: request.StudentWalletAddress,
			IssuerWalletAddress:  request.IssuerWalletAddress,
			IssuerName:           request.IssuerName,
			IssuerInstitution:    request.IssuerInstitution,
			RequestID:            request.ID,
			Metadata:             metadata,
		},
	)
	if err != nil {
		requests[idx].Status = model.RequestPending
		if rbErr := writeRecord(s.kv, model.KeyValueKeyCredentialRequests, requests); rbErr != nil {
			log.WithError(rbErr).WithField("request", id).Error(
				"credential request left approved without an issued credential",
			)
		}
		return nil, nil, errors.Wrap(err, "ledger: minting credential failed")
	}
	return &request, credential, nil
}

// RejectCredentialRequest marks the pending request rejected. An empty note
// is replaced by model.DefaultRejectionNote.
func (s *LedgerStorage) RejectCredentialRequest(id, note string) (*model.CredentialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, idx, err := s.transition(id, model.RequestRejected)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		note = model.DefaultRejectionNote
	}
	requests[idx].Status = model.RequestRejected
	requests[idx].RejectionNote = note
	if err = writeRecord(s.kv, model.KeyValueKeyCredentialRequests, requests); err != nil {
		return nil, err
	}
	log.WithField("request", id).Info("rejected credential request")
	request := requests[idx]
	return &request, nil
}
