// Package verification builds and parses the public verification URLs of
// credentials and profiles and prepares them for sharing.
//
// A verification URL has the form
//
//	{origin}/verify?address=<wallet>&credentialId=<id>
//
// where the credentialId parameter is omitted for profile URLs. The
// parameters type and issuer are understood by ParseURLParams but never
// generated.
package verification

import (
	"net/url"
	"strings"
	"time"

	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
)

// VerifyPath is the path of the verification page relative to the origin
const VerifyPath = "/verify"

// Query parameter names
const (
	ParamAddress      = "address"
	ParamCredentialID = "credentialId"
	ParamType         = "type"
	ParamIssuer       = "issuer"
)

// Protocol generates verification URLs for a public origin
type Protocol struct {
	// Origin is used when no base url is passed, e.g. https://credhouse.example.org
	Origin string
}

// NewProtocol returns a Protocol for the given public origin
func NewProtocol(origin string) Protocol {
	return Protocol{Origin: origin}
}

func (p Protocol) base(baseURL string) (string, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = strings.TrimSpace(p.Origin)
	}
	if base == "" {
		return "", validate.Field("baseUrl", validate.ErrMissingField)
	}
	return strings.TrimRight(base, "/"), nil
}

// GenerateVerificationURL returns the verification URL of a credential held
// by walletAddress. If baseURL is empty the protocol origin is used.
func (p Protocol) GenerateVerificationURL(walletAddress, credentialID, baseURL string) (string, error) {
	if err := validate.RequireFields(
		ParamAddress, walletAddress,
		ParamCredentialID, credentialID,
	); err != nil {
		return "", err
	}
	if err := validate.WalletAddress(ParamAddress, walletAddress); err != nil {
		return "", err
	}
	base, err := p.base(baseURL)
	if err != nil {
		return "", err
	}
	return base + VerifyPath +
		"?" + ParamAddress + "=" + url.QueryEscape(strings.TrimSpace(walletAddress)) +
		"&" + ParamCredentialID + "=" + url.QueryEscape(strings.TrimSpace(credentialID)), nil
}

// GenerateProfileURL returns the verification URL of a wallet's profile
func (p Protocol) GenerateProfileURL(walletAddress, baseURL string) (string, error) {
	if err := validate.WalletAddress(ParamAddress, walletAddress); err != nil {
		return "", err
	}
	base, err := p.base(baseURL)
	if err != nil {
		return "", err
	}
	return base + VerifyPath + "?" + ParamAddress + "=" + url.QueryEscape(strings.TrimSpace(walletAddress)), nil
}

// URLParams are the parameters recognized on a verification URL. Absent
// parameters are empty.
type URLParams struct {
	Address      string `json:"address,omitempty" query:"address"`
	CredentialID string `json:"credentialId,omitempty" query:"credentialId"`
	Type         string `json:"type,omitempty" query:"type"`
	Issuer       string `json:"issuer,omitempty" query:"issuer"`
}

// IsProfile reports whether the parameters point to a profile rather than a
// single credential
func (u URLParams) IsProfile() bool {
	return u.Address != "" && u.CredentialID == ""
}

// ParseURLParams extracts the verification parameters from a full URL, a
// query string with or without leading '?' or a bare path. It never fails;
// anything it cannot parse yields empty fields.
func ParseURLParams(raw string) URLParams {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	} else if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		return URLParams{}
	}
	// pairs that cannot be decoded are skipped
	values, _ := url.ParseQuery(query)
	return URLParams{
		Address:      values.Get(ParamAddress),
		CredentialID: values.Get(ParamCredentialID),
		Type:         values.Get(ParamType),
		Issuer:       values.Get(ParamIssuer),
	}
}

// VerificationURLData is the payload behind a verification QR code
type VerificationURLData struct {
	URL  string           `json:"url"`
	Data VerificationData `json:"data"`
}

// VerificationData describes the credential a QR code points to. Timestamp
// is the generation time and carries no validity meaning.
type VerificationData struct {
	CredentialID  string    `json:"credentialId"`
	WalletAddress string    `json:"walletAddress"`
	Issuer        string    `json:"issuer"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	IssuedDate    time.Time `json:"issuedDate"`
	Timestamp     time.Time `json:"timestamp"`
}

// CredentialType is the type reported for credential QR payloads
const CredentialType = "credential"

var now = time.Now

// GenerateQRVerificationData builds the verification URL of credential for
// walletAddress together with the data shown next to the QR code
func (p Protocol) GenerateQRVerificationData(
	credential model.IssuedCredential, walletAddress, baseURL string,
) (*VerificationURLData, error) {
	u, err := p.GenerateVerificationURL(walletAddress, credential.ID, baseURL)
	if err != nil {
		return nil, err
	}
	return &VerificationURLData{
		URL: u,
		Data: VerificationData{
			CredentialID:  credential.ID,
			WalletAddress: strings.TrimSpace(walletAddress),
			Issuer:        credential.IssuerName,
			Title:         credential.Title,
			Type:          CredentialType,
			IssuedDate:    credential.IssuedDate,
			Timestamp:     now(),
		},
	}, nil
}

// ShareData is what is handed to a share sheet
type ShareData struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// CreateShareableURL wraps the verification URL of credential with a title
// and a short text
func (p Protocol) CreateShareableURL(credential model.IssuedCredential, walletAddress string) (*ShareData, error) {
	u, err := p.GenerateVerificationURL(walletAddress, credential.ID, "")
	if err != nil {
		return nil, err
	}
	text := "Verify my credential \"" + credential.Title + "\""
	if credential.IssuerName != "" {
		text += " issued by " + credential.IssuerName
	}
	return &ShareData{
		Title: "Credential: " + credential.Title,
		Text:  text,
		URL:   u,
	}, nil
}
