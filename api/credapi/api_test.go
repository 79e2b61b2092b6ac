package credapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage"
	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
	"github.com/credhouse/credhouse/verification"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	kv, err := storage.NewBadgerKeyValueStorage(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	engine := lifecycle.NewEngine(storage.NewBackends(kv), 0)
	app := fiber.New()
	if err = Register(
		app.Group("/api/v1"), "http://localhost/api/v1", engine,
		verification.NewProtocol("http://localhost"),
	); err != nil {
		t.Fatalf("Failed to register api: %v", err)
	}
	return app
}

// client is a cookie-carrying API client, as a browser would be
type client struct {
	t       *testing.T
	app     *fiber.App
	session string
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{
		t:   t,
		app: app,
	}
}

func (cl *client) do(method, path string, body any, out any) int {
	cl.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			cl.t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cl.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: cl.session})
	}
	res, err := cl.app.Test(req, -1)
	if err != nil {
		cl.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == sessionCookie {
			cl.session = cookie.Value
		}
	}
	if out != nil {
		if err = json.NewDecoder(res.Body).Decode(out); err != nil {
			cl.t.Fatalf("Failed to decode response of %s %s: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func TestCredentialFlow(t *testing.T) {
	app := newTestApp(t)
	cl := newClient(t, app)

	student := model.Registration{
		Name:          "Alice",
		Email:         "alice@uni.edu",
		WalletAddress: "0xA11CE",
	}
	issuer := model.Registration{
		Name:          "Registrar",
		Email:         "registrar@tech.edu",
		WalletAddress: "0x155",
		Institution:   "Tech",
	}
	if status := cl.do(http.MethodPost, "/api/v1/users/student", student, nil); status != fiber.StatusCreated {
		t.Fatalf("register student: status %d", status)
	}
	if status := cl.do(http.MethodPost, "/api/v1/users/issuer", issuer, nil); status != fiber.StatusCreated {
		t.Fatalf("register issuer: status %d", status)
	}
	var apiErr Error
	if status := cl.do(http.MethodPost, "/api/v1/users/student", student, &apiErr); status != fiber.StatusConflict {
		t.Errorf("duplicate registration: status %d", status)
	}
	if apiErr.Error != ErrorAlreadyExists {
		t.Errorf("unexpected error code %q", apiErr.Error)
	}

	if status := cl.do(http.MethodGet, "/api/v1/session", nil, nil); status != fiber.StatusUnauthorized {
		t.Errorf("session before sign in: status %d", status)
	}
	signIn := map[string]string{
		"role":          "student",
		"email":         "alice@uni.edu",
		"walletAddress": "0xA11CE",
	}
	if status := cl.do(http.MethodPost, "/api/v1/session", signIn, nil); status != fiber.StatusOK {
		t.Fatalf("student sign in: status %d", status)
	}
	var req model.CredentialRequest
	if status := cl.do(
		http.MethodPost, "/api/v1/requests", map[string]string{
			"issuerWalletAddress": "0x155",
			"credentialTitle":     "BSc",
		}, &req,
	); status != fiber.StatusCreated {
		t.Fatalf("submit request: status %d", status)
	}
	if req.IssuerInstitution != "Tech" {
		t.Errorf("expected issuer institution to be resolved, got %q", req.IssuerInstitution)
	}

	signIn = map[string]string{
		"role":  "issuer",
		"email": "registrar@tech.edu",
	}
	if status := cl.do(http.MethodPost, "/api/v1/session", signIn, nil); status != fiber.StatusOK {
		t.Fatalf("issuer sign in: status %d", status)
	}
	var pending []model.CredentialRequest
	if status := cl.do(http.MethodGet, "/api/v1/requests/pending", nil, &pending); status != fiber.StatusOK {
		t.Fatalf("pending requests: status %d", status)
	}
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("unexpected pending requests %+v", pending)
	}

	approvePath := fmt.Sprintf("/api/v1/requests/%s/approve", req.ID)
	if status := cl.do(
		http.MethodPost, approvePath, map[string]any{"metadata": map[string]any{"courses": []string{"a"}}},
		nil,
	); status != fiber.StatusBadRequest {
		t.Errorf("approve with nested metadata: status %d", status)
	}
	var approved struct {
		Request    model.CredentialRequest `json:"request"`
		Credential model.IssuedCredential  `json:"credential"`
	}
	if status := cl.do(
		http.MethodPost, approvePath, map[string]any{"metadata": map[string]any{"gpa": 3.7}}, &approved,
	); status != fiber.StatusOK {
		t.Fatalf("approve: status %d", status)
	}
	if approved.Credential.Status != model.CredentialIssued || approved.Credential.Metadata["gpa"] != 3.7 {
		t.Errorf("unexpected credential %+v", approved.Credential)
	}
	if status := cl.do(http.MethodPost, approvePath, nil, &apiErr); status != fiber.StatusConflict {
		t.Errorf("second approval: status %d", status)
	}
	if apiErr.Error != ErrorNotPending {
		t.Errorf("unexpected error code %q", apiErr.Error)
	}

	var share verification.ShareData
	if status := cl.do(
		http.MethodGet, fmt.Sprintf("/api/v1/credentials/%s/share", approved.Credential.ID), nil, &share,
	); status != fiber.StatusOK {
		t.Fatalf("share: status %d", status)
	}
	params := verification.ParseURLParams(share.URL)
	if params.Address != "0xA11CE" || params.CredentialID != approved.Credential.ID {
		t.Errorf("unexpected share url %q", share.URL)
	}

	var result lifecycle.Verification
	verifyPath := "/api/v1/verify" + share.URL[strings.IndexByte(share.URL, '?'):]
	if status := cl.do(http.MethodGet, verifyPath, nil, &result); status != fiber.StatusOK {
		t.Fatalf("verify: status %d", status)
	}
	if !result.Valid {
		t.Errorf("expected valid credential, got %+v", result)
	}
	var profile lifecycle.Profile
	if status := cl.do(http.MethodGet, "/api/v1/verify?address=0xA11CE", nil, &profile); status != fiber.StatusOK {
		t.Fatalf("profile: status %d", status)
	}
	if profile.Name != "Alice" || len(profile.Credentials) != 1 {
		t.Errorf("unexpected profile %+v", profile)
	}
	if status := cl.do(
		http.MethodGet, "/api/v1/verify?address=0xA11CE&credentialId=nope", nil, nil,
	); status != fiber.StatusNotFound {
		t.Errorf("verify unknown credential: status %d", status)
	}

	res, err := app.Test(
		httptest.NewRequest(
			http.MethodGet, fmt.Sprintf("/api/v1/credentials/%s/qr.png", approved.Credential.ID), nil,
		), -1,
	)
	if err != nil {
		t.Fatalf("qr request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK || res.Header.Get(fiber.HeaderContentType) != "image/png" {
		t.Errorf("qr: status %d, content type %q", res.StatusCode, res.Header.Get(fiber.HeaderContentType))
	}
	_ = res.Body.Close()

	if status := cl.do(http.MethodDelete, "/api/v1/session", nil, nil); status != fiber.StatusNoContent {
		t.Errorf("sign out: status %d", status)
	}
	if status := cl.do(http.MethodGet, "/api/v1/requests/pending", nil, nil); status != fiber.StatusUnauthorized {
		t.Errorf("pending after sign out: status %d", status)
	}
}

func TestStudentCannotApprove(t *testing.T) {
	cl := newClient(t, newTestApp(t))
	student := model.Registration{
		Name:          "Alice",
		Email:         "alice@uni.edu",
		WalletAddress: "0xA11CE",
	}
	cl.do(http.MethodPost, "/api/v1/users/student", student, nil)
	cl.do(
		http.MethodPost, "/api/v1/session", map[string]string{
			"role":          "student",
			"email":         "alice@uni.edu",
			"walletAddress": "0xA11CE",
		}, nil,
	)
	var apiErr Error
	if status := cl.do(http.MethodPost, "/api/v1/requests/x/approve", nil, &apiErr); status != fiber.StatusForbidden {
		t.Errorf("student approve: status %d", status)
	}
	if apiErr.Error != ErrorForbidden {
		t.Errorf("unexpected error code %q", apiErr.Error)
	}
}

func TestSessionsArePerClient(t *testing.T) {
	app := newTestApp(t)
	registrar := newClient(t, app)
	registrar.do(
		http.MethodPost, "/api/v1/users/issuer", model.Registration{
			Name:          "Registrar",
			Email:         "registrar@tech.edu",
			WalletAddress: "0x155",
			Institution:   "Tech",
		}, nil,
	)
	if status := registrar.do(
		http.MethodPost, "/api/v1/session", map[string]string{
			"role":  "issuer",
			"email": "registrar@tech.edu",
		}, nil,
	); status != fiber.StatusOK {
		t.Fatalf("issuer sign in: status %d", status)
	}
	if registrar.session == "" {
		t.Fatal("sign in did not set a session cookie")
	}

	stranger := newClient(t, app)
	if status := stranger.do(http.MethodGet, "/api/v1/session", nil, nil); status != fiber.StatusUnauthorized {
		t.Errorf("session without cookie: status %d", status)
	}
	mint := map[string]any{
		"studentWalletAddress": "0xB0B",
		"title":                "Forged",
	}
	if status := stranger.do(http.MethodPost, "/api/v1/credentials", mint, nil); status != fiber.StatusUnauthorized {
		t.Errorf("mint without cookie: status %d", status)
	}
	stranger.session = "made-up"
	if status := stranger.do(http.MethodGet, "/api/v1/session", nil, nil); status != fiber.StatusUnauthorized {
		t.Errorf("session with unknown cookie: status %d", status)
	}

	var profile model.UserProfile
	if status := registrar.do(http.MethodGet, "/api/v1/session", nil, &profile); status != fiber.StatusOK {
		t.Fatalf("issuer session: status %d", status)
	}
	if profile.Role != model.RoleIssuer {
		t.Errorf("unexpected session profile %+v", profile)
	}
	name := "Head Registrar"
	if status := registrar.do(
		http.MethodPatch, "/api/v1/session/profile", model.ProfileUpdate{Name: &name}, nil,
	); status != fiber.StatusOK {
		t.Fatalf("profile update: status %d", status)
	}
	if registrar.do(http.MethodGet, "/api/v1/session", nil, &profile); profile.Name != name {
		t.Errorf("profile update not kept in session, got %q", profile.Name)
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	cl := newClient(t, newTestApp(t))
	if status := cl.do(http.MethodPost, "/api/v1/users/admin", model.Registration{}, nil); status != fiber.StatusBadRequest {
		t.Errorf("unexpected status %d", status)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{validate.Field("email", validate.ErrInvalidEmail), fiber.StatusBadRequest},
		{model.ValidationError("bad metadata"), fiber.StatusBadRequest},
		{parseStatusError(t), fiber.StatusBadRequest},
		{model.NotFoundError("gone"), fiber.StatusNotFound},
		{model.AlreadyExistsError("dup"), fiber.StatusConflict},
		{fmt.Errorf("wrapped: %w", model.NotPendingError("done")), fiber.StatusConflict},
		{lifecycle.ErrNoSession, fiber.StatusUnauthorized},
		{model.PermissionError("no"), fiber.StatusForbidden},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, test := range tests {
		if status, _ := StatusForError(test.err); status != test.status {
			t.Errorf("StatusForError(%v) = %d, want %d", test.err, status, test.status)
		}
	}
}

func parseStatusError(t *testing.T) error {
	_, err := model.ParseCredentialStatus("expired")
	if err == nil {
		t.Fatal("expected error for unknown credential status")
	}
	return err
}

func TestOpenAPIServers(t *testing.T) {
	app := newTestApp(t)
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "http://localhost/api/v1") {
		t.Errorf("servers not updated")
	}
}
