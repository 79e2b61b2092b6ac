package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
)

func writeConfig(t *testing.T, dataDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	conf := fmt.Sprintf(
		`server:
  public_url: https://credentials.example.org
storage:
  driver: badger
  data_dir: %s
issuance:
  mint_delay: 0s
`, dataDir,
	)
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type harness struct {
	t      *testing.T
	config string
}

func (h harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--config", h.config}, args...), &out, strings.NewReader(""))
	return out.String(), err
}

func (h harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("credctl %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func newHarness(t *testing.T) harness {
	return harness{
		t:      t,
		config: writeConfig(t, t.TempDir()),
	}
}

func TestCredentialLifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun(
		"register", "student", "--name", "Alice", "--email", "alice@uni.edu", "--wallet", "0xA11CE",
	)
	h.mustRun(
		"register", "issuer", "--name", "Registrar", "--email", "registrar@tech.edu", "--wallet", "0x155",
		"--institution", "Tech",
	)
	if _, err := h.run("whoami"); err == nil {
		t.Error("expected whoami to fail before sign in")
	}

	h.mustRun("signin", "student", "--email", "alice@uni.edu", "--wallet", "0xA11CE")
	var req model.CredentialRequest
	if err := json.Unmarshal([]byte(h.mustRun("request", "--issuer-wallet", "0x155", "--title", "BSc")), &req); err != nil {
		t.Fatalf("could not decode request: %v", err)
	}
	if req.Status != model.RequestPending || req.IssuerName != "Registrar" {
		t.Errorf("unexpected request %+v", req)
	}
	if _, err := h.run("approve", req.ID); err == nil {
		t.Error("expected students not to be able to approve")
	}

	h.mustRun("signin", "issuer", "--email", "registrar@tech.edu")
	var pending []model.CredentialRequest
	if err := json.Unmarshal([]byte(h.mustRun("requests")), &pending); err != nil {
		t.Fatalf("could not decode requests: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending request, got %d", len(pending))
	}
	var credential model.IssuedCredential
	out := h.mustRun("approve", req.ID, "--metadata", `{"gpa": 3.7, "honors": true}`)
	if err := json.Unmarshal([]byte(out), &credential); err != nil {
		t.Fatalf("could not decode credential: %v", err)
	}
	if credential.RequestID != req.ID || credential.Metadata["honors"] != true {
		t.Errorf("unexpected credential %+v", credential)
	}
	if _, err := h.run("approve", req.ID); err == nil {
		t.Error("expected second approval to fail")
	}

	url := strings.TrimSpace(h.mustRun("url", credential.ID))
	if !strings.HasPrefix(url, "https://credentials.example.org/verify?address=0xA11CE") {
		t.Errorf("unexpected url %q", url)
	}
	var result lifecycle.Verification
	if err := json.Unmarshal([]byte(h.mustRun("verify", url)), &result); err != nil {
		t.Fatalf("could not decode verification: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid credential, got %+v", result)
	}
	if err := json.Unmarshal([]byte(h.mustRun("verify", "0xB0B", credential.ID)), &result); err != nil {
		t.Fatalf("could not decode verification: %v", err)
	}
	if result.Valid || result.Reason != lifecycle.ReasonWrongHolder {
		t.Errorf("expected wrong holder, got %+v", result)
	}

	png := filepath.Join(t.TempDir(), "qr.png")
	h.mustRun("qr", credential.ID, "--out", png)
	if data, err := os.ReadFile(png); err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("expected png file, err: %v", err)
	}

	h.mustRun("logout")
	if _, err := h.run("credentials"); err == nil {
		t.Error("expected credentials to require a session")
	}
}

func TestExportImportMigrate(t *testing.T) {
	h := newHarness(t)
	h.mustRun(
		"register", "student", "--name", "Alice", "--email", "alice@uni.edu", "--wallet", "0xA11CE",
	)
	export := filepath.Join(t.TempDir(), "export.yaml")
	h.mustRun("export", "--format", "yaml", "--out", export)

	other := newHarness(t)
	out := other.mustRun("import", "--format", "yaml", "--in", export)
	if !strings.Contains(out, "Imported 1 users") {
		t.Errorf("unexpected import output %q", out)
	}
	other.mustRun("signin", "student", "--email", "alice@uni.edu", "--wallet", "0xA11CE")

	target := newHarness(t)
	h.mustRun("migrate", "--to", target.config)
	target.mustRun("signin", "student", "--email", "alice@uni.edu", "--wallet", "0xA11CE")

	if _, err := h.run("export", "--format", "xml"); err == nil {
		t.Error("expected unsupported format to fail")
	}
}
