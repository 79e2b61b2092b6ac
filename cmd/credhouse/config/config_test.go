package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/credhouse/credhouse/storage"
)

func TestParseDefaults(t *testing.T) {
	conf, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Server.Port != 8765 {
		t.Errorf("expected default port, got %d", conf.Server.Port)
	}
	if conf.Storage.Driver != storage.DriverBadger || conf.Storage.DataDir != "data" {
		t.Errorf("unexpected storage defaults %+v", conf.Storage)
	}
	if conf.Issuance.MintDelay.Duration() != 2*time.Second {
		t.Errorf("unexpected mint delay %v", conf.Issuance.MintDelay.Duration())
	}
	if conf.Logging.Internal.Level != "INFO" {
		t.Errorf("unexpected log level %q", conf.Logging.Internal.Level)
	}
}

func TestParse(t *testing.T) {
	data := `
server:
  port: 9000
  public_url: https://credentials.example.org
storage:
  driver: postgres
  host: db
  password: secret
logging:
  internal:
    level: debug
issuance:
  mint_delay: 0s
unknown_section: true
`
	conf, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Server.Port != 9000 || conf.Server.PublicURL != "https://credentials.example.org" {
		t.Errorf("unexpected server conf %+v", conf.Server)
	}
	if !strings.Contains(conf.Storage.DSN, "host=db") || !strings.Contains(conf.Storage.DSN, "dbname=credhouse") {
		t.Errorf("dsn not built from defaults and overrides: %q", conf.Storage.DSN)
	}
	if conf.Issuance.MintDelay.Duration() != 0 {
		t.Errorf("expected no mint delay, got %v", conf.Issuance.MintDelay.Duration())
	}
	if got := conf.Storage.StorageConfig(); got.Driver != storage.DriverPostgres || got.DSN != conf.Storage.DSN {
		t.Errorf("unexpected storage config %+v", got)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"public url", "server:\n  public_url: credentials\n"},
		{"tls without cert", "server:\n  tls:\n    enabled: true\n"},
		{"redis without addr", "storage:\n  driver: redis\n"},
		{"unsupported driver", "storage:\n  driver: oracle\n"},
		{"badger without dir", "storage:\n  data_dir: \"\"\n"},
		{"log level", "logging:\n  internal:\n    level: loud\n"},
		{"missing log dir", "logging:\n  access:\n    dir: /does/not/exist/credhouse\n"},
		{"syntax", "server: [\n"},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				if _, err := Parse([]byte(test.data)); err == nil {
					t.Error("expected error")
				}
			},
		)
	}
}

func TestParseInMemoryBadger(t *testing.T) {
	conf, err := Parse([]byte("storage:\n  data_dir: \"\"\n  in_memory: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.Storage.StorageConfig().InMemory {
		t.Error("expected in-memory storage")
	}
}

func TestLoadFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	conf, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Server.Port != 8080 {
		t.Errorf("unexpected port %d", conf.Server.Port)
	}
}
