package config

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/credhouse/credhouse"
)

var defaultServerConf = credhouse.ServerConf{
	Port:      8765,
	PublicURL: "http://localhost:8765",
}

func validateServer(s credhouse.ServerConf) error {
	if s.Port <= 0 || s.Port > 65535 {
		return errors.Errorf("invalid port %d", s.Port)
	}
	if s.TLS.Enabled && (s.TLS.Cert == "" || s.TLS.Key == "") {
		return errors.New("tls is enabled but cert or key is missing")
	}
	if s.PublicURL == "" {
		return errors.New("public_url must be specified")
	}
	u, err := url.Parse(s.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("public_url '%s' is not an absolute url", s.PublicURL)
	}
	return nil
}
