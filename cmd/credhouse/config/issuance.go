package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"
)

// issuanceConf configures credential issuance.
//
// YAML example:
//
//	issuance:
//	  mint_delay: 2s
type issuanceConf struct {
	// MintDelay is the time minting a credential takes. Approve and mint
	// wait for it before anything is written.
	MintDelay duration.DurationOption `yaml:"mint_delay"`
}

var defaultIssuanceConf = issuanceConf{
	MintDelay: duration.DurationOption(2 * time.Second),
}

func (c issuanceConf) validate() error {
	if c.MintDelay.Duration() < 0 {
		return errors.New("mint_delay must not be negative")
	}
	return nil
}
