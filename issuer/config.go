package issuer

import (
	"time"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/keys"
)

const (
	// DefaultPollMaxAttempts is the number of times a challenge's status is
	// re-fetched before polling gives up.
	DefaultPollMaxAttempts = 10
	// DefaultPollInterval is how long polling waits between status fetches.
	DefaultPollInterval = 3 * time.Second
)

// Config holds the issuance run parameters.
type Config struct {
	// ChallengeType selects which challenge type is solved for each domain.
	// If empty http-01 is used.
	ChallengeType string
	// KeySize of generated RSA keys, for key providers that honor it. If
	// zero keys.DefaultRSAKeySize is used.
	KeySize int
	// PollMaxAttempts caps how many times a challenge's status is
	// re-fetched. If zero DefaultPollMaxAttempts is used.
	PollMaxAttempts int
	// PollInterval is the fixed wait between status fetches. If zero
	// DefaultPollInterval is used.
	PollInterval time.Duration
}

func (c *Config) normalize() {
	if c.ChallengeType == "" {
		c.ChallengeType = acme.ChallengeHTTP01
	}
	if c.KeySize == 0 {
		c.KeySize = keys.DefaultRSAKeySize
	}
	if c.PollMaxAttempts == 0 {
		c.PollMaxAttempts = DefaultPollMaxAttempts
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}
