package issuer

import (
	"context"
	"log"
	"time"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/resources"
)

// ChallengePoller drives one challenge to a terminal status: it triggers
// validation and then re-fetches the challenge on a fixed cadence until it
// settles, the attempt budget is exhausted, or the context is cancelled.
//
// The cadence is deliberately a fixed interval with a fixed attempt cap
// rather than a backoff: validation latency is server-controlled and
// typically completes within seconds, so a short fixed cadence bounds the
// worst-case wait while staying deterministic.
type ChallengePoller struct {
	Authz AuthorizationService
	// MaxAttempts caps how many times the challenge is re-fetched. If zero
	// DefaultPollMaxAttempts is used.
	MaxAttempts int
	// Interval is the wait between re-fetches. If zero DefaultPollInterval
	// is used.
	Interval time.Duration
}

// Drive runs the challenge to completion. A challenge that is already valid
// succeeds immediately with no requests made. Otherwise validation is
// triggered exactly once and the challenge is polled: an invalid status
// fails immediately with a ChallengeInvalidError, a valid status succeeds,
// and a challenge still pending once the attempt budget runs out fails
// with a ChallengeTimeoutError. Cancellation is checked between the wait
// and the re-fetch so a request is never left half-committed; a cancelled
// context surfaces as the context's own error, distinct from a timeout.
func (p *ChallengePoller) Drive(ctx context.Context, domain string, chall *resources.Challenge) error {
	if chall.Status == acme.StatusValid {
		return nil
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	interval := p.Interval
	if interval == 0 {
		interval = DefaultPollInterval
	}

	if err := p.Authz.TriggerChallenge(ctx, chall); err != nil {
		return err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		switch chall.Status {
		case acme.StatusValid:
			return nil
		case acme.StatusInvalid:
			return &ChallengeInvalidError{
				Domain:        domain,
				ChallengeType: chall.Type,
				Detail:        chall.Error,
			}
		}

		log.Printf("%q challenge for %q is %q, waiting %s before checking again (attempt %d/%d)\n",
			chall.Type, domain, chall.Status, interval, attempt, maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		if err := p.Authz.UpdateChallenge(ctx, chall); err != nil {
			return err
		}
	}

	switch chall.Status {
	case acme.StatusValid:
		return nil
	case acme.StatusInvalid:
		return &ChallengeInvalidError{
			Domain:        domain,
			ChallengeType: chall.Type,
			Detail:        chall.Error,
		}
	}
	return &ChallengeTimeoutError{
		Domain:        domain,
		ChallengeType: chall.Type,
		Attempts:      maxAttempts,
	}
}
