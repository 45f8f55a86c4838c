package issuer

import (
	"context"
	"log"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/resources"
)

// FindChallenge scans an authorization's challenge set for the entry whose
// type matches challType. Each type appears at most once per authorization
// so no disambiguation is needed. The second return value is false when the
// authorization offers no challenge of the requested type; absence is not
// an error at this level.
func FindChallenge(authz *resources.Authorization, challType string) (*resources.Challenge, bool) {
	for i := range authz.Challenges {
		if authz.Challenges[i].Type == challType {
			return &authz.Challenges[i], true
		}
	}
	return nil, false
}

// DomainAuthorizer proves control of one domain at a time: it requests
// a fresh authorization, publishes the response for the configured
// challenge type, and drives the challenge to a terminal status.
type DomainAuthorizer struct {
	Authz         AuthorizationService
	Solver        Solver
	Interaction   UserInteraction
	Poller        *ChallengePoller
	ChallengeType string
}

// Authorize obtains a valid authorization for the given domain. An
// authorization or challenge that is already valid short-circuits the run
// with no response material published and no validation triggered. If the
// solver reports manual instructions they are confirmed with the operator
// before validation begins; declining cancels the authorization.
func (a *DomainAuthorizer) Authorize(ctx context.Context, domain string) error {
	authz, err := a.Authz.NewAuthorization(ctx, domain)
	if err != nil {
		return err
	}
	if authz.Status == acme.StatusValid {
		log.Printf("Authorization for %q is already valid\n", domain)
		return nil
	}

	chall, found := FindChallenge(authz, a.ChallengeType)
	if !found {
		return &UnsupportedChallengeTypeError{
			Domain:        domain,
			ChallengeType: a.ChallengeType,
		}
	}
	if chall.Status == acme.StatusValid {
		log.Printf("%q challenge for %q is already valid\n", chall.Type, domain)
		return nil
	}

	instructions, err := a.Solver.Prepare(ctx, domain, chall)
	if err != nil {
		return &AuthorizationError{Domain: domain, Err: err}
	}
	defer func() {
		if err := a.Solver.Cleanup(ctx, domain, chall); err != nil {
			log.Printf("Cleaning up %q challenge response for %q failed: %s\n",
				chall.Type, domain, err)
		}
	}()

	if instructions != "" {
		accepted, err := a.Interaction.Confirm(instructions)
		if err != nil {
			return err
		}
		if !accepted {
			return &AuthorizationError{Domain: domain, Err: ErrUserCancelled}
		}
	}

	return a.Poller.Drive(ctx, domain, chall)
}
