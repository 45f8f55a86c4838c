package issuer

import (
	"errors"
	"fmt"

	"github.com/cpu/acmefetch/acme/resources"
)

var (
	// ErrAgreementDeclined is returned when the operator refuses the
	// server's service agreement for a newly registered account. The
	// account still exists server-side but cannot be used for issuance.
	ErrAgreementDeclined = errors.New("service agreement was declined")

	// ErrUserCancelled is returned when the operator declines at
	// a confirmation point other than the service agreement.
	ErrUserCancelled = errors.New("cancelled by user")
)

// UnsupportedChallengeTypeError indicates that a domain's authorization
// offered no challenge of the configured type.
type UnsupportedChallengeTypeError struct {
	Domain        string
	ChallengeType string
}

func (e *UnsupportedChallengeTypeError) Error() string {
	return fmt.Sprintf("authorization for %q offers no %q challenge",
		e.Domain, e.ChallengeType)
}

// ChallengeInvalidError indicates the ACME server rejected a challenge's
// validation. Detail carries the server's problem document when one was
// provided.
type ChallengeInvalidError struct {
	Domain        string
	ChallengeType string
	Detail        *resources.Problem
}

func (e *ChallengeInvalidError) Error() string {
	msg := fmt.Sprintf("%q challenge for %q became invalid", e.ChallengeType, e.Domain)
	if e.Detail != nil && e.Detail.Detail != "" {
		msg += fmt.Sprintf(": %s", e.Detail.Detail)
	}
	return msg
}

// ChallengeTimeoutError indicates a challenge never left the pending state
// within the configured polling budget.
type ChallengeTimeoutError struct {
	Domain        string
	ChallengeType string
	Attempts      int
}

func (e *ChallengeTimeoutError) Error() string {
	return fmt.Sprintf("%q challenge for %q was still pending after %d poll attempts",
		e.ChallengeType, e.Domain, e.Attempts)
}

// AuthorizationError wraps a failure that occurred while authorizing
// a specific domain.
type AuthorizationError struct {
	Domain string
	Err    error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization for %q failed: %s", e.Domain, e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}
