package issuer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/resources"
)

func testPoller(authz *stubAuthzService) *ChallengePoller {
	return &ChallengePoller{
		Authz:       authz,
		MaxAttempts: DefaultPollMaxAttempts,
		Interval:    time.Millisecond,
	}
}

func pendingChallenge(domain string) *resources.Challenge {
	return &resources.Challenge{
		Type:   acme.ChallengeHTTP01,
		URL:    "https://acme.example.com/chall/" + domain + "/http-01",
		Token:  "token-" + domain,
		Status: acme.StatusPending,
	}
}

func TestDriveAlreadyValid(t *testing.T) {
	authz := newStubAuthzService()
	poller := testPoller(authz)

	chall := pendingChallenge("example.com")
	chall.Status = acme.StatusValid

	err := poller.Drive(context.Background(), "example.com", chall)
	require.NoError(t, err)
	// a valid challenge completes with no requests at all
	require.Equal(t, 0, authz.triggerCalls)
	require.Equal(t, 0, authz.updateCalls)
}

func TestDriveTriggerResponseValid(t *testing.T) {
	authz := newStubAuthzService()
	authz.triggerStatus = acme.StatusValid
	poller := testPoller(authz)

	err := poller.Drive(context.Background(), "example.com", pendingChallenge("example.com"))
	require.NoError(t, err)
	require.Equal(t, 1, authz.triggerCalls)
	require.Equal(t, 0, authz.updateCalls)
}

func TestDriveSuccess(t *testing.T) {
	authz := newStubAuthzService()
	poller := testPoller(authz)

	chall := pendingChallenge("example.com")
	authz.challDomain[chall] = "example.com"
	authz.scripts["example.com"] = []string{acme.StatusPending, acme.StatusValid}

	err := poller.Drive(context.Background(), "example.com", chall)
	require.NoError(t, err)
	require.Equal(t, 1, authz.triggerCalls)
	require.Equal(t, 2, authz.updateCalls)
	require.Equal(t, acme.StatusValid, chall.Status)
}

func TestDriveInvalidFailsFast(t *testing.T) {
	authz := newStubAuthzService()
	poller := testPoller(authz)

	chall := pendingChallenge("example.com")
	authz.challDomain[chall] = "example.com"
	authz.scripts["example.com"] = []string{acme.StatusPending, acme.StatusInvalid}

	err := poller.Drive(context.Background(), "example.com", chall)
	require.Error(t, err)

	var invalidErr *ChallengeInvalidError
	require.True(t, errors.As(err, &invalidErr))
	require.Equal(t, "example.com", invalidErr.Domain)
	require.Equal(t, acme.ChallengeHTTP01, invalidErr.ChallengeType)
	require.NotNil(t, invalidErr.Detail)
	// the invalid status must abort polling immediately, not exhaust the
	// attempt budget
	require.Equal(t, 2, authz.updateCalls)
}

func TestDriveTimeout(t *testing.T) {
	authz := newStubAuthzService()
	poller := testPoller(authz)

	// no script: the challenge stays pending on every refresh
	chall := pendingChallenge("example.com")
	err := poller.Drive(context.Background(), "example.com", chall)
	require.Error(t, err)

	var timeoutErr *ChallengeTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	require.Equal(t, "example.com", timeoutErr.Domain)
	require.Equal(t, DefaultPollMaxAttempts, timeoutErr.Attempts)
	require.Equal(t, DefaultPollMaxAttempts, authz.updateCalls)
}

func TestDriveCancelled(t *testing.T) {
	authz := newStubAuthzService()
	poller := &ChallengePoller{
		Authz:       authz,
		MaxAttempts: DefaultPollMaxAttempts,
		Interval:    time.Minute,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := poller.Drive(ctx, "example.com", pendingChallenge("example.com"))
	require.ErrorIs(t, err, context.Canceled)

	var timeoutErr *ChallengeTimeoutError
	require.False(t, errors.As(err, &timeoutErr))
	// cancellation lands between wait and re-fetch, never mid-request
	require.Equal(t, 0, authz.updateCalls)
}

func TestDriveTriggerError(t *testing.T) {
	authz := newStubAuthzService()
	authz.triggerErr = errors.New("bad nonce")
	poller := testPoller(authz)

	err := poller.Drive(context.Background(), "example.com", pendingChallenge("example.com"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad nonce")
	require.Equal(t, 0, authz.updateCalls)
}
