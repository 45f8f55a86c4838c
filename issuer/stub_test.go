package issuer

import (
	"context"
	"crypto"
	"fmt"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/client"
	"github.com/cpu/acmefetch/acme/keys"
	"github.com/cpu/acmefetch/acme/resources"
)

// stubAccountService scripts account operations for resolver tests.
type stubAccountService struct {
	registerResult *client.RegistrationResult
	registerErr    error

	agreementURL string

	acceptErr   error
	acceptCalls int

	boundAccount *resources.Account
	bindCalls    int
	bindLocation string
}

func (s *stubAccountService) RegisterAccount(_ context.Context) (*client.RegistrationResult, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAccountService) BindAccount(_ context.Context, location string) (*resources.Account, error) {
	s.bindCalls++
	s.bindLocation = location
	if s.boundAccount == nil {
		return nil, fmt.Errorf("no account at %q", location)
	}
	return s.boundAccount, nil
}

func (s *stubAccountService) AcceptAgreement(_ context.Context, acct *resources.Account) error {
	s.acceptCalls++
	if s.acceptErr != nil {
		return s.acceptErr
	}
	acct.TermsAgreed = true
	return nil
}

func (s *stubAccountService) AgreementURL(_ context.Context) (string, error) {
	return s.agreementURL, nil
}

// stubAuthzService scripts per-domain challenge lifecycles. Each domain gets
// a fresh pending authorization offering the challenge types named in
// challTypes. TriggerChallenge applies triggerStatus (pending when unset)
// and each UpdateChallenge applies the next status from the domain's
// script; a challenge whose script has run out stays pending.
type stubAuthzService struct {
	challTypes    []string
	scripts       map[string][]string
	triggerStatus string
	triggerErr    error
	authzStatus   map[string]string
	challStatus   map[string]string

	newAuthzCalls int
	triggerCalls  int
	updateCalls   int

	challDomain map[*resources.Challenge]string
	challCursor map[*resources.Challenge]int
}

func newStubAuthzService(challTypes ...string) *stubAuthzService {
	if len(challTypes) == 0 {
		challTypes = []string{acme.ChallengeHTTP01}
	}
	return &stubAuthzService{
		challTypes:  challTypes,
		scripts:     map[string][]string{},
		authzStatus: map[string]string{},
		challStatus: map[string]string{},
		challDomain: map[*resources.Challenge]string{},
		challCursor: map[*resources.Challenge]int{},
	}
}

func (s *stubAuthzService) NewAuthorization(_ context.Context, domain string) (*resources.Authorization, error) {
	s.newAuthzCalls++
	authzStatus := s.authzStatus[domain]
	if authzStatus == "" {
		authzStatus = acme.StatusPending
	}
	challStatus := s.challStatus[domain]
	if challStatus == "" {
		challStatus = acme.StatusPending
	}

	authz := &resources.Authorization{
		ID:     fmt.Sprintf("https://acme.example.com/authz/%s", domain),
		Status: authzStatus,
		Identifier: resources.Identifier{
			Type:  "dns",
			Value: domain,
		},
	}
	for _, challType := range s.challTypes {
		authz.Challenges = append(authz.Challenges, resources.Challenge{
			Type:   challType,
			URL:    fmt.Sprintf("https://acme.example.com/chall/%s/%s", domain, challType),
			Token:  "token-" + domain,
			Status: challStatus,
		})
	}
	for i := range authz.Challenges {
		s.challDomain[&authz.Challenges[i]] = domain
	}
	return authz, nil
}

func (s *stubAuthzService) TriggerChallenge(_ context.Context, chall *resources.Challenge) error {
	s.triggerCalls++
	if s.triggerErr != nil {
		return s.triggerErr
	}
	if s.triggerStatus != "" {
		chall.Status = s.triggerStatus
	} else {
		chall.Status = acme.StatusPending
	}
	return nil
}

func (s *stubAuthzService) UpdateChallenge(_ context.Context, chall *resources.Challenge) error {
	s.updateCalls++
	domain := s.challDomain[chall]
	script := s.scripts[domain]
	cursor := s.challCursor[chall]
	if cursor < len(script) {
		chall.Status = script[cursor]
		if chall.Status == acme.StatusInvalid {
			chall.Error = &resources.Problem{
				Type:   "urn:ietf:params:acme:error:unauthorized",
				Detail: fmt.Sprintf("validation failed for %q", domain),
				Status: 403,
			}
		}
		s.challCursor[chall] = cursor + 1
	}
	return nil
}

// stubCertService records certificate requests and serves a fixed bundle.
type stubCertService struct {
	requestCalls  int
	downloadCalls int
	csr           []byte
	leaf          []byte
	chain         [][]byte
}

func (s *stubCertService) RequestCertificate(_ context.Context, csr []byte) (*resources.Certificate, error) {
	s.requestCalls++
	s.csr = csr
	return &resources.Certificate{ID: "https://acme.example.com/cert/1234"}, nil
}

func (s *stubCertService) DownloadCertificate(_ context.Context, cert *resources.Certificate) error {
	s.downloadCalls++
	cert.Leaf = s.leaf
	cert.Chain = s.chain
	return nil
}

// stubSolver counts Prepare/Cleanup calls and returns fixed instructions.
type stubSolver struct {
	instructions string
	prepareErr   error
	prepareCalls int
	cleanupCalls int
}

func (s *stubSolver) Prepare(_ context.Context, _ string, _ *resources.Challenge) (string, error) {
	s.prepareCalls++
	return s.instructions, s.prepareErr
}

func (s *stubSolver) Cleanup(_ context.Context, _ string, _ *resources.Challenge) error {
	s.cleanupCalls++
	return nil
}

// stubInteraction answers every Confirm with a fixed response and records
// the prompts it was shown.
type stubInteraction struct {
	accept  bool
	prompts []string
}

func (s *stubInteraction) Confirm(instructions string) (bool, error) {
	s.prompts = append(s.prompts, instructions)
	return s.accept, nil
}

// stubKeyProvider serves one generated key for every identifier.
type stubKeyProvider struct {
	signer crypto.Signer
	calls  int
}

func newStubKeyProvider() (*stubKeyProvider, error) {
	signer, err := keys.NewSigner("ecdsa", 0)
	if err != nil {
		return nil, err
	}
	return &stubKeyProvider{signer: signer}, nil
}

func (s *stubKeyProvider) LoadOrGenerate(_ string) (crypto.Signer, error) {
	s.calls++
	return s.signer, nil
}

// stubCertStore records the artifacts it was asked to persist.
type stubCertStore struct {
	written *resources.Certificate
	csr     []byte
	calls   int
}

func (s *stubCertStore) WriteCSR(der []byte) error {
	s.csr = der
	return nil
}

func (s *stubCertStore) WriteChain(cert *resources.Certificate) error {
	s.calls++
	s.written = cert
	return nil
}
