// Package issuer orchestrates end-to-end ACME certificate issuance: account
// resolution, per-domain authorization, challenge polling, and finally
// certificate request and download. The ACME wire operations themselves are
// provided by collaborator interfaces so the orchestration can be exercised
// against scripted implementations.
package issuer

import (
	"context"
	"crypto"
	"fmt"
	"log"

	"github.com/cpu/acmefetch/acme/client"
	"github.com/cpu/acmefetch/acme/resources"
)

// AccountService is the subset of ACME account operations the issuer
// depends on. It is implemented by *client.Client.
type AccountService interface {
	// RegisterAccount attempts registration and reports whether a new
	// account was created or the key was already registered.
	RegisterAccount(ctx context.Context) (*client.RegistrationResult, error)
	// BindAccount attaches to an existing account by its location URL.
	BindAccount(ctx context.Context, location string) (*resources.Account, error)
	// AcceptAgreement commits acceptance of the service agreement.
	AcceptAgreement(ctx context.Context, acct *resources.Account) error
	// AgreementURL returns the server's current service agreement URL, or
	// an empty string if the server does not advertise one.
	AgreementURL(ctx context.Context) (string, error)
}

// AuthorizationService is the subset of ACME authorization and challenge
// operations the issuer depends on. It is implemented by *client.Client.
type AuthorizationService interface {
	NewAuthorization(ctx context.Context, domain string) (*resources.Authorization, error)
	TriggerChallenge(ctx context.Context, chall *resources.Challenge) error
	UpdateChallenge(ctx context.Context, chall *resources.Challenge) error
}

// CertificateService is the subset of ACME certificate operations the
// issuer depends on. It is implemented by *client.Client.
type CertificateService interface {
	RequestCertificate(ctx context.Context, csr []byte) (*resources.Certificate, error)
	DownloadCertificate(ctx context.Context, cert *resources.Certificate) error
}

// KeyProvider loads or creates the private key to certify. It is
// implemented by *keys.FileStore.
type KeyProvider interface {
	LoadOrGenerate(identifier string) (crypto.Signer, error)
}

// CSRBuilder builds the DER encoded signing request covering a key and the
// full domain set. client.CSR is the standard implementation.
type CSRBuilder func(signer crypto.Signer, domains []string) ([]byte, error)

// CertificateStore persists issuance artifacts: the signing request and the
// downloaded certificate.
type CertificateStore interface {
	WriteCSR(der []byte) error
	WriteChain(cert *resources.Certificate) error
}

// UserInteraction presents instructions to the operator and reports whether
// they accepted them. It is used both for service agreement acceptance and
// for confirming that manually published challenge responses are in place.
type UserInteraction interface {
	Confirm(instructions string) (bool, error)
}

// Solver publishes challenge response material before validation is
// triggered. Prepare returns operator instructions when manual action
// remains to be carried out, or an empty string when the response was
// published automatically.
type Solver interface {
	Prepare(ctx context.Context, domain string, chall *resources.Challenge) (string, error)
	Cleanup(ctx context.Context, domain string, chall *resources.Challenge) error
}

// Issuer coordinates a complete issuance run across its collaborators.
type Issuer struct {
	Accounts    AccountService
	Authz       AuthorizationService
	Certs       CertificateService
	Keys        KeyProvider
	Store       CertificateStore
	Interaction UserInteraction
	Solver      Solver
	// CSR builds the signing request. If nil client.CSR is used.
	CSR    CSRBuilder
	Config Config
}

// Issue resolves the account, authorizes every requested domain in order,
// and requests and downloads a certificate covering all of them. Domains
// are authorized one at a time; the first failed authorization aborts the
// run and no signing request is submitted. The downloaded certificate is
// written to the issuer's store before being returned.
func (i *Issuer) Issue(ctx context.Context, domains []string) (*resources.Certificate, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("issue: no domains specified")
	}
	cfg := i.Config
	cfg.normalize()

	resolver := &AccountResolver{
		Accounts:    i.Accounts,
		Interaction: i.Interaction,
	}
	acct, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Issuing with account %q\n", acct.ID)

	authorizer := &DomainAuthorizer{
		Authz:         i.Authz,
		Solver:        i.Solver,
		Interaction:   i.Interaction,
		ChallengeType: cfg.ChallengeType,
		Poller: &ChallengePoller{
			Authz:       i.Authz,
			MaxAttempts: cfg.PollMaxAttempts,
			Interval:    cfg.PollInterval,
		},
	}
	for _, domain := range domains {
		if err := authorizer.Authorize(ctx, domain); err != nil {
			return nil, err
		}
	}

	certKey, err := i.Keys.LoadOrGenerate(domains[0])
	if err != nil {
		return nil, err
	}

	buildCSR := i.CSR
	if buildCSR == nil {
		buildCSR = client.CSR
	}
	csr, err := buildCSR(certKey, domains)
	if err != nil {
		return nil, err
	}
	if err := i.Store.WriteCSR(csr); err != nil {
		return nil, err
	}

	cert, err := i.Certs.RequestCertificate(ctx, csr)
	if err != nil {
		return nil, err
	}
	if err := i.Certs.DownloadCertificate(ctx, cert); err != nil {
		return nil, err
	}

	if err := i.Store.WriteChain(cert); err != nil {
		return nil, err
	}
	return cert, nil
}
