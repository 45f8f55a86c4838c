package challenge

import (
	"context"
	"crypto"
	"fmt"
	"log"
	"os"

	"github.com/letsencrypt/challtestsrv"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/keys"
	"github.com/cpu/acmefetch/acme/resources"
)

// Auto is a solver that publishes challenge responses on embedded test
// servers instead of asking the operator to do it. It runs a challenge
// response server that answers http-01 requests and dns-01 TXT queries for
// whatever challenges have been prepared. It is intended for use against
// a local ACME server (e.g. Pebble) whose validation traffic can be pointed
// at the embedded servers.
//
// tls-sni-01 challenges are not supported; use the manual solver for those.
type Auto struct {
	// Signer is the account keypair used to compute key authorizations.
	Signer crypto.Signer

	dnsAddr string
	srv     *challtestsrv.ChallSrv
}

// NewAuto creates an Auto solver with response servers listening on the
// given HTTP and DNS addresses and starts them. Callers must Shutdown the
// solver when issuance is complete.
func NewAuto(signer crypto.Signer, httpAddr string, dnsAddr string) (*Auto, error) {
	if signer == nil {
		return nil, fmt.Errorf("auto solver: signer must not be nil")
	}
	srv, err := challtestsrv.New(challtestsrv.Config{
		HTTPOneAddrs: []string{httpAddr},
		DNSOneAddrs:  []string{dnsAddr},
		Log:          log.New(os.Stdout, "challsrv: ", log.LstdFlags),
	})
	if err != nil {
		return nil, fmt.Errorf("auto solver: unable to create challenge response server: %s", err)
	}
	go srv.Run()
	log.Printf("Challenge response servers running (http-01: %q, dns-01: %q)\n",
		httpAddr, dnsAddr)
	return &Auto{Signer: signer, dnsAddr: dnsAddr, srv: srv}, nil
}

// Prepare publishes the response for the given challenge on the embedded
// servers. No operator instructions are returned since nothing manual
// remains to be done. For dns-01 challenges the provisioned TXT record is
// queried back from the embedded DNS server before returning so that a
// misconfigured listener fails here rather than at validation time.
func (a *Auto) Prepare(_ context.Context, domain string, chall *resources.Challenge) (string, error) {
	keyAuth := keys.KeyAuth(a.Signer, chall.Token)

	switch chall.Type {
	case acme.ChallengeHTTP01:
		a.srv.AddHTTPOneChallenge(chall.Token, keyAuth)
		log.Printf("Serving http-01 response for %q at %q\n", domain, HTTPPath(chall.Token))
		return "", nil
	case acme.ChallengeDNS01:
		host := DNSRecordName(domain) + "."
		a.srv.AddDNSOneChallenge(host, keyAuth)
		if err := VerifyTXT(a.dnsAddr, host, DNSDigest(keyAuth)); err != nil {
			return "", fmt.Errorf("dns-01 response for %q was provisioned but is not resolvable: %s",
				domain, err)
		}
		log.Printf("Serving dns-01 response for %q at %q\n", domain, host)
		return "", nil
	}

	return "", fmt.Errorf("auto solver does not support challenge type %q", chall.Type)
}

// Cleanup removes the response for the given challenge from the embedded
// servers.
func (a *Auto) Cleanup(_ context.Context, domain string, chall *resources.Challenge) error {
	switch chall.Type {
	case acme.ChallengeHTTP01:
		a.srv.DeleteHTTPOneChallenge(chall.Token)
	case acme.ChallengeDNS01:
		a.srv.DeleteDNSOneChallenge(DNSRecordName(domain) + ".")
	}
	return nil
}

// Shutdown stops the embedded challenge response servers.
func (a *Auto) Shutdown() {
	a.srv.Shutdown()
}
