package challenge

import (
	"context"
	"crypto"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/keys"
	"github.com/cpu/acmefetch/acme/resources"
)

const (
	// DefaultTLSSNIKeyPath is the default file the manual solver writes
	// a generated tls-sni-01 validation key to.
	DefaultTLSSNIKeyPath = "tlssni.key"
	// DefaultTLSSNICertPath is the default file the manual solver writes
	// a generated tls-sni-01 validation certificate to.
	DefaultTLSSNICertPath = "tlssni.crt"
)

// Manual is a solver that relies on the operator to publish challenge
// response material out of band. Prepare computes the response for a
// challenge and returns human readable instructions describing what must be
// put in place before validation is triggered. For tls-sni-01 challenges the
// validation keypair and certificate are generated and written to disk so
// the operator only has to configure their TLS server to use them.
type Manual struct {
	// Signer is the account keypair used to compute key authorizations.
	Signer crypto.Signer
	// TLSKeyPath is where a generated tls-sni-01 validation key is written.
	// If empty DefaultTLSSNIKeyPath is used.
	TLSKeyPath string
	// TLSCertPath is where a generated tls-sni-01 validation certificate is
	// written. If empty DefaultTLSSNICertPath is used.
	TLSCertPath string
}

// Prepare computes the response material for the given challenge and
// returns instructions the operator must carry out before validation.
func (m *Manual) Prepare(_ context.Context, domain string, chall *resources.Challenge) (string, error) {
	keyAuth := keys.KeyAuth(m.Signer, chall.Token)

	switch chall.Type {
	case acme.ChallengeHTTP01:
		var b strings.Builder
		fmt.Fprintf(&b, "Please create a file in your web server's base directory.\n")
		fmt.Fprintf(&b, "It must be reachable at: http://%s%s\n", domain, HTTPPath(chall.Token))
		fmt.Fprintf(&b, "File name: %s\n", chall.Token)
		fmt.Fprintf(&b, "Content: %s\n", keyAuth)
		fmt.Fprintf(&b, "The file must not contain any leading or trailing whitespace.\n")
		return b.String(), nil
	case acme.ChallengeDNS01:
		var b strings.Builder
		fmt.Fprintf(&b, "Please create a TXT record:\n")
		fmt.Fprintf(&b, "%s. IN TXT %q\n", DNSRecordName(domain), DNSDigest(keyAuth))
		fmt.Fprintf(&b, "The record must be visible to the ACME server's resolvers before you continue.\n")
		return b.String(), nil
	case acme.ChallengeTLSSNI01:
		keyPath, certPath := m.TLSKeyPath, m.TLSCertPath
		if keyPath == "" {
			keyPath = DefaultTLSSNIKeyPath
		}
		if certPath == "" {
			certPath = DefaultTLSSNICertPath
		}

		validationKey, der, err := SelfSignedTLSSNI(keyAuth)
		if err != nil {
			return "", fmt.Errorf("unable to generate tls-sni-01 validation certificate: %s", err)
		}
		keyPEM, err := keys.SignerToPEM(validationKey)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
			return "", fmt.Errorf("unable to write tls-sni-01 validation key to %q: %s", keyPath, err)
		}
		certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
		if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
			return "", fmt.Errorf("unable to write tls-sni-01 validation certificate to %q: %s", certPath, err)
		}
		log.Printf("Wrote tls-sni-01 validation key to %q and certificate to %q\n",
			keyPath, certPath)

		var b strings.Builder
		fmt.Fprintf(&b, "Please configure your TLS server for %s so that connections\n", domain)
		fmt.Fprintf(&b, "with the SNI name %q are served the certificate in %q\n",
			TLSSNISubject(keyAuth), certPath)
		fmt.Fprintf(&b, "using the private key in %q.\n", keyPath)
		return b.String(), nil
	}

	return "", fmt.Errorf("no manual instructions for challenge type %q", chall.Type)
}

// Cleanup is a no-op for the manual solver. Removing the published response
// material is left to the operator.
func (m *Manual) Cleanup(_ context.Context, _ string, _ *resources.Challenge) error {
	return nil
}
