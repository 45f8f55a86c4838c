// Package challenge implements response material construction and solvers
// for the ACME challenge types http-01, dns-01 and tls-sni-01.
package challenge

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/cpu/acmefetch/acme"
)

// HTTPPathPrefix is the well-known HTTP path prefix that http-01 challenge
// responses must be served under.
// See https://tools.ietf.org/html/rfc8555#section-8.3
const HTTPPathPrefix = "/.well-known/acme-challenge/"

// DNSRecordPrefix is the label prepended to a domain to form the name of the
// TXT record that dns-01 challenge responses are provisioned at.
// See https://tools.ietf.org/html/rfc8555#section-8.4
const DNSRecordPrefix = "_acme-challenge."

// HTTPPath returns the URL path an http-01 response for the given challenge
// token must be served at.
func HTTPPath(token string) string {
	return HTTPPathPrefix + token
}

// DNSRecordName returns the fully qualified name of the TXT record a dns-01
// response for the given domain must be provisioned at.
func DNSRecordName(domain string) string {
	return DNSRecordPrefix + domain
}

// DNSDigest returns the value of the TXT record for a dns-01 challenge
// response: the base64url encoding of the SHA-256 digest of the key
// authorization.
func DNSDigest(keyAuth string) string {
	digest := sha256.Sum256([]byte(keyAuth))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// TLSSNISubject returns the subject name a tls-sni-01 validation certificate
// must carry as a DNSName SAN. It is derived from the hex encoding of the
// SHA-256 digest of the key authorization, split into two 32 character
// labels under the reserved "acme.invalid" domain.
func TLSSNISubject(keyAuth string) string {
	digest := sha256.Sum256([]byte(keyAuth))
	hexDigest := hex.EncodeToString(digest[:])
	return fmt.Sprintf("%s.%s.acme.invalid", hexDigest[0:32], hexDigest[32:64])
}

// SelfSignedTLSSNI generates a fresh keypair and a short-lived self-signed
// certificate carrying the tls-sni-01 subject for the given key
// authorization as its only DNSName. The certificate is returned in DER
// form along with the generated key.
func SelfSignedTLSSNI(keyAuth string) (crypto.Signer, []byte, error) {
	signer, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	subject := TLSSNISubject(keyAuth)
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: subject,
		},
		DNSNames:              []string{subject},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, signer.Public(), signer)
	if err != nil {
		return nil, nil, err
	}
	return signer, der, nil
}

// Supported returns true if the given challenge type has a solver
// implementation in this package.
func Supported(challType string) bool {
	switch challType {
	case acme.ChallengeHTTP01, acme.ChallengeDNS01, acme.ChallengeTLSSNI01:
		return true
	}
	return false
}
