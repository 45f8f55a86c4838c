package challenge

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/keys"
	"github.com/cpu/acmefetch/acme/resources"
)

func TestHTTPPath(t *testing.T) {
	require.Equal(t,
		"/.well-known/acme-challenge/evaGxfADs6pSRb2LAv9IZf17Dt3juxGJ-PCt92wr-oA",
		HTTPPath("evaGxfADs6pSRb2LAv9IZf17Dt3juxGJ-PCt92wr-oA"))
}

func TestDNSRecordName(t *testing.T) {
	require.Equal(t, "_acme-challenge.example.com", DNSRecordName("example.com"))
}

func TestDNSDigest(t *testing.T) {
	keyAuth := "token.thumbprint"
	expected := sha256.Sum256([]byte(keyAuth))

	digest := DNSDigest(keyAuth)
	require.Equal(t, base64.RawURLEncoding.EncodeToString(expected[:]), digest)
	// base64url raw encoding of 32 bytes is always 43 characters, unpadded
	require.Len(t, digest, 43)
	require.NotContains(t, digest, "=")
}

func TestTLSSNISubject(t *testing.T) {
	subject := TLSSNISubject("token.thumbprint")
	require.True(t, strings.HasSuffix(subject, ".acme.invalid"))

	labels := strings.Split(subject, ".")
	require.Len(t, labels, 4)
	require.Len(t, labels[0], 32)
	require.Len(t, labels[1], 32)
}

func TestSelfSignedTLSSNI(t *testing.T) {
	keyAuth := "token.thumbprint"
	signer, der, err := SelfSignedTLSSNI(keyAuth)
	require.NoError(t, err)
	require.NotNil(t, signer)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	require.Equal(t, []string{TLSSNISubject(keyAuth)}, cert.DNSNames)
	require.Equal(t, TLSSNISubject(keyAuth), cert.Subject.CommonName)
}

func TestManualPrepareHTTP(t *testing.T) {
	signer, err := keys.NewSigner("ecdsa", 0)
	require.NoError(t, err)

	solver := &Manual{Signer: signer}
	chall := &resources.Challenge{
		Type:  acme.ChallengeHTTP01,
		Token: "LoqXcYV8q5ONbJQxbmR7SCTNo3tiAXDfowyjxAjEuX0",
	}

	instructions, err := solver.Prepare(context.Background(), "example.com", chall)
	require.NoError(t, err)

	keyAuth := keys.KeyAuth(signer, chall.Token)
	require.Contains(t, instructions, "http://example.com"+HTTPPath(chall.Token))
	require.Contains(t, instructions, keyAuth)
}

func TestManualPrepareDNS(t *testing.T) {
	signer, err := keys.NewSigner("ecdsa", 0)
	require.NoError(t, err)

	solver := &Manual{Signer: signer}
	chall := &resources.Challenge{
		Type:  acme.ChallengeDNS01,
		Token: "LoqXcYV8q5ONbJQxbmR7SCTNo3tiAXDfowyjxAjEuX0",
	}

	instructions, err := solver.Prepare(context.Background(), "example.com", chall)
	require.NoError(t, err)

	keyAuth := keys.KeyAuth(signer, chall.Token)
	require.Contains(t, instructions, DNSRecordName("example.com"))
	require.Contains(t, instructions, DNSDigest(keyAuth))
}

func TestManualPrepareTLSSNI(t *testing.T) {
	signer, err := keys.NewSigner("ecdsa", 0)
	require.NoError(t, err)

	dir := t.TempDir()
	solver := &Manual{
		Signer:      signer,
		TLSKeyPath:  filepath.Join(dir, "tlssni.key"),
		TLSCertPath: filepath.Join(dir, "tlssni.crt"),
	}
	chall := &resources.Challenge{
		Type:  acme.ChallengeTLSSNI01,
		Token: "LoqXcYV8q5ONbJQxbmR7SCTNo3tiAXDfowyjxAjEuX0",
	}

	instructions, err := solver.Prepare(context.Background(), "example.com", chall)
	require.NoError(t, err)

	keyAuth := keys.KeyAuth(signer, chall.Token)
	require.Contains(t, instructions, TLSSNISubject(keyAuth))

	for _, path := range []string{solver.TLSKeyPath, solver.TLSCertPath} {
		contents, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotEmpty(t, contents)
	}
}

func TestManualPrepareUnsupported(t *testing.T) {
	signer, err := keys.NewSigner("ecdsa", 0)
	require.NoError(t, err)

	solver := &Manual{Signer: signer}
	chall := &resources.Challenge{Type: "tls-alpn-01", Token: "xxxx"}

	_, err = solver.Prepare(context.Background(), "example.com", chall)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tls-alpn-01")
}

func TestSupported(t *testing.T) {
	require.True(t, Supported(acme.ChallengeHTTP01))
	require.True(t, Supported(acme.ChallengeDNS01))
	require.True(t, Supported(acme.ChallengeTLSSNI01))
	require.False(t, Supported("tls-alpn-01"))
}
