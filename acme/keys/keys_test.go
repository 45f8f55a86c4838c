package keys

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"strings"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

func TestNewSigner(t *testing.T) {
	ecKey, err := NewSigner("ecdsa", 0)
	require.NoError(t, err)
	require.IsType(t, &ecdsa.PrivateKey{}, ecKey)

	rsaKey, err := NewSigner("rsa", 0)
	require.NoError(t, err)
	require.Equal(t, DefaultRSAKeySize, rsaKey.(*rsa.PrivateKey).N.BitLen())

	_, err = NewSigner("ed25519", 0)
	require.Error(t, err)
}

func TestSigAlgForSigner(t *testing.T) {
	ecKey, err := NewSigner("ecdsa", 0)
	require.NoError(t, err)
	require.Equal(t, jose.ES256, SigAlgForSigner(ecKey))

	rsaKey, err := NewSigner("rsa", 1024)
	require.NoError(t, err)
	require.Equal(t, jose.RS256, SigAlgForSigner(rsaKey))
}

func TestKeyAuth(t *testing.T) {
	signer, err := NewSigner("ecdsa", 0)
	require.NoError(t, err)

	token := "evaGxfADs6pSRb2LAv9IZf17Dt3juxGJ-PCt92wr-oA"
	keyAuth := KeyAuth(signer, token)

	parts := strings.SplitN(keyAuth, ".", 2)
	require.Len(t, parts, 2)
	require.Equal(t, token, parts[0])
	require.Equal(t, JWKThumbprint(signer), parts[1])
	// a SHA-256 thumbprint is 43 characters of unpadded base64url
	require.Len(t, parts[1], 43)
}

func TestSignerPEMRoundTrip(t *testing.T) {
	for _, keyType := range []string{"ecdsa", "rsa"} {
		signer, err := NewSigner(keyType, 1024)
		require.NoError(t, err)

		pemBytes, err := SignerToPEM(signer)
		require.NoError(t, err)

		restored, err := SignerFromPEM(pemBytes)
		require.NoError(t, err)
		require.Equal(t, signer, restored)
	}
}

func TestSignerFromPEMGarbage(t *testing.T) {
	_, err := SignerFromPEM([]byte("not pem at all"))
	require.Error(t, err)

	_, err = SignerFromPEM([]byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"))
	require.Error(t, err)
}

func TestMarshalSignerRoundTrip(t *testing.T) {
	signer, err := NewSigner("ecdsa", 0)
	require.NoError(t, err)

	keyBytes, keyType, err := MarshalSigner(signer)
	require.NoError(t, err)
	require.Equal(t, "ecdsa", keyType)

	restored, err := UnmarshalSigner(keyBytes, keyType)
	require.NoError(t, err)
	require.Equal(t, signer, restored)
}
