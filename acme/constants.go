// Package acme provides ACME protocol constants. See RFC 8555.
package acme

const (
	// Directory constants
	// See https://tools.ietf.org/html/rfc8555#section-9.7.5

	// The ACME directory key for the newNonce endpoint
	NEW_NONCE_ENDPOINT = "newNonce"
	// The ACME directory key for the newAccount endpoint.
	NEW_ACCOUNT_ENDPOINT = "newAccount"
	// The ACME directory key for the newAuthz pre-authorization endpoint.
	NEW_AUTHZ_ENDPOINT = "newAuthz"
	// The ACME directory key for the certificate signing request endpoint.
	NEW_CERT_ENDPOINT = "newCert"

	// The directory "meta" key and the sub-key carrying the terms of
	// service URL an account must agree to before issuance.
	META_KEY             = "meta"
	TERMS_OF_SERVICE_KEY = "termsOfService"

	// The HTTP response header used by ACME to communicate a fresh nonce. See
	// https://tools.ietf.org/html/rfc8555#section-9.3
	REPLAY_NONCE_HEADER = "Replay-Nonce"
)

const (
	// Resource status values shared by accounts, authorizations and
	// challenges.
	// See https://tools.ietf.org/html/rfc8555#section-7.1.6
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusValid      = "valid"
	StatusInvalid    = "invalid"
	StatusExpired    = "expired"
)

const (
	// Challenge type tags offered inside Authorization resources.
	ChallengeHTTP01 = "http-01"
	ChallengeDNS01  = "dns-01"
	// tls-sni-01 is long deprecated server-side but remains part of the
	// supported selection set for servers that still offer it.
	ChallengeTLSSNI01 = "tls-sni-01"
)
