package client

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
)

// CSR produces the DER encoding of an x509 certificate signing request
// covering the provided names. The first name is used as the subject common
// name and every name (the first included) appears as a DNS subject
// alternative name. The request is signed with the provided key and the
// key's public component becomes the CSR public key.
func CSR(signer crypto.Signer, names []string) ([]byte, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("csr: no names specified")
	}
	if signer == nil {
		return nil, fmt.Errorf("csr: signer must not be nil")
	}

	template := x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName: names[0],
		},
		DNSNames: names,
	}

	csrBytes, err := x509.CreateCertificateRequest(rand.Reader, &template, signer)
	if err != nil {
		return nil, err
	}
	return csrBytes, nil
}
