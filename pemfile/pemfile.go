// Package pemfile persists issuance artifacts as PEM files.
package pemfile

import (
	"bytes"
	"encoding/pem"
	"fmt"
	"log"
	"os"

	"github.com/cpu/acmefetch/acme/resources"
)

// Store writes issuance artifacts to fixed paths.
type Store struct {
	// ChainPath is the file the combined leaf + chain PEM bundle is written
	// to.
	ChainPath string
	// CSRPath is the file the signing request is written to. If empty the
	// CSR is not persisted.
	CSRPath string
}

// NewStore creates a Store writing the certificate bundle to chainPath and,
// when csrPath is not empty, the signing request to csrPath.
func NewStore(chainPath string, csrPath string) *Store {
	return &Store{ChainPath: chainPath, CSRPath: csrPath}
}

// WriteCSR persists the DER signing request to the store's CSR path. It is
// a no-op for stores without one.
func (s *Store) WriteCSR(der []byte) error {
	if s.CSRPath == "" {
		return nil
	}
	return WriteCSR(s.CSRPath, der)
}

// WriteChain writes a certificate as a combined PEM bundle: the leaf
// certificate first, followed by each chain certificate in order. The
// bundle shape is suitable for direct use by most TLS servers.
func (s *Store) WriteChain(cert *resources.Certificate) error {
	if len(cert.Leaf) == 0 {
		return fmt.Errorf("pemfile: certificate has no leaf to write")
	}

	var buf bytes.Buffer
	blocks := append([][]byte{cert.Leaf}, cert.Chain...)
	for _, der := range blocks {
		err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: der})
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(s.ChainPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("pemfile: unable to write certificate chain to %q: %s",
			s.ChainPath, err)
	}
	log.Printf("Wrote certificate chain (%d certificates) to %q\n",
		len(blocks), s.ChainPath)
	return nil
}

// ParseBundle decodes a PEM certificate bundle into the DER encodings of
// its CERTIFICATE blocks, in order. Non-certificate blocks are skipped.
func ParseBundle(bundle []byte) ([][]byte, error) {
	var ders [][]byte
	rest := bundle
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		ders = append(ders, block.Bytes)
	}
	if len(ders) == 0 {
		return nil, fmt.Errorf("pemfile: bundle contained no CERTIFICATE PEM blocks")
	}
	return ders, nil
}

// WriteCSR writes the PEM encoding of a DER certificate signing request to
// the given path.
func WriteCSR(path string, der []byte) error {
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type: "CERTIFICATE REQUEST", Bytes: der,
	})
	if err := os.WriteFile(path, pemBytes, 0644); err != nil {
		return fmt.Errorf("pemfile: unable to write CSR to %q: %s", path, err)
	}
	return nil
}
