package keys

import (
	"crypto"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// FileStore persists private keys as PEM files under a directory, one file
// per key identifier. The same identifier always yields the same key: a key
// file that already exists is loaded, otherwise a fresh key is generated and
// saved before being returned.
type FileStore struct {
	// Directory the key files live in. Created on demand.
	Dir string
	// KeyType of generated keys, "ecdsa" or "rsa".
	KeyType string
	// KeySize of generated RSA keys. Ignored for ECDSA.
	KeySize int
}

// NewFileStore creates a FileStore rooted at dir generating keys of the
// given type and size.
func NewFileStore(dir string, keyType string, keySize int) *FileStore {
	return &FileStore{
		Dir:     dir,
		KeyType: keyType,
		KeySize: keySize,
	}
}

func (s *FileStore) path(identifier string) string {
	return filepath.Join(s.Dir, identifier+".key")
}

// LoadOrGenerate returns the private key for the given identifier, creating
// and persisting a new one if no key file exists yet.
func (s *FileStore) LoadOrGenerate(identifier string) (crypto.Signer, error) {
	if identifier == "" {
		return nil, fmt.Errorf("key identifier must not be empty")
	}

	keyPath := s.path(identifier)
	pemBytes, err := os.ReadFile(keyPath)
	if err == nil {
		signer, err := SignerFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("error parsing key file %q: %w", keyPath, err)
		}
		log.Printf("Loaded existing %q key from %q\n", identifier, keyPath)
		return signer, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading key file %q: %w", keyPath, err)
	}

	signer, err := NewSigner(s.KeyType, s.KeySize)
	if err != nil {
		return nil, err
	}

	keyPEM, err := SignerToPEM(signer)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return nil, fmt.Errorf("error saving key file %q: %w", keyPath, err)
	}
	log.Printf("Generated new %q key and saved it to %q\n", identifier, keyPath)
	return signer, nil
}
