// Package resources provides types for representing and interacting with ACME
// protocol resources.
package resources

import (
	"crypto"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cpu/acmefetch/acme/keys"
)

// Account holds information related to a single ACME Account resource. If the
// account has an empty ID it has not yet been created server-side with the
// ACME server.
//
// The ID field holds the server assigned account location URL that is
// assigned at the time of account creation and used as the JWS KeyID for
// authenticating ACME requests with the account's registered keypair.
//
// The TermsAgreed field tracks whether the service agreement has been
// accepted for this account. A brand new account starts with TermsAgreed
// false and is not usable for issuance until the agreement is committed.
// An account bound from a registration conflict is assumed to have agreed
// already.
type Account struct {
	// The server assigned account location. This is used for the JWS KeyID
	// when authenticating ACME requests using the account's registered
	// keypair.
	ID string
	// If not nil, a slice of one or more email addresses to be used as the
	// ACME account's "mailto://" Contact addresses.
	Contact []string
	// The private key used for the ACME account's keypair.
	Signer crypto.Signer
	// The account status as reported by the server ("valid", "deactivated",
	// "revoked").
	Status string
	// Whether the service agreement has been accepted for this account.
	TermsAgreed bool
}

// String returns the Account's ID or an empty string if it has not been
// created with the ACME server.
func (a Account) String() string {
	return a.ID
}

// NewAccount creates an ACME account in-memory. *Important:* the created
// Account is *not* registered with the ACME server until it is explicitly
// created server-side.
//
// the emails argument is a slice of zero or more email addresses that should
// be used as the Account's Contact information.
//
// the signer argument is the private key that should be used for the Account
// keypair. If nil a new randomly generated ECDSA key is used.
func NewAccount(emails []string, signer crypto.Signer) (*Account, error) {
	var contacts []string
	for _, e := range emails {
		if e == "" {
			continue
		}
		contacts = append(contacts, fmt.Sprintf("mailto:%s", e))
	}

	if signer == nil {
		randKey, err := keys.NewSigner("ecdsa", 0)
		if err != nil {
			return nil, err
		}
		signer = randKey
	}

	return &Account{
		Contact: contacts,
		Signer:  signer,
	}, nil
}

type rawAccount struct {
	ID          string
	Contact     []string
	TermsAgreed bool
	PrivateKey  []byte
	KeyType     string
}

func (acct *Account) save() ([]byte, error) {
	keyBytes, keyType, err := keys.MarshalSigner(acct.Signer)
	if err != nil {
		return nil, err
	}

	rawAcct := rawAccount{
		ID:          acct.ID,
		Contact:     acct.Contact,
		TermsAgreed: acct.TermsAgreed,
		PrivateKey:  keyBytes,
		KeyType:     keyType,
	}
	frozenAcct, err := json.MarshalIndent(rawAcct, "", "  ")
	if err != nil {
		return nil, err
	}
	return frozenAcct, nil
}

func (acct *Account) restore(frozenAcct []byte) error {
	var rawAcct rawAccount

	err := json.Unmarshal(frozenAcct, &rawAcct)
	if err != nil {
		return err
	}

	signer, err := keys.UnmarshalSigner(rawAcct.PrivateKey, rawAcct.KeyType)
	if err != nil {
		return err
	}

	acct.ID = rawAcct.ID
	acct.Contact = rawAcct.Contact
	acct.TermsAgreed = rawAcct.TermsAgreed
	acct.Signer = signer
	return nil
}

// SaveAccount persists the given Account object (which must not be nil) to
// the given file path. If any errors occur serializing the account it will
// be returned.
func SaveAccount(path string, account *Account) error {
	if account == nil {
		return fmt.Errorf("account must not be nil")
	}
	frozenBytes, err := account.save()
	if err != nil {
		return err
	}
	return os.WriteFile(path, frozenBytes, 0600)
}

// RestoreAccount loads a previously saved Account object from the given file
// path. This file should have been created using SaveAccount in a previous
// session. If any errors occur deserializing an Account from the data in the
// provided filepath a nil Account instance and a non-nil error will be
// returned.
func RestoreAccount(path string) (*Account, error) {
	acct := &Account{}
	frozenBytes, err := os.ReadFile(path)
	if err != nil {
		return acct, err
	}

	err = acct.restore(frozenBytes)
	return acct, err
}
