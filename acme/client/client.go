// Package client provides a low-level ACME client.
package client

import (
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strings"

	"github.com/cpu/acmefetch/acme/resources"
	acmenet "github.com/cpu/acmefetch/net"
)

// Client allows interaction with an ACME server on behalf of a single
// account. The client authenticates requests to the ACME server with JSON
// Web Signatures (JWS) produced with the Account's keypair. Internally the
// Client uses the github.com/cpu/acmefetch/net package to perform HTTP
// requests to the ACME server.
//
// The Client's DirectoryURL field is a parsed *url.URL for the ACME server's
// directory. The client configures itself with the correct URLs for ACME
// operations using the directory resource accessed at this URL. See
// https://tools.ietf.org/html/rfc8555#section-7.1.1
type Client struct {
	// A parsed *url.URL pointer for the ACME server's directory URL.
	DirectoryURL *url.URL
	// A pointer to the Account object used for signing JWS for ACME
	// requests. Until the account has been registered (or bound) its ID is
	// empty and only requests with an embedded JWK can be signed.
	Account *resources.Account
	// Use POST-as-GET requests instead of GET
	PostAsGet bool
	// the net object is used to make HTTP GET/POST/HEAD requests to the ACME
	// server.
	net *acmenet.ACMENet
	// directory is an in-memory representation of the ACME server's
	// directory object.
	directory map[string]interface{}
	// nonce is the value of the last-seen ReplayNonce header from the ACME
	// server's HTTP responses. It will be used for the next signing
	// operation.
	nonce string
}

// Config contains configuration options provided to NewClient when creating
// a Client instance.
type Config struct {
	// A fully qualified URL for the ACME server's directory resource. Must
	// include an HTTP/HTTPS protocol prefix.
	DirectoryURL string
	// An optional file path to one or more PEM encoded CA certificates to be
	// used as trust roots for HTTPS requests to the ACME server. If empty
	// the default system roots are used.
	CACert string
	// An optional email address to use as the account's Contact mailto
	// address when registering. This field only supports one email address.
	ContactEmail string
	// If POSTAsGET is true then GET requests to Authorizations, Challenges
	// and Certificates will be made as POST-as-GET requests.
	POSTAsGET bool
}

// normalize validates a Config.
func (conf *Config) normalize() error {
	// Clean up any junk whitespace that might have snuck in
	conf.DirectoryURL = strings.TrimSpace(conf.DirectoryURL)
	conf.ContactEmail = strings.TrimSpace(conf.ContactEmail)

	if conf.DirectoryURL == "" {
		return fmt.Errorf("DirectoryURL must not be empty")
	}

	if _, err := url.Parse(conf.DirectoryURL); err != nil {
		return fmt.Errorf("DirectoryURL invalid: %s", err.Error())
	}

	if conf.ContactEmail != "" {
		addr, err := mail.ParseAddress(conf.ContactEmail)
		if err != nil {
			return fmt.Errorf("ContactEmail is invalid: %s", err.Error())
		}
		conf.ContactEmail = addr.Address
	}

	return nil
}

// NewClient creates a Client instance from the given Config and account key.
// The account argument carries the keypair used for request signing; it may
// be a brand new in-memory account that has not yet been registered with the
// server. If the config is not valid or if another error occurs it will be
// returned along with a nil Client.
func NewClient(config Config, account *resources.Account) (*Client, error) {
	// Validate the Config has no errors when normalized.
	if err := config.normalize(); err != nil {
		return nil, err
	}

	if account == nil {
		return nil, fmt.Errorf("account must not be nil")
	}

	// Create the ACME net client
	net, err := acmenet.New(config.CACert)
	if err != nil {
		return nil, fmt.Errorf("unable to create ACME net client: %w", err)
	}

	// NOTE: Its safe to throw away the returned err here because we check
	// that `url.Parse` will succeed in `config.normalize()` above.
	dirURL, _ := url.Parse(config.DirectoryURL)

	client := &Client{
		DirectoryURL: dirURL,
		Account:      account,
		PostAsGet:    config.POSTAsGET,
		net:          net,
	}
	if client.PostAsGet {
		log.Printf("Using POST-as-GET requests\n")
	}

	return client, nil
}

// AccountID returns the location URL of the client's account. If the account
// has not yet been registered with the ACME server an empty string is
// returned.
func (c *Client) AccountID() string {
	if c.Account == nil {
		return ""
	}

	return c.Account.ID
}
