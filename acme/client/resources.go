package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/resources"
	"github.com/cpu/acmefetch/pemfile"
)

// RegistrationResult is the outcome of a RegisterAccount request. Exactly
// one of the two fields is populated: Created points at the freshly
// registered account, ExistingLocation carries the location of an account
// that was already registered for the same key. An already-registered key is
// an expected outcome of registration, not an error.
type RegistrationResult struct {
	// Created is non-nil when a brand new account was registered. The
	// account's TermsAgreed flag is false until the agreement is accepted.
	Created *resources.Account
	// ExistingLocation is non-empty when the server reported that the key is
	// already registered. It holds the existing account's location URL.
	ExistingLocation string
}

// RegisterAccount attempts to register the client's account with the ACME
// server. The request never agrees to the terms of service; agreement is
// a separate, explicit step (see AcceptAgreement).
//
// A 201 response creates the account: its ID is populated from the Location
// header and a RegistrationResult with Created set is returned. If the
// server reports that the account key is already registered (409 Conflict,
// or 200 OK per RFC 8555) the result instead carries the existing account's
// location from the response's Location header. An account that already
// carries an ID (e.g. restored from disk) is reported as existing without
// making any requests.
//
// For more information on account creation see
// https://tools.ietf.org/html/rfc8555#section-7.3
func (c *Client) RegisterAccount(ctx context.Context) (*RegistrationResult, error) {
	acct := c.Account
	if acct.ID != "" {
		// The account was restored from an earlier run and is already
		// registered. Report its location so resolution binds to it instead
		// of re-registering the key. No requests are needed for this.
		log.Printf("Account %q is already registered, skipping registration\n", acct.ID)
		return &RegistrationResult{ExistingLocation: acct.ID}, nil
	}
	if c.nonce == "" {
		if err := c.RefreshNonce(ctx); err != nil {
			return nil, err
		}
	}

	newAcctReq := struct {
		Contact   []string `json:",omitempty"`
		ToSAgreed bool     `json:"termsOfServiceAgreed"`
	}{
		Contact:   acct.Contact,
		ToSAgreed: false,
	}

	reqBody, err := json.Marshal(&newAcctReq)
	if err != nil {
		return nil, err
	}

	newAcctURL, ok := c.GetEndpointURL(ctx, acme.NEW_ACCOUNT_ENDPOINT)
	if !ok {
		return nil, fmt.Errorf(
			"register: ACME server missing %q endpoint in directory",
			acme.NEW_ACCOUNT_ENDPOINT)
	}

	signResult, err := c.Sign(
		newAcctURL,
		reqBody,
		&SigningOptions{
			EmbedKey: true,
			Signer:   acct.Signer,
		})
	if err != nil {
		return nil, fmt.Errorf("register: %s", err)
	}

	log.Printf("Sending %q request (contact: %s) to %q",
		acme.NEW_ACCOUNT_ENDPOINT, acct.Contact, newAcctURL)
	resp, err := c.PostURL(ctx, newAcctURL, signResult.SerializedJWS)
	if err != nil {
		return nil, err
	}

	respOb := resp.Response
	locHeader := respOb.Header.Get("Location")

	switch respOb.StatusCode {
	case http.StatusCreated:
		if locHeader == "" {
			return nil, fmt.Errorf("register: server returned response with no Location header")
		}
		// Store the Location header as the Account's ID
		acct.ID = locHeader
		acct.TermsAgreed = false
		var acctBody struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(resp.RespBody, &acctBody); err == nil {
			acct.Status = acctBody.Status
		}
		log.Printf("Created account with ID %q\n", acct.ID)
		return &RegistrationResult{Created: acct}, nil
	case http.StatusOK, http.StatusConflict:
		// The key is already registered. The Location header carries the
		// existing account's location.
		if locHeader == "" {
			return nil, fmt.Errorf(
				"register: server reported an existing account but returned no Location header")
		}
		return &RegistrationResult{ExistingLocation: locHeader}, nil
	}

	return nil, fmt.Errorf("register: server returned status code %d, expected %d",
		respOb.StatusCode, http.StatusCreated)
}

// BindAccount attaches the client's account to an existing server-side
// account by its known location. The account's resource is fetched to
// populate its status. A bound account is assumed to have accepted the
// service agreement already.
func (c *Client) BindAccount(ctx context.Context, location string) (*resources.Account, error) {
	if location == "" {
		return nil, fmt.Errorf("bind: location must not be empty")
	}
	acct := c.Account
	acct.ID = location

	resp, err := c.PostAsGetURL(ctx, location)
	if err != nil {
		return nil, err
	}
	if resp.Response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bind: server returned status code %d for account %q, expected %d",
			resp.Response.StatusCode, location, http.StatusOK)
	}

	var acctBody struct {
		Status  string   `json:"status"`
		Contact []string `json:"contact"`
	}
	if err := json.Unmarshal(resp.RespBody, &acctBody); err != nil {
		return nil, fmt.Errorf("bind: server returned invalid JSON: %s", err)
	}

	acct.Status = acctBody.Status
	if len(acctBody.Contact) > 0 {
		acct.Contact = acctBody.Contact
	}
	acct.TermsAgreed = true
	log.Printf("Bound to existing account with ID %q\n", acct.ID)
	return acct, nil
}

// AcceptAgreement commits acceptance of the service agreement for the
// client's account as a single account update. The account's TermsAgreed
// flag is only set once the server has acknowledged the update.
func (c *Client) AcceptAgreement(ctx context.Context, acct *resources.Account) error {
	if acct.ID == "" {
		return fmt.Errorf("acceptAgreement: account has not been registered")
	}

	updateReq := struct {
		ToSAgreed bool `json:"termsOfServiceAgreed"`
	}{
		ToSAgreed: true,
	}

	reqBody, err := json.Marshal(&updateReq)
	if err != nil {
		return err
	}

	signResult, err := c.Sign(acct.ID, reqBody, nil)
	if err != nil {
		return fmt.Errorf("acceptAgreement: %s", err)
	}

	resp, err := c.PostURL(ctx, acct.ID, signResult.SerializedJWS)
	if err != nil {
		return err
	}
	if resp.Response.StatusCode != http.StatusOK {
		return fmt.Errorf("acceptAgreement: server returned status code %d, expected %d",
			resp.Response.StatusCode, http.StatusOK)
	}

	acct.TermsAgreed = true
	log.Printf("Accepted service agreement for account %q\n", acct.ID)
	return nil
}

// NewAuthorization requests a fresh pre-authorization for the given domain
// under the client's account. If the operation is successful the returned
// Authorization has its ID populated from the response's Location header and
// carries the set of challenges the server offers for the domain.
//
// For more information on pre-authorization see
// https://tools.ietf.org/html/rfc8555#section-7.4.1
func (c *Client) NewAuthorization(ctx context.Context, domain string) (*resources.Authorization, error) {
	if c.nonce == "" {
		if err := c.RefreshNonce(ctx); err != nil {
			return nil, err
		}
	}
	if c.AccountID() == "" {
		return nil, fmt.Errorf("newAuthz: account is nil or has not been registered")
	}

	req := struct {
		Identifier resources.Identifier `json:"identifier"`
	}{
		Identifier: resources.Identifier{
			Type:  "dns",
			Value: domain,
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	newAuthzURL, ok := c.GetEndpointURL(ctx, acme.NEW_AUTHZ_ENDPOINT)
	if !ok {
		return nil, fmt.Errorf(
			"newAuthz: ACME server missing %q endpoint in directory",
			acme.NEW_AUTHZ_ENDPOINT)
	}

	signResult, err := c.Sign(newAuthzURL, reqBody, nil)
	if err != nil {
		return nil, fmt.Errorf("newAuthz: %s", err)
	}

	resp, err := c.PostURL(ctx, newAuthzURL, signResult.SerializedJWS)
	if err != nil {
		return nil, err
	}

	respOb := resp.Response
	if respOb.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("newAuthz: server returned status code %d, expected %d",
			respOb.StatusCode, http.StatusCreated)
	}

	locHeader := respOb.Header.Get("Location")
	if locHeader == "" {
		return nil, fmt.Errorf("newAuthz: server returned response with no Location header")
	}

	authz := &resources.Authorization{}
	if err := json.Unmarshal(resp.RespBody, authz); err != nil {
		return nil, fmt.Errorf("newAuthz: server returned invalid JSON: %s", err)
	}

	// Store the Location header as the Authorization's ID
	authz.ID = locHeader
	log.Printf("Created new authorization %q for identifier %q\n",
		authz.ID, authz.Identifier.Value)
	return authz, nil
}

// TriggerChallenge signals the ACME server that the challenge's response is
// in place and validation should begin. This is a one-shot, non-idempotent
// action. The challenge is updated in place from the server's response.
//
// See https://tools.ietf.org/html/rfc8555#section-7.5.1
func (c *Client) TriggerChallenge(ctx context.Context, chall *resources.Challenge) error {
	if chall == nil {
		return fmt.Errorf("trigger: chall must not be nil")
	}
	if chall.URL == "" {
		return fmt.Errorf("trigger: chall must have a URL")
	}

	signResult, err := c.Sign(chall.URL, []byte("{}"), nil)
	if err != nil {
		return fmt.Errorf("trigger: %s", err)
	}

	resp, err := c.PostURL(ctx, chall.URL, signResult.SerializedJWS)
	if err != nil {
		return err
	}

	respOb := resp.Response
	if respOb.StatusCode != http.StatusOK {
		return fmt.Errorf("trigger: server returned status code %d for challenge %q, expected %d",
			respOb.StatusCode, chall.URL, http.StatusOK)
	}

	if err := json.Unmarshal(resp.RespBody, chall); err != nil {
		return fmt.Errorf("trigger: server returned invalid JSON: %s", err)
	}

	log.Printf("Started %q challenge %q\n", chall.Type, chall.URL)
	return nil
}

// UpdateChallenge refreshes a given Challenge by fetching its URL from the
// ACME server. If this is successful the Challenge is updated in place.
// Otherwise an error is returned.
//
// Calling UpdateChallenge is required to refresh a Challenge's Status field
// to synchronize the resource with the server-side representation.
func (c *Client) UpdateChallenge(ctx context.Context, chall *resources.Challenge) error {
	if chall == nil {
		return fmt.Errorf("updateChallenge: chall must not be nil")
	}
	if chall.URL == "" {
		return fmt.Errorf("updateChallenge: chall must have a URL")
	}

	resp, err := c.fetchURL(ctx, chall.URL)
	if err != nil {
		return err
	}

	err = json.Unmarshal(resp.RespBody, chall)
	if err != nil {
		return err
	}

	return nil
}

// RequestCertificate submits a certificate signing request covering the full
// set of domains of an issuance run. The csr argument is the DER encoding of
// the request. On success the returned Certificate's ID holds the download
// URL from the response's Location header; its contents are not fetched
// until DownloadCertificate is called.
func (c *Client) RequestCertificate(ctx context.Context, csr []byte) (*resources.Certificate, error) {
	if c.nonce == "" {
		if err := c.RefreshNonce(ctx); err != nil {
			return nil, err
		}
	}
	if c.AccountID() == "" {
		return nil, fmt.Errorf("newCert: account is nil or has not been registered")
	}

	req := struct {
		CSR string `json:"csr"`
	}{
		CSR: base64.RawURLEncoding.EncodeToString(csr),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	newCertURL, ok := c.GetEndpointURL(ctx, acme.NEW_CERT_ENDPOINT)
	if !ok {
		return nil, fmt.Errorf(
			"newCert: ACME server missing %q endpoint in directory",
			acme.NEW_CERT_ENDPOINT)
	}

	signResult, err := c.Sign(newCertURL, reqBody, nil)
	if err != nil {
		return nil, fmt.Errorf("newCert: %s", err)
	}

	resp, err := c.PostURL(ctx, newCertURL, signResult.SerializedJWS)
	if err != nil {
		return nil, err
	}

	respOb := resp.Response
	if respOb.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("newCert: server returned status code %d, expected %d",
			respOb.StatusCode, http.StatusCreated)
	}

	locHeader := respOb.Header.Get("Location")
	if locHeader == "" {
		return nil, fmt.Errorf("newCert: server returned response with no Location header")
	}

	log.Printf("Certificate signing request accepted. Certificate URL: %q\n", locHeader)
	return &resources.Certificate{ID: locHeader}, nil
}

// DownloadCertificate fetches the issued certificate from its download URL
// and populates the Certificate's Leaf and Chain fields. The server replies
// with a PEM bundle whose first CERTIFICATE block is the leaf; the remaining
// blocks form the issuing chain.
func (c *Client) DownloadCertificate(ctx context.Context, cert *resources.Certificate) error {
	if cert == nil {
		return fmt.Errorf("downloadCert: cert must not be nil")
	}
	if cert.ID == "" {
		return fmt.Errorf("downloadCert: cert must have an ID URL")
	}

	resp, err := c.fetchURL(ctx, cert.ID)
	if err != nil {
		return err
	}
	respOb := resp.Response
	if respOb.StatusCode != http.StatusOK {
		return fmt.Errorf("downloadCert: server returned status code %d for %q, expected %d",
			respOb.StatusCode, cert.ID, http.StatusOK)
	}

	blocks, err := pemfile.ParseBundle(resp.RespBody)
	if err != nil {
		return fmt.Errorf("downloadCert: invalid response from %q: %s", cert.ID, err)
	}

	cert.Leaf = blocks[0]
	cert.Chain = blocks[1:]
	log.Printf("Downloaded certificate (leaf + %d chain certificates) from %q\n",
		len(cert.Chain), cert.ID)
	return nil
}
