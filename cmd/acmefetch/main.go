// acmefetch is a one-shot command line tool that obtains a certificate for
// one or more domains from an ACME server: it registers (or reuses) an
// account, proves control of each domain with an ACME challenge, and writes
// the issued certificate chain to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cpu/acmefetch/acme"
	acmeclient "github.com/cpu/acmefetch/acme/client"
	"github.com/cpu/acmefetch/acme/keys"
	"github.com/cpu/acmefetch/acme/resources"
	"github.com/cpu/acmefetch/challenge"
	"github.com/cpu/acmefetch/cmd"
	"github.com/cpu/acmefetch/issuer"
	"github.com/cpu/acmefetch/pemfile"
)

const (
	DIRECTORY_DEFAULT     = ""
	CA_DEFAULT            = ""
	CONTACT_DEFAULT       = ""
	ACCOUNT_DEFAULT       = "user.acct.json"
	KEY_DIR_DEFAULT       = "."
	KEY_TYPE_DEFAULT      = "rsa"
	CHALLENGE_DEFAULT     = acme.ChallengeHTTP01
	CHAIN_DEFAULT         = "domain-chain.crt"
	CSR_DEFAULT           = "domain.csr"
	HTTP_ADDRESS_DEFAULT  = ":5002"
	DNS_ADDRESS_DEFAULT   = ":5252"
	POLL_INTERVAL_DEFAULT = issuer.DefaultPollInterval
)

func main() {
	directory := flag.String(
		"directory",
		DIRECTORY_DEFAULT,
		"Directory URL of an ACME server offering newAuthz/newCert endpoints")

	caCert := flag.String(
		"ca",
		CA_DEFAULT,
		"Optional CA certificate(s) for verifying ACME server HTTPS")

	email := flag.String(
		"contact",
		CONTACT_DEFAULT,
		"Optional contact email address for the ACME account")

	acctPath := flag.String(
		"account",
		ACCOUNT_DEFAULT,
		"JSON filepath to save/restore the ACME account to")

	keyDir := flag.String(
		"keys",
		KEY_DIR_DEFAULT,
		"Directory for account and certificate private keys")

	keyType := flag.String(
		"keyType",
		KEY_TYPE_DEFAULT,
		`Type of generated private keys ("rsa" or "ecdsa")`)

	keySize := flag.Int(
		"keySize",
		keys.DefaultRSAKeySize,
		"Size of generated RSA private keys")

	challType := flag.String(
		"challenge",
		CHALLENGE_DEFAULT,
		fmt.Sprintf("Challenge type to solve (%q, %q or %q)",
			acme.ChallengeHTTP01, acme.ChallengeDNS01, acme.ChallengeTLSSNI01))

	chainPath := flag.String(
		"chain",
		CHAIN_DEFAULT,
		"Filepath to write the issued certificate chain to")

	csrPath := flag.String(
		"csr",
		CSR_DEFAULT,
		"Optional filepath to write the certificate signing request to")

	pollAttempts := flag.Int(
		"pollAttempts",
		issuer.DefaultPollMaxAttempts,
		"Number of times to check a pending challenge before giving up")

	pollInterval := flag.Duration(
		"pollInterval",
		POLL_INTERVAL_DEFAULT,
		"Wait between challenge status checks")

	postAsGet := flag.Bool(
		"postAsGet",
		true,
		"Use POST-as-GET requests instead of GET")

	assumeYes := flag.Bool(
		"yes",
		false,
		"Accept the service agreement and all confirmation prompts without asking")

	auto := flag.Bool(
		"auto",
		false,
		"Publish challenge responses on embedded http-01/dns-01 servers instead of manually")

	httpAddr := flag.String(
		"httpAddress",
		HTTP_ADDRESS_DEFAULT,
		"Listen address for the embedded http-01 challenge server (-auto)")

	dnsAddr := flag.String(
		"dnsAddress",
		DNS_ADDRESS_DEFAULT,
		"Listen address for the embedded dns-01 challenge server (-auto)")

	pebble := flag.Bool(
		"pebble",
		false,
		"Use Pebble defaults")

	flag.Parse()

	domains := flag.Args()
	if len(domains) == 0 {
		log.Fatalf("[!] no domains specified - usage: %s [options] domain [domain ...]",
			os.Args[0])
	}

	if *pebble {
		pebbleDirectory := "https://localhost:14000/dir"
		directory = &pebbleDirectory
		pebbleBaseDir := os.Getenv("GOPATH")
		pebbleCA := pebbleBaseDir + "/src/github.com/letsencrypt/pebble/test/certs/pebble.minica.pem"
		caCert = &pebbleCA
	}

	if *directory == "" {
		log.Fatalf("[!] no -directory specified - provide the directory URL of an " +
			"ACME server offering newAuthz/newCert endpoints")
	}

	if !challenge.Supported(*challType) {
		log.Fatalf("[!] unsupported -challenge type %q - supported types are %q, %q and %q",
			*challType, acme.ChallengeHTTP01, acme.ChallengeDNS01, acme.ChallengeTLSSNI01)
	}

	issuerConfig := issuer.Config{
		ChallengeType:   *challType,
		KeySize:         *keySize,
		PollMaxAttempts: *pollAttempts,
		PollInterval:    *pollInterval,
	}

	keyStore := keys.NewFileStore(*keyDir, *keyType, issuerConfig.KeySize)
	acct, err := loadOrCreateAccount(*acctPath, *email, keyStore)
	cmd.FailOnError(err, "Setting up ACME account")

	client, err := acmeclient.NewClient(acmeclient.Config{
		DirectoryURL: *directory,
		CACert:       *caCert,
		ContactEmail: *email,
		POSTAsGET:    *postAsGet,
	}, acct)
	cmd.FailOnError(err, "Creating ACME client")

	var solver issuer.Solver
	if *auto {
		autoSolver, err := challenge.NewAuto(acct.Signer, *httpAddr, *dnsAddr)
		cmd.FailOnError(err, "Starting challenge response servers")
		defer autoSolver.Shutdown()
		solver = autoSolver
	} else {
		solver = &challenge.Manual{Signer: acct.Signer}
	}

	fetcher := &issuer.Issuer{
		Accounts:    client,
		Authz:       client,
		Certs:       client,
		Keys:        keyStore,
		Store:       pemfile.NewStore(*chainPath, *csrPath),
		Interaction: &cmd.TerminalInteraction{AssumeYes: *assumeYes},
		Solver:      solver,
		Config:      issuerConfig,
	}

	start := time.Now()
	ctx := cmd.SignalContext(context.Background())
	cert, err := fetcher.Issue(ctx, domains)
	cmd.FailOnError(err, fmt.Sprintf("Issuing certificate for %s",
		strings.Join(domains, ", ")))

	if *acctPath != "" {
		err := resources.SaveAccount(*acctPath, acct)
		cmd.FailOnError(err, fmt.Sprintf("Saving ACME account to %q", *acctPath))
	}

	log.Printf("Issued certificate %q for %s in %s\n",
		cert.ID, strings.Join(domains, ", "), time.Since(start).Round(time.Millisecond))
}

// loadOrCreateAccount restores a previously saved account from acctPath, or
// creates a fresh in-memory account around a key from the key store when no
// saved account exists yet.
func loadOrCreateAccount(acctPath string, email string, keyStore *keys.FileStore) (*resources.Account, error) {
	if acctPath != "" {
		acct, err := resources.RestoreAccount(acctPath)
		if err == nil {
			log.Printf("Restored ACME account %q from %q\n", acct.ID, acctPath)
			return acct, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error restoring account from %q: %w", acctPath, err)
		}
	}

	acctKey, err := keyStore.LoadOrGenerate("user")
	if err != nil {
		return nil, err
	}
	var emails []string
	if email != "" {
		emails = append(emails, email)
	}
	return resources.NewAccount(emails, acctKey)
}
