package issuer

import (
	"context"
	"fmt"
	"log"

	"github.com/cpu/acmefetch/acme/resources"
)

// AccountResolver produces a usable ACME account: it attempts registration
// and either finishes setting up the newly created account (service
// agreement acceptance) or binds to the account that already exists for the
// key.
type AccountResolver struct {
	Accounts    AccountService
	Interaction UserInteraction
}

// Resolve registers or binds the account. For a brand new account the
// server's service agreement is presented to the operator exactly once;
// declining it fails resolution with ErrAgreementDeclined. When the account
// key is already registered the existing account is bound without
// re-presenting the agreement.
func (r *AccountResolver) Resolve(ctx context.Context) (*resources.Account, error) {
	result, err := r.Accounts.RegisterAccount(ctx)
	if err != nil {
		return nil, err
	}

	if result.ExistingLocation != "" {
		log.Printf("Account key is already registered at %q\n", result.ExistingLocation)
		return r.Accounts.BindAccount(ctx, result.ExistingLocation)
	}

	acct := result.Created
	if acct == nil {
		return nil, fmt.Errorf("resolve: registration returned neither a new account nor an existing location")
	}

	agreementURL, err := r.Accounts.AgreementURL(ctx)
	if err != nil {
		return nil, err
	}
	prompt := "Do you accept the server's service agreement?"
	if agreementURL != "" {
		prompt = fmt.Sprintf("Do you accept the service agreement at %s ?", agreementURL)
	}
	accepted, err := r.Interaction.Confirm(prompt)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, ErrAgreementDeclined
	}

	if err := r.Accounts.AcceptAgreement(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}
