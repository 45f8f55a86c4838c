package issuer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpu/acmefetch/acme"
	"github.com/cpu/acmefetch/acme/client"
	"github.com/cpu/acmefetch/acme/resources"
)

func TestResolveNewAccount(t *testing.T) {
	created := &resources.Account{
		ID:      "https://acme.example.com/acct/1",
		Contact: []string{"mailto:admin@example.com"},
		Status:  acme.StatusValid,
	}
	accounts := &stubAccountService{
		registerResult: &client.RegistrationResult{Created: created},
		agreementURL:   "https://acme.example.com/terms",
	}
	interaction := &stubInteraction{accept: true}
	resolver := &AccountResolver{Accounts: accounts, Interaction: interaction}

	acct, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, created.ID, acct.ID)
	require.True(t, acct.TermsAgreed)
	require.Equal(t, 1, accounts.acceptCalls)
	require.Equal(t, 0, accounts.bindCalls)

	// the service agreement is presented exactly once, with its URL
	require.Len(t, interaction.prompts, 1)
	require.Contains(t, interaction.prompts[0], "https://acme.example.com/terms")
}

func TestResolveAgreementDeclined(t *testing.T) {
	accounts := &stubAccountService{
		registerResult: &client.RegistrationResult{
			Created: &resources.Account{ID: "https://acme.example.com/acct/1"},
		},
		agreementURL: "https://acme.example.com/terms",
	}
	resolver := &AccountResolver{
		Accounts:    accounts,
		Interaction: &stubInteraction{accept: false},
	}

	_, err := resolver.Resolve(context.Background())
	require.ErrorIs(t, err, ErrAgreementDeclined)
	// declining must never commit an agreement update
	require.Equal(t, 0, accounts.acceptCalls)
}

func TestResolveExistingAccount(t *testing.T) {
	existing := &resources.Account{
		ID:          "https://acme.example.com/acct/42",
		Status:      acme.StatusValid,
		TermsAgreed: true,
	}
	accounts := &stubAccountService{
		registerResult: &client.RegistrationResult{
			ExistingLocation: "https://acme.example.com/acct/42",
		},
		boundAccount: existing,
	}
	interaction := &stubInteraction{accept: false}
	resolver := &AccountResolver{Accounts: accounts, Interaction: interaction}

	acct, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, existing.ID, acct.ID)
	require.Equal(t, 1, accounts.bindCalls)
	require.Equal(t, "https://acme.example.com/acct/42", accounts.bindLocation)

	// binding an existing account never re-presents the agreement
	require.Empty(t, interaction.prompts)
	require.Equal(t, 0, accounts.acceptCalls)
}
