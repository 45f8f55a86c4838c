package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpu/acmefetch/acme/resources"
)

func TestRegisterAccountAlreadyRegistered(t *testing.T) {
	acct, err := resources.NewAccount([]string{"test@example.com"}, nil)
	require.NoError(t, err)
	acct.ID = "https://acme.example.com/acct/42"

	client, err := NewClient(Config{
		DirectoryURL: "https://acme.example.com/directory",
	}, acct)
	require.NoError(t, err)

	// An account restored with an ID from a previous run must be reported as
	// already registered without any requests being made.
	result, err := client.RegisterAccount(context.Background())
	require.NoError(t, err)
	require.Nil(t, result.Created)
	require.Equal(t, acct.ID, result.ExistingLocation)
}
