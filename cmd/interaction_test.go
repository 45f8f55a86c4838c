package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "yes", input: "y\n", expected: true},
		{name: "yes long", input: "Yes\n", expected: true},
		{name: "no", input: "n\n", expected: false},
		{name: "empty defaults to no", input: "\n", expected: false},
		{name: "junk defaults to no", input: "maybe\n", expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			interaction := &TerminalInteraction{
				In:  strings.NewReader(tc.input),
				Out: &strings.Builder{},
			}
			accepted, err := interaction.Confirm("please make it so")
			require.NoError(t, err)
			require.Equal(t, tc.expected, accepted)
		})
	}
}

func TestConfirmAssumeYes(t *testing.T) {
	var out strings.Builder
	interaction := &TerminalInteraction{
		AssumeYes: true,
		// no input is available: AssumeYes must never read from it
		In:  strings.NewReader(""),
		Out: &out,
	}

	accepted, err := interaction.Confirm("please make it so")
	require.NoError(t, err)
	require.True(t, accepted)
	// the instructions are still shown for the record
	require.Contains(t, out.String(), "please make it so")
}
