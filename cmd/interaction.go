package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// TerminalInteraction confirms instructions with the operator by prompting
// on the terminal. It implements the issuer's UserInteraction collaborator.
type TerminalInteraction struct {
	// AssumeYes answers every confirmation affirmatively without
	// prompting. It is intended for unattended runs.
	AssumeYes bool
	// In defaults to os.Stdin and Out to os.Stdout.
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Confirm prints the instructions and asks the operator whether to
// continue. Anything other than an explicit yes declines. Prompting from
// a non-interactive session is an error rather than a hang; such runs must
// pass -yes instead.
func (t *TerminalInteraction) Confirm(instructions string) (bool, error) {
	in := t.In
	if in == nil {
		in = os.Stdin
	}
	out := t.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "\n%s\n", instructions)
	if t.AssumeYes {
		log.Printf("Continuing without prompting (-yes)\n")
		return true, nil
	}

	if f, ok := in.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false, fmt.Errorf(
				"standard input is not a terminal: re-run with -yes to confirm non-interactively")
		}
	}

	if t.reader == nil {
		t.reader = bufio.NewReader(in)
	}
	fmt.Fprintf(out, "Continue? [y/N] ")
	line, err := t.reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
