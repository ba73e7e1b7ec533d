// Command nipctl validates Polish tax identifiers (NIP) and reconstructs
// identifiers with up to three unknown digits from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	CLIExitSuccess    = 0
	CLIExitInvalid    = 1
	CLIExitInputError = 2
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nipctl",
		Short:         "Validate and reconstruct Polish tax identifiers (NIP)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(), newGuessCmd())
	return root
}

func main() {
	os.Exit(execute(newRootCmd()))
}

func execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return CLIExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err)
	return CLIExitInputError
}
