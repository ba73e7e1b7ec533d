package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nipcheck/pkg/domain"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <nip>...",
		Short: "Check the NIP checksum of one or more identifiers",
		Long: `Prints "<nip>\tvalid" or "<nip>\tinvalid" for each argument.
Exits 1 when any identifier is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	allValid := true
	for _, nip := range args {
		status := "valid"
		if !domain.IsValidNIP(nip) {
			status = "invalid"
			allValid = false
		}
		fmt.Fprintf(out, "%s\t%s\n", nip, status)
	}
	if !allValid {
		return &exitError{code: CLIExitInvalid}
	}
	return nil
}
