package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nipcheck/pkg/domain"
	dErrors "nipcheck/pkg/domain-errors"
)

var (
	guessJSON  bool
	guessStats bool
)

func newGuessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guess <pattern>",
		Short: "List every valid NIP matching a pattern with up to 3 'x' wildcards",
		Example: `  nipctl guess 123456321x
  nipctl guess --json 12345632xx`,
		Args: cobra.ExactArgs(1),
		RunE: runGuess,
	}
	cmd.Flags().BoolVar(&guessJSON, "json", false, "print {\"possibilities\": [...]} or {\"code\", \"message\"}")
	cmd.Flags().BoolVar(&guessStats, "stats", false, "print the number of candidates checked to stderr")
	return cmd
}

type guessOutput struct {
	Possibilities []string `json:"possibilities"`
}

func runGuess(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	res, err := domain.GuessWithStats(args[0])
	if err != nil {
		var de *dErrors.Error
		if guessJSON && errors.As(err, &de) {
			if encErr := json.NewEncoder(out).Encode(de); encErr != nil {
				return encErr
			}
			return &exitError{code: CLIExitInputError}
		}
		return &exitError{code: CLIExitInputError, err: fmt.Errorf("%s: %w", dErrors.CodeOf(err), err)}
	}

	if guessStats {
		fmt.Fprintf(cmd.ErrOrStderr(), "wildcards=%d candidates=%d matches=%d\n",
			res.Wildcards, res.CandidatesTested, len(res.Possibilities))
	}

	if guessJSON {
		return json.NewEncoder(out).Encode(guessOutput{Possibilities: res.Possibilities})
	}
	for _, p := range res.Possibilities {
		fmt.Fprintln(out, p)
	}
	return nil
}
