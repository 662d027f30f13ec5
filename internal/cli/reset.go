package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/session"
)

// NewResetCommand creates the reset command: the operator-only full
// reset. Clears every persistence key so the next load generates a
// fresh identity and order. Never part of the participant flow.
func NewResetCommand(opts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all session state (operator action)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to reset without --yes")
			}
			return runReset(opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func runReset(opts *RootOptions, w io.Writer) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := session.Reset(context.Background(), st); err != nil {
		return WrapExitError(ExitCommandError, "failed to reset session", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(struct {
		Reset bool `json:"reset"`
	}{true}, func(w io.Writer) {
		fmt.Fprintln(w, "session state cleared; next load starts a fresh session")
	})
}
