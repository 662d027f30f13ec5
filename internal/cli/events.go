package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewEventsCommand creates the events command: list the local
// append-only interaction log. Only meaningful when no remote sink is
// configured (events then land in the profile's events table).
func NewEventsCommand(opts *RootOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List locally logged interaction events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd.OutOrStdout(), sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "filter by session id (default: all)")
	return cmd
}

func runEvents(opts *RootOptions, w io.Writer, sessionID string) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.ListEvents(context.Background(), sessionID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list events", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(events, func(w io.Writer) {
		if len(events) == 0 {
			fmt.Fprintln(w, "no events logged")
			return
		}
		for _, ev := range events {
			site := ev.Record.SiteName
			if site == "" {
				site = "-"
			}
			fmt.Fprintf(w, "%6d  step=%-2d  %-20s %-22s %s\n",
				ev.ID, ev.Record.StepIndex, ev.Record.Type, ev.Record.Target, site)
		}
	})
}
