package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/consent"
	"github.com/consentlab/studyctl/internal/event"
	"github.com/consentlab/studyctl/internal/session"
)

// NewHistoryCommand creates the consent-history command group.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or retract recorded consent choices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List consent choices per site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "retract <site>",
		Short: "Retract a previously recorded consent choice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryRetract(opts, cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func runHistoryList(opts *RootOptions, w io.Writer) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	h, err := consent.Load(context.Background(), st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load consent history", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(h, func(w io.Writer) {
		if len(h) == 0 {
			fmt.Fprintln(w, "no consent choices recorded yet")
			return
		}
		for _, site := range h.Sites() {
			entry := h[site]
			line := fmt.Sprintf("%-12s %s at %s", site, entry.Choice,
				entry.Timestamp.Format(time.RFC3339))
			if entry.Choice == consent.ChoiceRetracted && entry.RetractionTimestamp != nil {
				line += fmt.Sprintf(" (retracted %s)",
					entry.RetractionTimestamp.Format(time.RFC3339))
				fmt.Fprintln(w, color.RedString(line))
				continue
			}
			fmt.Fprintln(w, line)
		}
	})
}

func runHistoryRetract(opts *RootOptions, w io.Writer, site string) error {
	ctx := context.Background()

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := loadCatalog(opts)
	if err != nil {
		return err
	}

	snk := buildSink(opts, st)
	defer snk.Close()

	// Passive rehydration: retraction is a history-view action, not a
	// controller mount, so no reload event is produced.
	rec, err := session.Load(ctx, st, pages.Len())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	if err := consent.Retract(ctx, st, site, time.Now()); err != nil {
		return WrapExitError(ExitFailure, "retract rejected", err)
	}
	_ = snk.Emit(ctx, event.Record{
		SessionID:     rec.SessionID,
		DesignVariant: event.DesignBaseline,
		SiteName:      site,
		StepIndex:     rec.Step,
		Type:          event.TypeConsentRetracted,
		Target:        event.TargetBtnRetractConsent,
	})

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(struct {
		Site      string `json:"site"`
		Retracted bool   `json:"retracted"`
	}{site, true}, func(w io.Writer) {
		fmt.Fprintf(w, "consent retracted for %s\n", site)
	})
}
