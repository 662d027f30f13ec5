package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/consent"
	"github.com/consentlab/studyctl/internal/overlay"
	"github.com/consentlab/studyctl/internal/store"
	"github.com/consentlab/studyctl/internal/study"
)

// NewOverlayCommand creates the overlay command group. Each subcommand
// mounts the consent overlay fresh for the current step (the overlay's
// sub-state never survives between invocations, only the open bit
// does) and resolves it with a terminal action.
func NewOverlayCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Resolve the consent overlay for the current step",
	}

	cmd.AddCommand(newOverlayActionCommand(opts, "accept", "Accept all categories",
		consent.ChoiceAcceptAll,
		func(o *overlay.Overlay, _ []overlay.Category) bool { return o.AcceptAll() },
	))
	cmd.AddCommand(newOverlayActionCommand(opts, "reject", "Reject all categories",
		consent.ChoiceRejectAll,
		func(o *overlay.Overlay, _ []overlay.Category) bool { return o.RejectAll() },
	))

	custom := newOverlayActionCommand(opts, "custom", "Save a custom category selection",
		consent.ChoiceCustom,
		func(o *overlay.Overlay, toggles []overlay.Category) bool {
			if !o.MoreOptions() {
				return false
			}
			for _, c := range toggles {
				o.Toggle(c)
			}
			return o.SaveCustom()
		},
	)
	custom.Flags().StringSlice("toggle", nil,
		"categories to enable (necessary|tracking|analytics|marketing)")
	cmd.AddCommand(custom)

	return cmd
}

func newOverlayActionCommand(
	opts *RootOptions,
	name, short string,
	choice consent.Choice,
	action func(*overlay.Overlay, []overlay.Category) bool,
) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var toggles []overlay.Category
			if names, err := cmd.Flags().GetStringSlice("toggle"); err == nil {
				for _, n := range names {
					toggles = append(toggles, overlay.Category(n))
				}
			}
			return runOverlayAction(opts, cmd.OutOrStdout(), choice, toggles, action)
		},
	}
}

func runOverlayAction(
	opts *RootOptions,
	w io.Writer,
	choice consent.Choice,
	toggles []overlay.Category,
	action func(*overlay.Overlay, []overlay.Category) bool,
) error {
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

	ctrl, err := study.New(ctx, st, snk, pages,
		study.WithLoadingDuration(opts.Config.LoadingDelay),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to mount controller", err)
	}
	defer ctrl.Close()

	ov := ctrl.MountOverlay()
	if ov == nil {
		return NewExitError(ExitFailure,
			fmt.Sprintf("no consent overlay to resolve (state %s)", ctrl.State()))
	}

	page, _ := ctrl.CurrentPage()
	if !action(ov, toggles) {
		return NewExitError(ExitFailure, "overlay action rejected")
	}

	// The consent-history view records the terminal choice; the step
	// machine itself never touches the history.
	if err := recordHistoryChoice(ctx, st, page.Name, choice); err != nil {
		return WrapExitError(ExitCommandError, "failed to record consent history", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(struct {
		Site    string `json:"site"`
		Choice  string `json:"choice"`
		ShowCMP bool   `json:"show_cmp"`
	}{page.Name, string(choice), ctrl.ShowCMP()}, func(w io.Writer) {
		fmt.Fprintf(w, "consent resolved for %s: %s\n", page.Name, choice)
	})
}

func recordHistoryChoice(ctx context.Context, st *store.Store, site string, choice consent.Choice) error {
	return consent.RecordChoice(ctx, st, site, choice, time.Now())
}
