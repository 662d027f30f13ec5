package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/study"
)

// NewAdvanceCommand creates the advance command: one attempt to move
// to the next step, subject to the validation gate.
func NewAdvanceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Attempt to advance to the next step",
		Long: `Attempt to advance to the next step.

Blocked while the consent overlay is open: the step does not change and
the validation warning is raised instead. Resolve the overlay first
(see "studyctl overlay").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvance(opts, cmd.OutOrStdout())
		},
	}
	return cmd
}

func runAdvance(opts *RootOptions, w io.Writer) error {
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

	advanced, err := ctrl.Advance(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "advance persisted partially", err)
	}

	data := struct {
		Advanced bool   `json:"advanced"`
		Step     int    `json:"step"`
		State    string `json:"state"`
		Warning  bool   `json:"warning"`
	}{
		Advanced: advanced,
		Step:     ctrl.Step(),
		State:    ctrl.State().String(),
		Warning:  ctrl.Warning(),
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	if err := f.Success(data, func(w io.Writer) {
		if advanced {
			fmt.Fprintf(w, "advanced to step %d (%s)\n", data.Step, colorState(data.State))
			return
		}
		if data.Warning {
			fmt.Fprintln(w, color.RedString("blocked: make a consent choice before continuing"))
			return
		}
		fmt.Fprintln(w, "nothing to advance")
	}); err != nil {
		return err
	}

	if !advanced && data.Warning {
		return NewExitError(ExitFailure, "advance blocked by open consent overlay")
	}
	return nil
}
