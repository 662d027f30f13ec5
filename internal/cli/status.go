package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/session"
	"github.com/consentlab/studyctl/internal/study"
)

// statusData is the status command payload.
type statusData struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Step      int    `json:"step"`
	PageCount int    `json:"page_count"`
	Order     []int  `json:"order"`
	Site      string `json:"site,omitempty"`
	ShowCMP   bool   `json:"show_cmp"`
	Started   bool   `json:"session_started"`
	Ended     bool   `json:"session_ended"`
}

// NewStatusCommand creates the status command. Status is a passive
// read: it rehydrates the record without mounting a controller, so it
// emits no events.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd.OutOrStdout())
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, w io.Writer) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := loadCatalog(opts)
	if err != nil {
		return err
	}

	rec, err := session.Load(context.Background(), st, pages.Len())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	data := statusData{
		SessionID: rec.SessionID,
		State:     study.DeriveState(rec.Step, pages.Len(), false, false).String(),
		Step:      rec.Step,
		PageCount: pages.Len(),
		Order:     rec.Order,
		ShowCMP:   rec.ShowCMP,
		Started:   rec.Started,
		Ended:     rec.Ended,
	}
	if rec.Step >= 0 && rec.Step < pages.Len() {
		if page, ok := pages.Page(rec.Order[rec.Step]); ok {
			data.Site = page.Name
		}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Success(data, func(w io.Writer) {
		bold := color.New(color.Bold).SprintFunc()
		fmt.Fprintf(w, "%s %s\n", bold("session:"), data.SessionID)
		fmt.Fprintf(w, "%s %s\n", bold("state:"), colorState(data.State))
		fmt.Fprintf(w, "%s %d/%d (order %v)\n", bold("step:"), data.Step, data.PageCount, data.Order)
		if data.Site != "" {
			fmt.Fprintf(w, "%s %s\n", bold("site:"), data.Site)
		}
		fmt.Fprintf(w, "%s %v\n", bold("overlay open:"), data.ShowCMP)
		fmt.Fprintf(w, "%s started=%v ended=%v\n", bold("latches:"), data.Started, data.Ended)
	})
}

func colorState(state string) string {
	switch state {
	case "intro":
		return color.CyanString(state)
	case "active_step":
		return color.GreenString(state)
	case "finished":
		return color.MagentaString(state)
	case "too_small":
		return color.RedString(state)
	default:
		return state
	}
}
