package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/consent"
	"github.com/consentlab/studyctl/internal/event"
	"github.com/consentlab/studyctl/internal/overlay"
	"github.com/consentlab/studyctl/internal/store"
	"github.com/consentlab/studyctl/internal/study"
)

// NewRunCommand creates the run command: an interactive session that
// keeps one controller mounted, with the real loading timer, until the
// participant quits. This is the reference client; the one-shot
// commands exist for scripting and recovery.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the study interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	return cmd
}

// repl drives one mounted client: a controller, the currently mounted
// overlay (if any), and the consent-history panel.
type repl struct {
	opts  *RootOptions
	out   io.Writer
	ctrl  *study.Controller
	ov    *overlay.Overlay
	panel *consent.Panel
}

func runInteractive(opts *RootOptions, in io.Reader, out io.Writer) error {
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

	r := &repl{opts: opts, out: out, ctrl: ctrl}
	r.panel = consent.NewPanel(func(t event.Type, target event.Target) {
		ctrl.Emit(ctx, t, target)
	})

	r.settle()
	r.render()

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			break
		}
		if line != "" {
			r.dispatch(ctx, st, line)
			r.settle()
			r.render()
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// settle mirrors a render pass: mount the overlay when an active step
// shows it, drop the handle once it has closed.
func (r *repl) settle() {
	if r.ov != nil && !r.ctrl.ShowCMP() {
		r.ov = nil
	}
	if r.ov == nil {
		r.ov = r.ctrl.MountOverlay()
	}
}

func (r *repl) dispatch(ctx context.Context, st *store.Store, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		r.help()

	case "next":
		advanced, err := r.ctrl.Advance(ctx)
		if err != nil {
			fmt.Fprintf(r.out, "warning: %v\n", err)
		}
		if advanced && r.ctrl.State() == study.StateLoading {
			fmt.Fprintln(r.out, "Loading next website...")
			// Small margin so the timer callback has run before the
			// next render.
			time.Sleep(r.opts.Config.LoadingDelay + 50*time.Millisecond)
		}

	case "accept":
		if r.resolve(func(o *overlay.Overlay) bool { return o.AcceptAll() }) {
			r.recordChoice(ctx, st, consent.ChoiceAcceptAll)
		}
	case "reject":
		if r.resolve(func(o *overlay.Overlay) bool { return o.RejectAll() }) {
			r.recordChoice(ctx, st, consent.ChoiceRejectAll)
		}
	case "save":
		if r.resolve(func(o *overlay.Overlay) bool { return o.SaveCustom() }) {
			r.recordChoice(ctx, st, consent.ChoiceCustom)
		}
	case "more":
		r.resolve(func(o *overlay.Overlay) bool { return o.MoreOptions() })
	case "back":
		r.resolve(func(o *overlay.Overlay) bool { return o.Back() })
	case "close":
		r.resolve(func(o *overlay.Overlay) bool { return o.CloseGlyph() })
	case "outside":
		r.resolve(func(o *overlay.Overlay) bool { return o.OutsideClick() })

	case "toggle":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: toggle <necessary|tracking|analytics|marketing>")
			return
		}
		r.resolve(func(o *overlay.Overlay) bool { return o.Toggle(overlay.Category(args[0])) })

	case "resize":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: resize <viewport-width>")
			return
		}
		width, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.out, "invalid width %q\n", args[0])
			return
		}
		r.ctrl.SetTooSmall(ctx, width < r.opts.Config.MinViewportWidth)

	case "history":
		r.panel.Toggle()
		if r.panel.Open() {
			r.printHistory(ctx, st)
		}

	case "retract":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: retract <site>")
			return
		}
		r.retract(ctx, st, args[0])

	case "dismiss":
		r.ctrl.DismissWarning()

	case "status":
		// render below covers it

	default:
		fmt.Fprintf(r.out, "unknown command %q (try help)\n", cmd)
	}
}

func (r *repl) resolve(fn func(*overlay.Overlay) bool) bool {
	if r.ov == nil {
		fmt.Fprintln(r.out, "no consent overlay is open")
		return false
	}
	if !fn(r.ov) {
		fmt.Fprintf(r.out, "not available in the %s layer\n", r.ov.Layer())
		return false
	}
	return true
}

func (r *repl) recordChoice(ctx context.Context, st *store.Store, choice consent.Choice) {
	page, ok := r.ctrl.CurrentPage()
	if !ok {
		return
	}
	if err := consent.RecordChoice(ctx, st, page.Name, choice, time.Now()); err != nil {
		fmt.Fprintf(r.out, "warning: consent history not recorded: %v\n", err)
	}
}

func (r *repl) retract(ctx context.Context, st *store.Store, site string) {
	if err := consent.Retract(ctx, st, site, time.Now()); err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return
	}
	r.ctrl.Emit(ctx, event.TypeConsentRetracted, event.TargetBtnRetractConsent)
	fmt.Fprintf(r.out, "consent retracted for %s\n", site)
}

func (r *repl) printHistory(ctx context.Context, st *store.Store) {
	h, err := consent.Load(ctx, st)
	if err != nil {
		fmt.Fprintf(r.out, "warning: %v\n", err)
		return
	}
	if len(h) == 0 {
		fmt.Fprintln(r.out, "no consent choices recorded yet")
		return
	}
	for _, site := range h.Sites() {
		fmt.Fprintf(r.out, "  %-12s %s\n", site, h[site].Choice)
	}
}

func (r *repl) render() {
	state := r.ctrl.State()
	bold := color.New(color.Bold).SprintFunc()

	switch state {
	case study.StateTooSmall:
		fmt.Fprintln(r.out, color.RedString("Screen size too small. Resize to continue."))

	case study.StateLoading:
		fmt.Fprintln(r.out, "Loading next website...")

	case study.StateIntro:
		fmt.Fprintf(r.out, "%s You will be shown %d websites; make your consent choice on each.\n",
			bold("Welcome to the study."), len(r.ctrl.Order()))
		fmt.Fprintln(r.out, "Type \"next\" to start.")

	case study.StateFinished:
		fmt.Fprintf(r.out, "%s Your completion code: %s\n",
			bold("Thank you for completing the study!"), r.ctrl.SessionID())

	case study.StateActiveStep:
		page, _ := r.ctrl.CurrentPage()
		fmt.Fprintf(r.out, "%s %s (step %d)\n", bold("Viewing:"), page.Name, r.ctrl.Step())
		if r.ov != nil {
			fmt.Fprintf(r.out, "  consent overlay: %s\n", r.ov.Layer())
		}
		if r.ctrl.Warning() {
			fmt.Fprintln(r.out, color.RedString("  You must make a consent choice before continuing."))
		}
	}
}

func (r *repl) help() {
	fmt.Fprintln(r.out, `commands:
  next                    advance to the next page
  accept | reject         resolve the overlay from the first layer
  more | back             switch overlay layers
  toggle <category>       flip a category toggle (second layer)
  save                    save custom selection (second layer)
  close                   close the overlay via the X control
  outside                 click outside the overlay
  resize <width>          set viewport width
  history                 toggle the consent-history panel
  retract <site>          retract a recorded consent choice
  dismiss                 dismiss the validation warning
  status                  re-render the current state
  quit                    leave (state is preserved)`)
}
