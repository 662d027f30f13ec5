// Package cli implements the studyctl command tree. One-shot commands
// treat each invocation as a client mount: the controller rehydrates
// from the SQLite profile, performs its action, flushes the event
// queue, and exits. The run command keeps a controller mounted for a
// whole interactive session.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/consentlab/studyctl/internal/catalog"
	"github.com/consentlab/studyctl/internal/config"
	"github.com/consentlab/studyctl/internal/sink"
	"github.com/consentlab/studyctl/internal/store"
)

// RootOptions holds global flags and resolved configuration.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DBPath  string

	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the studyctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "studyctl",
		Short: "studyctl - consent study session controller",
		Long: `studyctl runs a controlled consent-prompt user study: a fixed set of
stimulus pages in a frozen randomized order, gated on explicit consent
decisions, with every interaction appended to an event log.

Session state lives in a SQLite profile and survives restarts; each
invocation rehydrates exactly where the participant left off.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.Config = cfg
			if opts.DBPath != "" {
				opts.Config.DBPath = opts.DBPath
			}

			setupLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite session profile (overrides STUDYCTL_DB)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewAdvanceCommand(opts))
	cmd.AddCommand(NewOverlayCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the session profile database.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.Config.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open session profile", err)
	}
	return st, nil
}

// buildSink selects the transport (remote when a sink URL is
// configured, the local events table otherwise) and wraps it for
// fire-and-forget dispatch. Callers must Close the sink to drain the
// queue before exiting.
func buildSink(opts *RootOptions, st *store.Store) *sink.Async {
	var transport sink.Sink
	if opts.Config.SinkURL != "" {
		transport = sink.NewHTTP(opts.Config.SinkURL, opts.Config.SinkToken)
	} else {
		transport = sink.NewLocal(st)
	}
	return sink.NewAsync(transport)
}

// loadCatalog returns the configured stimulus catalog.
func loadCatalog(opts *RootOptions) (catalog.Catalog, error) {
	if opts.Config.CatalogPath == "" {
		return catalog.Default(), nil
	}
	pages, err := catalog.Load(opts.Config.CatalogPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	return pages, nil
}
