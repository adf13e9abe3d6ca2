// Package cli implements the paddock command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/paddock/internal/config"
	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/host"
	"github.com/roach88/paddock/internal/ledger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides config database when set

	// Resolved by setup.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the paddock CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "paddock",
		Short: "paddock - fixed-capacity record slots",
		Long: `Create, read and upgrade named records stored in fixed-capacity slots.

Slots and the invocation log live in a SQLite ledger. Every invocation
runs through the same entrypoint a remote host would call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := opts.setup(cmd.ErrOrStderr()); err != nil {
				return opts.formatter(cmd).Fail(err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a paddock.cue config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the ledger database (overrides config)")

	cmd.AddCommand(NewSlotCommand(opts))
	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and installs the logger. It is idempotent so
// subcommands built without the root command still work.
func (o *RootOptions) setup(logOut io.Writer) error {
	if o.Config != nil {
		return nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}

	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}

	o.Config = cfg
	o.Logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	return nil
}

// openHost opens the configured ledger and binds an entrypoint to it.
// The caller must close the returned ledger.
func (o *RootOptions) openHost(cmd *cobra.Command) (*ledger.Ledger, *host.Host, error) {
	if err := o.setup(cmd.ErrOrStderr()); err != nil {
		return nil, nil, err
	}

	l, err := ledger.Open(o.Config.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}

	ep := dispatch.New(dispatch.WithLogger(o.Logger))
	return l, host.New(l, ep, host.WithLogger(o.Logger)), nil
}

// openLedger opens the configured ledger for read-only commands.
func (o *RootOptions) openLedger(cmd *cobra.Command) (*ledger.Ledger, error) {
	if err := o.setup(cmd.ErrOrStderr()); err != nil {
		return nil, err
	}

	l, err := ledger.Open(o.Config.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return l, nil
}

// formatter builds the OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
