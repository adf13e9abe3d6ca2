package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/paddock/internal/ledger"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Caller string // optional - filter to one caller
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the invocation log",
		Long: `Show every recorded invocation in sequence order, including rejected ones.

Examples:
  paddock log
  paddock log --caller alice --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "caller", "", "only show invocations by this caller")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	l, err := opts.openLedger(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	defer l.Close()

	ctx := commandContext(cmd)
	var invs []ledger.Invocation
	if opts.Caller != "" {
		invs, err = l.ReadInvocationsByCaller(ctx, opts.Caller)
	} else {
		invs, err = l.ReadInvocations(ctx)
	}
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "failed to read log", err))
	}

	if formatter.Format == "json" {
		if invs == nil {
			invs = []ledger.Invocation{}
		}
		return formatter.Success(invs)
	}

	if len(invs) == 0 {
		fmt.Fprintln(formatter.Writer, "No invocations.")
		return nil
	}
	for _, inv := range invs {
		fmt.Fprintf(formatter.Writer, "%4d  %-12s  %-14s  %s", inv.Seq, inv.Caller, inv.Operation, inv.Status)
		if inv.ErrorCode != "" {
			fmt.Fprintf(formatter.Writer, "  %s", inv.ErrorCode)
		}
		fmt.Fprintln(formatter.Writer)
		formatter.VerboseLog("      id=%s payload=%x slots=%v", inv.ID, inv.Payload, inv.SlotIDs)
	}
	return nil
}
