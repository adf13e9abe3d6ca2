package cli

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/record"
	"github.com/roach88/paddock/internal/slot"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Slots      []string // slot IDs, in payload index order
	Name       string
	Velocity   uint32
	Durability uint32
	Stability  uint32
	Raw        string // hex payload, replaces <op> and its arguments
	Caller     string // overrides config caller
}

// InvokeResult is the output of a successful invocation.
type InvokeResult struct {
	Op    string        `json:"op"`
	Slot  slot.ID       `json:"slot,omitempty"`
	Stats *record.Stats `json:"stats,omitempty"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke [op]",
		Short: "Invoke an operation through the entrypoint",
		Long: `Invoke an operation through the entrypoint against stored slots.

Operations: create, read, get_stats, upgrade_stats, start_session, end_session.
Slot operations target the first --slot. With --raw the hex payload is sent
as-is and may address any --slot by index.

Exit codes:
  0 - Invocation succeeded
  1 - Invocation rejected (the fault code is printed)
  2 - Command error (bad flags, ledger unavailable)

Examples:
  paddock invoke create --slot $ID --name Bo --velocity 1 --durability 2 --stability 3
  paddock invoke upgrade_stats --slot $ID --velocity 5
  paddock invoke get_stats --slot $ID --format json
  paddock invoke --raw 0200 --slot $ID`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeOperation(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Slots, "slot", nil, "slot ID (repeatable; slot operations use the first)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "record name (create)")
	cmd.Flags().Uint32Var(&opts.Velocity, "velocity", 0, "velocity, or its increment for upgrade_stats")
	cmd.Flags().Uint32Var(&opts.Durability, "durability", 0, "durability, or its increment for upgrade_stats")
	cmd.Flags().Uint32Var(&opts.Stability, "stability", 0, "stability, or its increment for upgrade_stats")
	cmd.Flags().StringVar(&opts.Raw, "raw", "", "raw instruction payload in hex")
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "caller identity (default from config)")

	return cmd
}

// buildInvocation parses the command arguments. With --raw it returns the
// decoded payload; otherwise it returns the named instruction and a nil payload.
func buildInvocation(opts *InvokeOptions, args []string) ([]byte, dispatch.Instruction, error) {
	if opts.Raw != "" {
		if len(args) > 0 {
			return nil, dispatch.Instruction{}, fmt.Errorf("--raw replaces the operation argument")
		}
		payload, err := hex.DecodeString(opts.Raw)
		if err != nil {
			return nil, dispatch.Instruction{}, fmt.Errorf("invalid --raw payload: %w", err)
		}
		return payload, dispatch.Instruction{}, nil
	}

	if len(args) == 0 {
		return nil, dispatch.Instruction{}, fmt.Errorf("an operation or --raw is required")
	}
	op, err := dispatch.ParseOp(args[0])
	if err != nil {
		return nil, dispatch.Instruction{}, err
	}
	if op.TargetsSlot() && len(opts.Slots) == 0 {
		return nil, dispatch.Instruction{}, fmt.Errorf("%s requires --slot", op)
	}

	return nil, dispatch.Instruction{
		Op:         op,
		Name:       opts.Name,
		Velocity:   opts.Velocity,
		Durability: opts.Durability,
		Stability:  opts.Stability,
	}, nil
}

func invokeOperation(opts *InvokeOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	payload, in, err := buildInvocation(opts, args)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "invalid invocation", err))
	}

	l, h, err := opts.openHost(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	defer l.Close()

	caller := dispatch.Identity(opts.Caller)
	if caller == "" {
		caller = dispatch.Identity(opts.Config.Caller)
	}
	ids := make([]slot.ID, len(opts.Slots))
	for i, s := range opts.Slots {
		ids[i] = slot.ID(s)
	}

	ctx := commandContext(cmd)
	var outcome dispatch.Outcome
	if payload != nil {
		formatter.VerboseLog("Invoking %x as %s on %d slot(s)", payload, caller, len(ids))
		outcome, err = h.Invoke(ctx, caller, ids, payload)
	} else {
		formatter.VerboseLog("Invoking %s as %s on %d slot(s)", in.Op, caller, len(ids))
		outcome, err = h.InvokeInstruction(ctx, caller, ids, in)
	}
	if err != nil {
		return formatter.Fail(err)
	}

	result := InvokeResult{Op: outcome.Op.String(), Slot: outcome.Slot}
	if outcome.Record != nil {
		stats := outcome.Record.Stats()
		result.Stats = &stats
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeInvokeText(formatter.Writer, result)
	return nil
}

func writeInvokeText(w io.Writer, r InvokeResult) {
	if r.Slot == "" {
		fmt.Fprintf(w, "✓ %s\n", r.Op)
	} else {
		fmt.Fprintf(w, "✓ %s (slot %s)\n", r.Op, r.Slot)
	}
	if r.Stats != nil {
		writeStatsText(w, *r.Stats)
	}
}

func writeStatsText(w io.Writer, s record.Stats) {
	fmt.Fprintf(w, "  name:       %s\n", s.Name)
	fmt.Fprintf(w, "  velocity:   %d\n", s.Velocity)
	fmt.Fprintf(w, "  durability: %d\n", s.Durability)
	fmt.Fprintf(w, "  stability:  %d\n", s.Stability)
}
