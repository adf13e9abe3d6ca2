package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/paddock/internal/entity"
	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/ledger"
	"github.com/roach88/paddock/internal/slot"
)

// SlotNewOptions holds flags for the slot new command.
type SlotNewOptions struct {
	*RootOptions
	Capacity int    // 0 means the configured default
	ReadOnly bool   // allocate without the write flag
	Fit      string // record name the slot must be able to hold
}

// SlotSummary describes a stored slot in command output.
type SlotSummary struct {
	ID       slot.ID `json:"id"`
	Capacity int     `json:"capacity"`
	Perm     string  `json:"perm"`
	State    string  `json:"state"`          // "empty", "record" or "malformed"
	Name     string  `json:"name,omitempty"` // record name when State is "record"
}

// Slot states reported by slot list.
const (
	SlotStateEmpty     = "empty"
	SlotStateRecord    = "record"
	SlotStateMalformed = "malformed"
)

// NewSlotCommand creates the slot command and its subcommands.
func NewSlotCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage stored slots",
	}

	cmd.AddCommand(newSlotNewCommand(rootOpts))
	cmd.AddCommand(newSlotListCommand(rootOpts))

	return cmd
}

func newSlotNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SlotNewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Allocate a zeroed slot",
		Long: `Allocate a zeroed slot in the ledger and print its ID.

Examples:
  paddock slot new
  paddock slot new --capacity 128
  paddock slot new --fit "Seabiscuit the Second"
  paddock slot new --read-only`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlotNew(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "slot capacity in bytes (default from config)")
	cmd.Flags().BoolVar(&opts.ReadOnly, "read-only", false, "allocate the slot without write permission")
	cmd.Flags().StringVar(&opts.Fit, "fit", "", "grow the default capacity to hold a record with this name")

	return cmd
}

func runSlotNew(opts *SlotNewOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	l, err := opts.openLedger(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	defer l.Close()

	capacity, err := slotCapacity(opts)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "failed to create slot", err))
	}
	perm := slot.PermReadWrite
	if opts.ReadOnly {
		perm = slot.PermRead
	}

	formatter.VerboseLog("Allocating %d-byte slot (%s)", capacity, perm)

	id, err := l.CreateSlot(commandContext(cmd), capacity, perm)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "failed to create slot", err))
	}

	if formatter.Format == "json" {
		return formatter.Success(SlotSummary{
			ID:       id,
			Capacity: capacity,
			Perm:     perm.String(),
			State:    SlotStateEmpty,
		})
	}
	fmt.Fprintln(formatter.Writer, id)
	return nil
}

// slotCapacity resolves the capacity for slot new. An explicit --capacity
// must hold the --fit name; the configured default grows to hold it.
func slotCapacity(opts *SlotNewOptions) (int, error) {
	if opts.Capacity != 0 {
		if opts.Fit != "" && !entity.Fits(opts.Capacity, opts.Fit) {
			return 0, fault.New(fault.CodeCapacityExceeded, "a record named %q needs %d bytes, capacity is %d",
				opts.Fit, entity.Size(opts.Fit), opts.Capacity)
		}
		return opts.Capacity, nil
	}

	capacity := opts.Config.DefaultCapacity
	if opts.Fit != "" && !entity.Fits(capacity, opts.Fit) {
		capacity = entity.Size(opts.Fit)
	}
	return capacity, nil
}

func newSlotListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored slots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlotList(rootOpts, cmd)
		},
	}

	return cmd
}

func runSlotList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	l, err := opts.openLedger(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	defer l.Close()

	infos, err := l.ListSlots(commandContext(cmd))
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "failed to list slots", err))
	}

	summaries := make([]SlotSummary, 0, len(infos))
	for _, info := range infos {
		summaries = append(summaries, summarize(info))
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No slots.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "%s  %6d  %-2s  %s", s.ID, s.Capacity, s.Perm, s.State)
		if s.Name != "" {
			fmt.Fprintf(formatter.Writer, "  %q", s.Name)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

// summarize classifies the stored bytes. Decoding ignores the slot's
// permissions: listing is a host-side view, not an invocation.
func summarize(info ledger.SlotInfo) SlotSummary {
	s := SlotSummary{
		ID:       info.ID,
		Capacity: info.Capacity,
		Perm:     info.Perm.String(),
		State:    SlotStateEmpty,
	}

	for _, b := range info.Data {
		if b != 0 {
			s.State = SlotStateMalformed
			break
		}
	}
	if s.State == SlotStateEmpty {
		return s
	}

	r, err := entity.Read(slot.Wrap(info.ID, info.Data, slot.PermRead))
	if err == nil {
		s.State = SlotStateRecord
		s.Name = r.Name
	}
	return s
}
