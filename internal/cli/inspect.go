package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/paddock/internal/entity"
	"github.com/roach88/paddock/internal/record"
	"github.com/roach88/paddock/internal/slot"
)

// InspectResult is the decoded view of a stored slot.
type InspectResult struct {
	Slot       SlotSummary   `json:"slot"`
	Stats      *record.Stats `json:"stats,omitempty"`
	Data       string        `json:"data"` // hex
	CreatedSeq int64         `json:"created_seq"`
	UpdatedSeq int64         `json:"updated_seq"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <slot-id>",
		Short: "Decode a stored slot",
		Long: `Decode the record stored in a slot without going through the entrypoint.

Slot permissions are ignored and nothing is logged. A slot that does not
hold a record reports its decode error and exits 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, slot.ID(args[0]), cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, id slot.ID, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	l, err := opts.openLedger(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	defer l.Close()

	info, err := l.ReadSlot(commandContext(cmd), id)
	if err != nil {
		return formatter.Fail(err)
	}

	formatter.VerboseLog("Slot %s: %x", id, info.Data)

	r, err := entity.Read(slot.Wrap(info.ID, info.Data, slot.PermRead))
	if err != nil {
		return formatter.Fail(err)
	}
	stats := r.Stats()

	if formatter.Format == "json" {
		return formatter.Success(InspectResult{
			Slot:       summarize(info),
			Stats:      &stats,
			Data:       hex.EncodeToString(info.Data),
			CreatedSeq: info.CreatedSeq,
			UpdatedSeq: info.UpdatedSeq,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s (%d bytes, %s, record uses %d)\n", id, info.Capacity, info.Perm, r.Size())
	writeStatsText(formatter.Writer, stats)
	return nil
}
