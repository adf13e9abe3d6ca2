// Package host runs the dispatch entrypoint against slots stored in the
// ledger.
//
// Each Invoke is one ledger transaction: the requested slots are loaded, the
// entrypoint runs, the invocation is appended to the log, and, if the
// operation succeeded and mutates its slot, the new slot bytes are saved.
// A failed invocation is still logged, with its fault code, but never
// persists slot bytes.
//
// The ledger's single SQLite connection serializes invocations, which is how
// the host upholds the single-writer-per-slot assumption of the entrypoint.
package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/ledger"
	"github.com/roach88/paddock/internal/slot"
)

// Host binds an Entrypoint to a Ledger.
type Host struct {
	ledger     *ledger.Ledger
	entrypoint *dispatch.Entrypoint
	logger     *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// New creates a Host.
func New(l *ledger.Ledger, ep *dispatch.Entrypoint, opts ...Option) *Host {
	h := &Host{
		ledger:     l,
		entrypoint: ep,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Invoke runs payload against the stored slots named by slotIDs.
//
// The returned error is the entrypoint's error, unchanged, when the
// invocation itself failed; it is a wrapped infrastructure error when the
// ledger could not load or commit.
func (h *Host) Invoke(ctx context.Context, caller dispatch.Identity, slotIDs []slot.ID, payload []byte) (dispatch.Outcome, error) {
	var (
		outcome   dispatch.Outcome
		invokeErr error
		entry     ledger.Invocation
	)

	err := h.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		slots, err := tx.LoadSlots(ctx, slotIDs)
		if err != nil {
			return err
		}

		outcome, invokeErr = h.entrypoint.Invoke(ctx, caller, slots, payload)

		entry = ledger.Invocation{
			Caller:    string(caller),
			Operation: operationName(payload),
			Payload:   payload,
			SlotIDs:   slotIDs,
			Status:    ledger.StatusOK,
		}
		if invokeErr != nil {
			entry.Status = ledger.StatusError
			entry.ErrorCode = string(fault.CodeOf(invokeErr))
			entry.ErrorMessage = invokeErr.Error()
		}

		entry, err = tx.AppendInvocation(ctx, entry)
		if err != nil {
			return err
		}

		if invokeErr != nil || !outcome.Op.Mutates() {
			return nil
		}
		for _, s := range slots {
			if s.ID() == outcome.Slot {
				return tx.SaveSlot(ctx, s, entry.Seq)
			}
		}
		return fmt.Errorf("outcome slot %s not among loaded slots", outcome.Slot)
	})
	if err != nil {
		return dispatch.Outcome{}, fmt.Errorf("invoke: %w", err)
	}

	h.logger.Info("invocation recorded",
		"invocation", entry.ID,
		"seq", entry.Seq,
		"caller", caller,
		"op", entry.Operation,
		"status", entry.Status,
	)
	return outcome, invokeErr
}

// InvokeInstruction encodes in and invokes it.
func (h *Host) InvokeInstruction(ctx context.Context, caller dispatch.Identity, slotIDs []slot.ID, in dispatch.Instruction) (dispatch.Outcome, error) {
	return h.Invoke(ctx, caller, slotIDs, in.Encode())
}

// operationName returns the selector name for the log, "" for an empty payload.
func operationName(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	return dispatch.Op(payload[0]).String()
}
