// Package dispatch is the entrypoint a host calls with a caller identity,
// the slots made available for the call, and an opaque instruction payload.
//
// Each invocation decodes one selector, consults the Authorizer, and runs
// exactly one entity operation. Errors from the entity layer reach the host
// unchanged; the entrypoint never retries. The entrypoint keeps no state
// between invocations.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/roach88/paddock/internal/entity"
	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/record"
	"github.com/roach88/paddock/internal/slot"
)

// Outcome describes a successful invocation.
type Outcome struct {
	// Op is the operation that ran.
	Op Op

	// Slot is the target slot, empty for session operations.
	Slot slot.ID

	// Record is the record after the operation, nil for session operations.
	Record *record.Record
}

// Entrypoint routes instruction payloads to entity operations.
type Entrypoint struct {
	logger     *slog.Logger
	authorizer Authorizer
}

// Option configures an Entrypoint.
type Option func(*Entrypoint)

// WithLogger sets the logger used for session acknowledgements and
// diagnostics. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Entrypoint) {
		e.logger = logger
	}
}

// WithAuthorizer sets the caller authorization hook. Default: AllowAll.
func WithAuthorizer(a Authorizer) Option {
	return func(e *Entrypoint) {
		e.authorizer = a
	}
}

// New creates an Entrypoint.
func New(opts ...Option) *Entrypoint {
	e := &Entrypoint{
		logger:     slog.Default(),
		authorizer: AllowAll{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invoke decodes payload and runs the selected operation against slots.
//
// The payload's slot argument is a position in slots. The payload is decoded
// before slots are examined: an unknown selector fails with
// CodeUnknownOperation and session operations succeed whatever slots were
// supplied. Slot operations fail with CodeDuplicateSlot if the same slot
// appears twice.
func (e *Entrypoint) Invoke(ctx context.Context, caller Identity, slots []*slot.Slot, payload []byte) (Outcome, error) {
	in, err := DecodeInstruction(payload)
	if err != nil {
		e.logger.Debug("instruction rejected", "caller", caller, "error", err)
		return Outcome{}, err
	}

	switch in.Op {
	case OpStartSession:
		e.logger.Info("session started", "caller", caller)
		return Outcome{Op: in.Op}, nil
	case OpEndSession:
		e.logger.Info("session ended", "caller", caller)
		return Outcome{Op: in.Op}, nil
	}

	table, err := slot.NewTable(slots...)
	if err != nil {
		return Outcome{}, err
	}

	target, err := table.At(int(in.Slot))
	if err != nil {
		return Outcome{}, err
	}

	if err := e.authorizer.Authorize(ctx, caller, in.Op, target.ID()); err != nil {
		return Outcome{}, fault.Wrap(fault.CodeUnauthorized, in.Op.String(), err).WithSlot(string(target.ID()))
	}

	r, err := e.run(in, target)
	if err != nil {
		e.logger.Debug("operation failed",
			"caller", caller,
			"op", in.Op.String(),
			"slot", target.ID(),
			"error", err,
		)
		return Outcome{}, err
	}

	e.logger.Debug("operation completed",
		"caller", caller,
		"op", in.Op.String(),
		"slot", target.ID(),
	)
	return Outcome{Op: in.Op, Slot: target.ID(), Record: &r}, nil
}

// InvokeInstruction encodes in and invokes it.
func (e *Entrypoint) InvokeInstruction(ctx context.Context, caller Identity, slots []*slot.Slot, in Instruction) (Outcome, error) {
	return e.Invoke(ctx, caller, slots, in.Encode())
}

func (e *Entrypoint) run(in Instruction, target *slot.Slot) (record.Record, error) {
	switch in.Op {
	case OpCreate:
		return entity.Create(target, in.Name, in.Velocity, in.Durability, in.Stability)
	case OpRead:
		return entity.Read(target)
	case OpGetStats:
		stats, err := entity.GetStats(target)
		if err != nil {
			return record.Record{}, err
		}
		return record.Record(stats), nil
	case OpUpgradeStats:
		return entity.UpgradeStats(target, in.Velocity, in.Durability, in.Stability)
	default:
		return record.Record{}, fault.New(fault.CodeUnknownOperation, "selector 0x%02x", uint8(in.Op))
	}
}
