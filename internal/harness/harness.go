package harness

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/slot"
)

// Harness executes scenarios against in-memory slots.
type Harness struct {
	entrypoint *dispatch.Entrypoint
	logger     *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to the entrypoint. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.entrypoint = dispatch.New(dispatch.WithLogger(h.logger))
	return h
}

// Run executes a test scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Every run starts from freshly zeroed slots, so results depend only on the
// scenario. A returned error means the scenario could not be executed; step
// and assertion failures are reported in Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	slots, err := buildSlots(scenario.Slots)
	if err != nil {
		return nil, err
	}
	table, err := slot.NewTable(slots...)
	if err != nil {
		return nil, fmt.Errorf("build slot table: %w", err)
	}
	index := make(map[string]uint8, len(scenario.Slots))
	for i, spec := range scenario.Slots {
		index[spec.Name] = uint8(i)
	}

	caller := dispatch.Identity(scenario.Caller)
	if caller == "" {
		caller = DefaultCaller
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		var before [][]byte
		if step.Expect != nil && step.Expect.Unchanged {
			before = snapshot(slots)
		}

		var (
			op        string
			outcome   dispatch.Outcome
			invokeErr error
		)
		if step.Payload != "" {
			payload, err := hex.DecodeString(step.Payload)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			op = operationName(payload)
			outcome, invokeErr = h.entrypoint.Invoke(ctx, caller, slots, payload)
		} else {
			in, err := stepInstruction(step, index)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			op = in.Op.String()
			outcome, invokeErr = h.entrypoint.InvokeInstruction(ctx, caller, slots, in)
		}

		event := TraceEvent{Step: i, Op: op}
		switch {
		case invokeErr == nil:
			event.Slot = string(outcome.Slot)
		case step.Slot != "":
			event.Slot = step.Slot
		}
		if invokeErr != nil {
			event.Error = string(fault.CodeOf(invokeErr))
		}
		if outcome.Record != nil {
			stats := outcome.Record.Stats()
			event.Stats = &stats
		}
		if event.Slot != "" {
			s, err := table.Lookup(slot.ID(event.Slot))
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			event.Data = hex.EncodeToString(s.Bytes())
		}
		result.Trace = append(result.Trace, event)

		for _, msg := range checkStep(step, outcome, invokeErr, before, slots) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, event.Op, msg))
		}
	}

	for _, err := range EvaluateAssertions(scenario.Assertions, table) {
		result.AddError(err.Error())
	}

	return result, nil
}

func buildSlots(specs []SlotSpec) ([]*slot.Slot, error) {
	slots := make([]*slot.Slot, 0, len(specs))
	for _, spec := range specs {
		if spec.Capacity < 0 {
			return nil, fmt.Errorf("slot %s: negative capacity %d", spec.Name, spec.Capacity)
		}
		perm, err := parsePerm(spec.Perm)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", spec.Name, err)
		}
		slots = append(slots, slot.New(slot.ID(spec.Name), spec.Capacity, perm))
	}
	return slots, nil
}

// stepInstruction builds the instruction for a named-op step.
func stepInstruction(step Step, index map[string]uint8) (dispatch.Instruction, error) {
	op, err := dispatch.ParseOp(step.Op)
	if err != nil {
		return dispatch.Instruction{}, err
	}
	in := dispatch.Instruction{Op: op}
	if op.TargetsSlot() {
		i, ok := index[step.Slot]
		if !ok {
			return dispatch.Instruction{}, fmt.Errorf("unknown slot %q", step.Slot)
		}
		in.Slot = i
	}
	if step.Args != nil {
		in.Name = step.Args.Name
		in.Velocity = step.Args.Velocity
		in.Durability = step.Args.Durability
		in.Stability = step.Args.Stability
	}
	return in, nil
}

func checkStep(step Step, outcome dispatch.Outcome, invokeErr error, before [][]byte, slots []*slot.Slot) []string {
	var msgs []string
	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}

	switch {
	case expect.Error == "" && invokeErr != nil:
		msgs = append(msgs, fmt.Sprintf("unexpected error: %v", invokeErr))
	case expect.Error != "" && invokeErr == nil:
		msgs = append(msgs, fmt.Sprintf("expected error %s, got success", expect.Error))
	case expect.Error != "" && string(fault.CodeOf(invokeErr)) != expect.Error:
		msgs = append(msgs, fmt.Sprintf("expected error %s, got %v", expect.Error, invokeErr))
	}

	if expect.Stats != nil && invokeErr == nil {
		if outcome.Record == nil {
			msgs = append(msgs, fmt.Sprintf("expected stats %+v, got none", *expect.Stats))
		} else if got := outcome.Record.Stats(); got != *expect.Stats {
			msgs = append(msgs, fmt.Sprintf("expected stats %+v, got %+v", *expect.Stats, got))
		}
	}

	if before != nil {
		for i, s := range slots {
			if !bytes.Equal(before[i], s.Bytes()) {
				msgs = append(msgs, fmt.Sprintf("slot %s changed", s.ID()))
			}
		}
	}
	return msgs
}

func snapshot(slots []*slot.Slot) [][]byte {
	out := make([][]byte, len(slots))
	for i, s := range slots {
		out[i] = bytes.Clone(s.Bytes())
	}
	return out
}

// operationName returns the selector name, "" for an empty payload.
func operationName(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	return dispatch.Op(payload[0]).String()
}
