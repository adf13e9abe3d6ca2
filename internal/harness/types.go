package harness

import "github.com/roach88/paddock/internal/record"

// TraceEvent records one executed step.
type TraceEvent struct {
	// Step is the zero-based step index.
	Step int `json:"step"`

	// Op is the selector name, "op(0xNN)" for unmapped selectors, or ""
	// for an empty payload.
	Op string `json:"op"`

	// Slot is the target slot, empty for session operations and for
	// payloads that fail before a slot is resolved.
	Slot string `json:"slot,omitempty"`

	// Error is the fault code of a failed step.
	Error string `json:"error,omitempty"`

	// Stats is the record projection after a successful slot operation.
	Stats *record.Stats `json:"stats,omitempty"`

	// Data is the hex encoding of the target slot after the step.
	Data string `json:"data,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
