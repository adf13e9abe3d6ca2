package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/paddock/internal/entity"
	"github.com/roach88/paddock/internal/slot"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Slot     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s on slot %s\n", e.Type, e.Slot)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final slots and
// returns one error per failure.
func EvaluateAssertions(assertions []Assertion, table *slot.Table) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluateAssertion(a, table); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, table *slot.Table) error {
	s, err := table.Lookup(slot.ID(a.Slot))
	if err != nil {
		return err
	}

	switch a.Type {
	case AssertFinalStats:
		// Assertions inspect raw bytes regardless of the slot's permissions.
		got, err := entity.GetStats(slot.Wrap(s.ID(), s.Bytes(), slot.PermRead))
		if err != nil {
			return &AssertionError{
				Type:     a.Type,
				Slot:     a.Slot,
				Expected: fmt.Sprintf("%+v", *a.Stats),
				Actual:   err.Error(),
			}
		}
		if got != *a.Stats {
			return &AssertionError{
				Type:     a.Type,
				Slot:     a.Slot,
				Expected: fmt.Sprintf("%+v", *a.Stats),
				Actual:   fmt.Sprintf("%+v", got),
			}
		}
	case AssertUninitialized:
		for i, b := range s.Bytes() {
			if b != 0 {
				return &AssertionError{
					Type:     a.Type,
					Slot:     a.Slot,
					Expected: "all zero bytes",
					Actual:   fmt.Sprintf("non-zero byte at offset %d", i),
				}
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
