package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/paddock/internal/dispatch"
	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/record"
	"github.com/roach88/paddock/internal/slot"
)

// DefaultCaller is the identity used when a scenario does not name one.
const DefaultCaller = "harness"

// Scenario defines a conformance test scenario.
// Scenarios run a sequence of instructions against fresh slots and check
// each outcome and the final slot contents.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Caller is the identity passed to the entrypoint. Default: "harness".
	Caller string `yaml:"caller,omitempty"`

	// Slots are allocated zeroed before the first step and passed, in this
	// order, to every invocation.
	Slots []SlotSpec `yaml:"slots"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final slot contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SlotSpec declares one slot.
type SlotSpec struct {
	// Name is the scenario-local slot name, also used as its ID.
	Name string `yaml:"name"`

	// Capacity is the fixed buffer size in bytes.
	Capacity int `yaml:"capacity"`

	// Perm is "rw" (default), "r", "w" or "-".
	Perm string `yaml:"perm,omitempty"`
}

// Step is one invocation.
// Either Op (with Slot and Args as needed) or Payload is set.
type Step struct {
	// Op is an operation name such as "create" or "get_stats".
	Op string `yaml:"op,omitempty"`

	// Slot names the target slot for slot operations.
	Slot string `yaml:"slot,omitempty"`

	// Args carries create fields or upgrade increments.
	Args *StepArgs `yaml:"args,omitempty"`

	// Payload is a raw hex payload, for selectors and layouts Op cannot express.
	Payload string `yaml:"payload,omitempty"`

	// Expect validates the outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// StepArgs are the numeric and text arguments of a step.
type StepArgs struct {
	Name       string `yaml:"name,omitempty"`
	Velocity   uint32 `yaml:"velocity,omitempty"`
	Durability uint32 `yaml:"durability,omitempty"`
	Stability  uint32 `yaml:"stability,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected fault code. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Stats is the expected record projection after the step.
	Stats *record.Stats `yaml:"stats,omitempty"`

	// Unchanged requires every slot to be byte-identical before and after.
	Unchanged bool `yaml:"unchanged,omitempty"`
}

// Assertion validates final slot contents.
type Assertion struct {
	// Type is "final_stats" or "uninitialized".
	Type string `yaml:"type"`

	// Slot names the slot under test.
	Slot string `yaml:"slot"`

	// Stats is the expected projection (final_stats only).
	Stats *record.Stats `yaml:"stats,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalStats    = "final_stats"
	AssertUninitialized = "uninitialized"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Slots) > 256 {
		return fmt.Errorf("at most 256 slots are addressable, got %d", len(s.Slots))
	}

	names := make(map[string]bool, len(s.Slots))
	for i, spec := range s.Slots {
		if spec.Name == "" {
			return fmt.Errorf("slots[%d]: name is required", i)
		}
		if names[spec.Name] {
			return fmt.Errorf("slots[%d]: duplicate slot name %q", i, spec.Name)
		}
		names[spec.Name] = true
		if spec.Capacity <= 0 {
			return fmt.Errorf("slots[%d]: capacity must be positive", i)
		}
		if _, err := parsePerm(spec.Perm); err != nil {
			return fmt.Errorf("slots[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step, names); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, names); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step, slots map[string]bool) error {
	if step.Payload != "" {
		if step.Op != "" || step.Slot != "" || step.Args != nil {
			return fmt.Errorf("payload excludes op, slot and args")
		}
		if _, err := hex.DecodeString(step.Payload); err != nil {
			return fmt.Errorf("payload is not hex: %w", err)
		}
	} else {
		if step.Op == "" {
			return fmt.Errorf("op or payload is required")
		}
		op, err := dispatch.ParseOp(step.Op)
		if err != nil {
			return err
		}
		if op.TargetsSlot() {
			if !slots[step.Slot] {
				return fmt.Errorf("unknown slot %q", step.Slot)
			}
		} else if step.Slot != "" {
			return fmt.Errorf("%s takes no slot", op)
		}
	}

	if step.Expect != nil && step.Expect.Error != "" && step.Expect.Stats != nil {
		return fmt.Errorf("expect: error and stats are exclusive")
	}
	return nil
}

func validateAssertion(a Assertion, slots map[string]bool) error {
	if !slots[a.Slot] {
		return fmt.Errorf("unknown slot %q", a.Slot)
	}
	switch a.Type {
	case AssertFinalStats:
		if a.Stats == nil {
			return fmt.Errorf("stats is required for final_stats")
		}
	case AssertUninitialized:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// parsePerm defaults an empty permission to read-write.
func parsePerm(s string) (slot.Perm, error) {
	if s == "" {
		return slot.PermReadWrite, nil
	}
	p, err := slot.ParsePerm(s)
	if err != nil {
		return 0, fmt.Errorf("perm: %s", fault.CodeOf(err))
	}
	return p, nil
}
