package dispatch

import (
	"fmt"

	"github.com/roach88/paddock/internal/fault"
)

// Op is the one-byte selector at the front of an instruction payload.
type Op uint8

// Recognized selectors. Values are part of the wire format.
const (
	OpCreate       Op = 0x00
	OpRead         Op = 0x01
	OpGetStats     Op = 0x02
	OpUpgradeStats Op = 0x03
	OpStartSession Op = 0x04
	OpEndSession   Op = 0x05
)

var opNames = map[Op]string{
	OpCreate:       "create",
	OpRead:         "read",
	OpGetStats:     "get_stats",
	OpUpgradeStats: "upgrade_stats",
	OpStartSession: "start_session",
	OpEndSession:   "end_session",
}

// Ops lists the recognized selectors in wire order.
var Ops = []Op{OpCreate, OpRead, OpGetStats, OpUpgradeStats, OpStartSession, OpEndSession}

// String returns the operation name, or "op(0xNN)" for unmapped selectors.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(0x%02x)", uint8(o))
}

// Known reports whether o is a recognized selector.
func (o Op) Known() bool {
	_, ok := opNames[o]
	return ok
}

// TargetsSlot reports whether the operation takes a slot argument.
func (o Op) TargetsSlot() bool {
	switch o {
	case OpCreate, OpRead, OpGetStats, OpUpgradeStats:
		return true
	default:
		return false
	}
}

// Mutates reports whether the operation writes its slot.
func (o Op) Mutates() bool {
	return o == OpCreate || o == OpUpgradeStats
}

// ParseOp resolves an operation name to its selector.
func ParseOp(name string) (Op, error) {
	for op, n := range opNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fault.New(fault.CodeUnknownOperation, "unknown operation %q", name)
}
