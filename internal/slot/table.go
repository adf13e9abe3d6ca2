package slot

import (
	"github.com/roach88/paddock/internal/fault"
)

// Table is the ordered set of slots available to one invocation.
// Slots are addressed by position; each ID appears at most once so that no
// two positions alias the same buffer.
type Table struct {
	slots []*Slot
	index map[ID]int
}

// NewTable builds a Table, rejecting nil entries and duplicate IDs.
func NewTable(slots ...*Slot) (*Table, error) {
	t := &Table{
		slots: make([]*Slot, 0, len(slots)),
		index: make(map[ID]int, len(slots)),
	}
	for i, s := range slots {
		if s == nil {
			return nil, fault.New(fault.CodeInvalidArgument, "slot %d is nil", i)
		}
		if prev, ok := t.index[s.id]; ok {
			return nil, fault.New(fault.CodeDuplicateSlot, "positions %d and %d", prev, i).WithSlot(string(s.id))
		}
		t.index[s.id] = i
		t.slots = append(t.slots, s)
	}
	return t, nil
}

// Len returns the number of slots.
func (t *Table) Len() int {
	return len(t.slots)
}

// At returns the slot at position i.
func (t *Table) At(i int) (*Slot, error) {
	if i < 0 || i >= len(t.slots) {
		return nil, fault.New(fault.CodeSlotNotFound, "index %d out of range [0,%d)", i, len(t.slots))
	}
	return t.slots[i], nil
}

// Lookup returns the slot with the given ID.
func (t *Table) Lookup(id ID) (*Slot, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, fault.New(fault.CodeSlotNotFound, "no slot with this id").WithSlot(string(id))
	}
	return t.slots[i], nil
}

// Slots returns the slots in position order.
func (t *Table) Slots() []*Slot {
	out := make([]*Slot, len(t.slots))
	copy(out, t.slots)
	return out
}
