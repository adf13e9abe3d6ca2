// Package slot provides access to host-owned, fixed-capacity byte buffers.
//
// A Slot never grows or shrinks. Writes are all-or-nothing: every check runs
// before the buffer is touched, and a write shorter than the capacity
// zero-fills the remainder so no stale bytes survive behind the new content.
//
// Slots carry no locking. The host guarantees that at most one invocation
// holds a given slot at a time.
package slot

import (
	"fmt"

	"github.com/roach88/paddock/internal/fault"
)

// ID is the opaque address of a slot.
type ID string

// Perm is the set of permission flags the host grants on a slot.
type Perm uint8

const (
	// PermRead allows the slot contents to be read.
	PermRead Perm = 1 << iota

	// PermWrite allows the slot contents to be overwritten.
	PermWrite

	// PermReadWrite grants both flags.
	PermReadWrite = PermRead | PermWrite
)

// Has reports whether p includes every flag in q.
func (p Perm) Has(q Perm) bool {
	return p&q == q
}

// String returns "r", "w", "rw" or "-".
func (p Perm) String() string {
	switch {
	case p.Has(PermReadWrite):
		return "rw"
	case p.Has(PermRead):
		return "r"
	case p.Has(PermWrite):
		return "w"
	default:
		return "-"
	}
}

// ParsePerm parses the output of Perm.String.
func ParsePerm(s string) (Perm, error) {
	switch s {
	case "rw":
		return PermReadWrite, nil
	case "r":
		return PermRead, nil
	case "w":
		return PermWrite, nil
	case "-", "":
		return 0, nil
	default:
		return 0, fault.New(fault.CodeInvalidArgument, "unknown permission %q", s)
	}
}

// Slot is a fixed-capacity mutable byte buffer.
type Slot struct {
	id   ID
	data []byte
	perm Perm
}

// New allocates a zeroed slot of the given capacity. Hosts validate
// capacity before allocating; a negative capacity panics.
func New(id ID, capacity int, perm Perm) *Slot {
	if capacity < 0 {
		panic(fmt.Sprintf("slot: negative capacity %d for %s", capacity, id))
	}
	return &Slot{id: id, data: make([]byte, capacity), perm: perm}
}

// Wrap adopts a host-owned buffer in place. Writes through the returned
// Slot mutate buf directly; its capacity is len(buf).
func Wrap(id ID, buf []byte, perm Perm) *Slot {
	return &Slot{id: id, data: buf, perm: perm}
}

// ID returns the slot address.
func (s *Slot) ID() ID {
	return s.id
}

// Capacity returns the fixed buffer length.
func (s *Slot) Capacity() int {
	return len(s.data)
}

// Perm returns the permission flags.
func (s *Slot) Perm() Perm {
	return s.perm
}

// Read returns a copy of the full buffer.
func (s *Slot) Read() ([]byte, error) {
	if !s.perm.Has(PermRead) {
		return nil, fault.New(fault.CodePermissionDenied, "slot is not readable").WithSlot(string(s.id))
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

// Write overwrites the buffer from offset 0 and zero-fills the remainder.
//
// Fails with CodePermissionDenied if the slot is not writable and with
// CodeCapacityExceeded if len(b) exceeds the capacity. On failure the
// buffer is unchanged.
func (s *Slot) Write(b []byte) error {
	if !s.perm.Has(PermWrite) {
		return fault.New(fault.CodePermissionDenied, "slot is not writable").WithSlot(string(s.id))
	}
	if len(b) > len(s.data) {
		return fault.New(fault.CodeCapacityExceeded, "need %d bytes, capacity is %d", len(b), len(s.data)).WithSlot(string(s.id))
	}

	// b may alias s.data (e.g. a slice returned by Bytes); copy handles overlap.
	n := copy(s.data, b)
	clear(s.data[n:])
	return nil
}

// Bytes exposes the backing buffer for host persistence.
// Callers must not retain or modify it across invocations.
func (s *Slot) Bytes() []byte {
	return s.data
}
