// Package record defines the entity record and its binary slot format.
//
// A record is a name plus three uint32 stats. Records are encoded with a
// one-byte format version so that a zeroed slot never decodes as a valid
// record:
//
//	offset  size  field
//	0       1     format version (0x01)
//	1       4     name length N (uint32, little endian)
//	5       N     name (UTF-8, NFC)
//	5+N     4     velocity
//	9+N     4     durability
//	13+N    4     stability
//
// All multi-byte integers are little endian, so Size is exact and slot
// capacity checks can be made before any byte is written.
package record

import (
	"math/bits"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/paddock/internal/fault"
)

// Record is a named entity with three independently upgradeable stats.
type Record struct {
	Name       string `json:"name" yaml:"name"`
	Velocity   uint32 `json:"velocity" yaml:"velocity"`
	Durability uint32 `json:"durability" yaml:"durability"`
	Stability  uint32 `json:"stability" yaml:"stability"`
}

// Stats is the (name, velocity, durability, stability) projection of a Record.
type Stats struct {
	Name       string `json:"name" yaml:"name"`
	Velocity   uint32 `json:"velocity" yaml:"velocity"`
	Durability uint32 `json:"durability" yaml:"durability"`
	Stability  uint32 `json:"stability" yaml:"stability"`
}

// New builds a Record with an NFC-normalized name.
// Returns CodeInvalidArgument if name is not valid UTF-8.
//
// Normalization makes visually identical names encode to identical bytes.
func New(name string, velocity, durability, stability uint32) (Record, error) {
	if !utf8.ValidString(name) {
		return Record{}, fault.New(fault.CodeInvalidArgument, "name is not valid UTF-8")
	}
	return Record{
		Name:       norm.NFC.String(name),
		Velocity:   velocity,
		Durability: durability,
		Stability:  stability,
	}, nil
}

// Stats returns the stat projection of r.
func (r Record) Stats() Stats {
	return Stats{
		Name:       r.Name,
		Velocity:   r.Velocity,
		Durability: r.Durability,
		Stability:  r.Stability,
	}
}

// Size returns the exact number of bytes Encode produces for r.
func (r Record) Size() int {
	return HeaderSize + len(r.Name) + StatsSize
}

// Upgrade returns a copy of r with each increment added to its stat.
// Fails with CodeOverflow if any sum exceeds uint32; r is never modified.
func (r Record) Upgrade(velocity, durability, stability uint32) (Record, error) {
	next := r
	var carry uint32

	if next.Velocity, carry = bits.Add32(r.Velocity, velocity, 0); carry != 0 {
		return Record{}, fault.New(fault.CodeOverflow, "velocity %d + %d exceeds uint32", r.Velocity, velocity)
	}
	if next.Durability, carry = bits.Add32(r.Durability, durability, 0); carry != 0 {
		return Record{}, fault.New(fault.CodeOverflow, "durability %d + %d exceeds uint32", r.Durability, durability)
	}
	if next.Stability, carry = bits.Add32(r.Stability, stability, 0); carry != 0 {
		return Record{}, fault.New(fault.CodeOverflow, "stability %d + %d exceeds uint32", r.Stability, stability)
	}

	return next, nil
}
