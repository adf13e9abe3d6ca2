// Package entity implements the record lifecycle over a single slot:
// create, read, stat projection, and stat upgrades.
//
// Every operation is stateless. A record lives only in the bytes of its
// slot, at offset 0, followed by zero padding up to the slot capacity.
// Operations that write either leave the slot holding exactly the new
// encoding (plus padding) or leave it byte-for-byte unchanged.
package entity

import (
	"errors"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/paddock/internal/fault"
	"github.com/roach88/paddock/internal/record"
	"github.com/roach88/paddock/internal/slot"
)

// Create builds a new record and writes it into s, discarding the prior
// contents. Fails with CodeCapacityExceeded if the encoding does not fit.
func Create(s *slot.Slot, name string, velocity, durability, stability uint32) (record.Record, error) {
	r, err := record.New(name, velocity, durability, stability)
	if err != nil {
		return record.Record{}, annotate(err, s)
	}
	if err := s.Write(record.Encode(r)); err != nil {
		return record.Record{}, err
	}
	return r, nil
}

// Read decodes the record stored in s.
//
// Fails with CodeMalformed if the slot was never initialized or holds
// foreign data, including non-zero bytes after the record.
func Read(s *slot.Slot) (record.Record, error) {
	data, err := s.Read()
	if err != nil {
		return record.Record{}, err
	}

	r, n, err := record.DecodePrefix(data)
	if err != nil {
		return record.Record{}, annotate(err, s)
	}

	for i, b := range data[n:] {
		if b != 0 {
			return record.Record{}, fault.New(fault.CodeMalformed, "non-zero byte at offset %d after record", n+i).WithSlot(string(s.ID()))
		}
	}

	return r, nil
}

// GetStats returns the stat projection of the record stored in s.
func GetStats(s *slot.Slot) (record.Stats, error) {
	r, err := Read(s)
	if err != nil {
		return record.Stats{}, err
	}
	return r.Stats(), nil
}

// UpgradeStats adds the increments to the record stored in s and writes the
// result back. Fails with CodeOverflow if any stat would exceed uint32.
//
// The read-modify-write is safe against partial failure because every check
// happens before the single Slot.Write. It is not safe against a concurrent
// writer; the host must not share s between invocations.
func UpgradeStats(s *slot.Slot, velocity, durability, stability uint32) (record.Record, error) {
	current, err := Read(s)
	if err != nil {
		return record.Record{}, err
	}

	next, err := current.Upgrade(velocity, durability, stability)
	if err != nil {
		return record.Record{}, annotate(err, s)
	}

	if err := s.Write(record.Encode(next)); err != nil {
		return record.Record{}, err
	}
	return next, nil
}

// Size returns the encoded size of a record named name. The name is measured
// after NFC normalization, as Create stores it.
func Size(name string) int {
	return record.HeaderSize + len(norm.NFC.String(name)) + record.StatsSize
}

// Fits reports whether a record named name fits in a slot of the given
// capacity.
func Fits(capacity int, name string) bool {
	return Size(name) <= capacity
}

// annotate attaches the slot ID to coded errors that lack one.
func annotate(err error, s *slot.Slot) error {
	var fe *fault.Error
	if errors.As(err, &fe) && fe.Slot == "" {
		return fe.WithSlot(string(s.ID()))
	}
	return err
}
