package record

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/roach88/paddock/internal/fault"
)

const (
	// Version is the current format version tag.
	Version byte = 0x01

	// HeaderSize is the version byte plus the uint32 name length.
	HeaderSize = 1 + 4

	// StatsSize is the three uint32 stat fields.
	StatsSize = 3 * 4

	// MinSize is the encoded size of a record with an empty name.
	MinSize = HeaderSize + StatsSize
)

// Encode serializes r. The output is deterministic and exactly r.Size() bytes.
func Encode(r Record) []byte {
	return AppendEncode(make([]byte, 0, r.Size()), r)
}

// AppendEncode appends the encoding of r to dst.
func AppendEncode(dst []byte, r Record) []byte {
	dst = append(dst, Version)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(r.Name)))
	dst = append(dst, r.Name...)
	dst = binary.LittleEndian.AppendUint32(dst, r.Velocity)
	dst = binary.LittleEndian.AppendUint32(dst, r.Durability)
	dst = binary.LittleEndian.AppendUint32(dst, r.Stability)
	return dst
}

// Decode parses b as exactly one record.
// Trailing bytes after the record are rejected with CodeMalformed.
func Decode(b []byte) (Record, error) {
	r, n, err := DecodePrefix(b)
	if err != nil {
		return Record{}, err
	}
	if n != len(b) {
		return Record{}, fault.New(fault.CodeMalformed, "%d trailing bytes after record", len(b)-n)
	}
	return r, nil
}

// DecodePrefix parses one record from the front of b and returns it with the
// number of bytes consumed. Bytes after the record are not inspected.
func DecodePrefix(b []byte) (Record, int, error) {
	if len(b) < HeaderSize {
		return Record{}, 0, fault.New(fault.CodeMalformed, "buffer too short: %d bytes, need at least %d for the header", len(b), HeaderSize)
	}

	switch b[0] {
	case Version:
	case 0:
		return Record{}, 0, fault.New(fault.CodeMalformed, "uninitialized record")
	default:
		return Record{}, 0, fault.New(fault.CodeMalformed, "unknown format version %d", b[0])
	}

	nameLen := binary.LittleEndian.Uint32(b[1:HeaderSize])
	remaining := len(b) - HeaderSize
	if uint64(nameLen) > uint64(remaining) {
		return Record{}, 0, fault.New(fault.CodeMalformed, "name length %d exceeds %d remaining bytes", nameLen, remaining)
	}

	nameEnd := HeaderSize + int(nameLen)
	if len(b)-nameEnd < StatsSize {
		return Record{}, 0, fault.New(fault.CodeMalformed, "truncated stats: %d bytes, need %d", len(b)-nameEnd, StatsSize)
	}

	name := b[HeaderSize:nameEnd]
	if !utf8.Valid(name) {
		return Record{}, 0, fault.New(fault.CodeMalformed, "name is not valid UTF-8")
	}

	stats := b[nameEnd : nameEnd+StatsSize]
	r := Record{
		Name:       string(name),
		Velocity:   binary.LittleEndian.Uint32(stats[0:4]),
		Durability: binary.LittleEndian.Uint32(stats[4:8]),
		Stability:  binary.LittleEndian.Uint32(stats[8:12]),
	}

	return r, nameEnd + StatsSize, nil
}
