package dispatch

import (
	"encoding/binary"

	"github.com/roach88/paddock/internal/fault"
)

// Instruction is the decoded form of a payload.
//
// Wire layout (integers little endian, same encodings as the record format):
//
//	create         0x00 slot:u8 nameLen:u32 name velocity:u32 durability:u32 stability:u32
//	read           0x01 slot:u8
//	get_stats      0x02 slot:u8
//	upgrade_stats  0x03 slot:u8 velocity:u32 durability:u32 stability:u32
//	start_session  0x04
//	end_session    0x05
//
// For upgrade_stats the three stat fields carry increments.
type Instruction struct {
	Op         Op
	Slot       uint8
	Name       string
	Velocity   uint32
	Durability uint32
	Stability  uint32
}

// CreateInstruction builds a create instruction.
func CreateInstruction(slotIndex uint8, name string, velocity, durability, stability uint32) Instruction {
	return Instruction{Op: OpCreate, Slot: slotIndex, Name: name, Velocity: velocity, Durability: durability, Stability: stability}
}

// ReadInstruction builds a read instruction.
func ReadInstruction(slotIndex uint8) Instruction {
	return Instruction{Op: OpRead, Slot: slotIndex}
}

// GetStatsInstruction builds a get_stats instruction.
func GetStatsInstruction(slotIndex uint8) Instruction {
	return Instruction{Op: OpGetStats, Slot: slotIndex}
}

// UpgradeStatsInstruction builds an upgrade_stats instruction.
func UpgradeStatsInstruction(slotIndex uint8, velocity, durability, stability uint32) Instruction {
	return Instruction{Op: OpUpgradeStats, Slot: slotIndex, Velocity: velocity, Durability: durability, Stability: stability}
}

// StartSessionInstruction builds a start_session instruction.
func StartSessionInstruction() Instruction {
	return Instruction{Op: OpStartSession}
}

// EndSessionInstruction builds an end_session instruction.
func EndSessionInstruction() Instruction {
	return Instruction{Op: OpEndSession}
}

// Encode serializes the instruction. Fields the operation does not use are
// omitted. Unknown operations encode as the bare selector byte.
func (in Instruction) Encode() []byte {
	buf := []byte{byte(in.Op)}
	switch in.Op {
	case OpCreate:
		buf = append(buf, in.Slot)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(in.Name)))
		buf = append(buf, in.Name...)
		buf = appendStats(buf, in)
	case OpRead, OpGetStats:
		buf = append(buf, in.Slot)
	case OpUpgradeStats:
		buf = append(buf, in.Slot)
		buf = appendStats(buf, in)
	}
	return buf
}

func appendStats(buf []byte, in Instruction) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, in.Velocity)
	buf = binary.LittleEndian.AppendUint32(buf, in.Durability)
	return binary.LittleEndian.AppendUint32(buf, in.Stability)
}

// DecodeInstruction parses a payload.
//
// Returns CodeInvalidInstruction for an empty payload, truncated arguments or
// trailing bytes, and CodeUnknownOperation for an unmapped selector.
func DecodeInstruction(payload []byte) (Instruction, error) {
	if len(payload) == 0 {
		return Instruction{}, fault.New(fault.CodeInvalidInstruction, "empty payload")
	}

	in := Instruction{Op: Op(payload[0])}
	if !in.Op.Known() {
		return Instruction{}, fault.New(fault.CodeUnknownOperation, "selector 0x%02x", payload[0])
	}

	r := &argReader{buf: payload, off: 1, op: in.Op}
	switch in.Op {
	case OpCreate:
		in.Slot = r.u8("slot")
		nameLen := r.u32("name length")
		in.Name = string(r.bytes("name", nameLen))
		in.Velocity = r.u32("velocity")
		in.Durability = r.u32("durability")
		in.Stability = r.u32("stability")
	case OpRead, OpGetStats:
		in.Slot = r.u8("slot")
	case OpUpgradeStats:
		in.Slot = r.u8("slot")
		in.Velocity = r.u32("velocity increment")
		in.Durability = r.u32("durability increment")
		in.Stability = r.u32("stability increment")
	}

	if r.err != nil {
		return Instruction{}, r.err
	}
	if rest := len(payload) - r.off; rest != 0 {
		return Instruction{}, fault.New(fault.CodeInvalidInstruction, "%s: %d trailing bytes", in.Op, rest)
	}
	return in, nil
}

// argReader reads fixed-width arguments and latches the first error.
type argReader struct {
	buf []byte
	off int
	op  Op
	err error
}

func (r *argReader) take(field string, n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.buf)-r.off) {
		r.err = fault.New(fault.CodeInvalidInstruction, "%s: truncated %s at offset %d", r.op, field, r.off)
		return nil
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b
}

func (r *argReader) u8(field string) uint8 {
	b := r.take(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *argReader) u32(field string) uint32 {
	b := r.take(field, 4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *argReader) bytes(field string, n uint32) []byte {
	return r.take(field, uint64(n))
}
