package wirebuf

import (
	"encoding/binary"
	"math"
)

// Char is a single UTF-16 code unit.
type Char uint16

func (b *Buffer) WriteUint8(v uint8) {
	if p := b.grab(1); p != nil {
		p[0] = v
	}
}

func (b *Buffer) ReadUint8() uint8 {
	if p := b.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (b *Buffer) WriteInt8(v int8) { b.WriteUint8(uint8(v)) }
func (b *Buffer) ReadInt8() int8   { return int8(b.ReadUint8()) }

// WriteBool writes 1 for true and 0 for false.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.WriteUint8(1)
	} else {
		b.WriteUint8(0)
	}
}

// ReadBool treats any non-zero byte as true.
func (b *Buffer) ReadBool() bool { return b.ReadUint8() != 0 }

func (b *Buffer) WriteUint16(v uint16) {
	if p := b.grab(2); p != nil {
		binary.BigEndian.PutUint16(p, v)
	}
}

func (b *Buffer) ReadUint16() uint16 {
	if p := b.take(2); p != nil {
		return binary.BigEndian.Uint16(p)
	}
	return 0
}

func (b *Buffer) WriteInt16(v int16) { b.WriteUint16(uint16(v)) }
func (b *Buffer) ReadInt16() int16   { return int16(b.ReadUint16()) }
func (b *Buffer) WriteChar(v Char)   { b.WriteUint16(uint16(v)) }
func (b *Buffer) ReadChar() Char     { return Char(b.ReadUint16()) }

func (b *Buffer) WriteUint32(v uint32) {
	if p := b.grab(4); p != nil {
		binary.BigEndian.PutUint32(p, v)
	}
}

func (b *Buffer) ReadUint32() uint32 {
	if p := b.take(4); p != nil {
		return binary.BigEndian.Uint32(p)
	}
	return 0
}

func (b *Buffer) WriteInt32(v int32) { b.WriteUint32(uint32(v)) }
func (b *Buffer) ReadInt32() int32   { return int32(b.ReadUint32()) }

func (b *Buffer) WriteUint64(v uint64) {
	if p := b.grab(8); p != nil {
		binary.BigEndian.PutUint64(p, v)
	}
}

func (b *Buffer) ReadUint64() uint64 {
	if p := b.take(8); p != nil {
		return binary.BigEndian.Uint64(p)
	}
	return 0
}

func (b *Buffer) WriteInt64(v int64) { b.WriteUint64(uint64(v)) }
func (b *Buffer) ReadInt64() int64   { return int64(b.ReadUint64()) }

// Floats travel as their IEEE 754 bit patterns.
func (b *Buffer) WriteFloat32(v float32) { b.WriteUint32(math.Float32bits(v)) }
func (b *Buffer) ReadFloat32() float32   { return math.Float32frombits(b.ReadUint32()) }
func (b *Buffer) WriteFloat64(v float64) { b.WriteUint64(math.Float64bits(v)) }
func (b *Buffer) ReadFloat64() float64   { return math.Float64frombits(b.ReadUint64()) }

// WriteRaw appends p without a length prefix.
func (b *Buffer) WriteRaw(p []byte) {
	if dst := b.grab(len(p)); dst != nil {
		copy(dst, p)
	}
}

// ReadRaw returns the next n committed bytes without copying.
func (b *Buffer) ReadRaw(n int) []byte { return b.take(n) }
