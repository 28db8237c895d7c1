package wirebuf

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rawbytedev/wirebuf/internal/common"
	"github.com/shopspring/decimal"
)

// WriteString writes a present string as a flag byte, an i32 count of
// UTF-16 code units and the units big-endian.
func (b *Buffer) WriteString(s string) {
	b.WriteBool(true)
	n := common.UTF16Len(s)
	b.WriteInt32(int32(n))
	if p := b.grab(2 * n); p != nil {
		common.PutUTF16(p, s)
	}
}

// WriteStringPtr writes nil as an absent string.
func (b *Buffer) WriteStringPtr(s *string) {
	if s == nil {
		b.WriteBool(false)
		return
	}
	b.WriteString(*s)
}

// ReadString returns "" for an absent string.
func (b *Buffer) ReadString() string {
	if s := b.ReadStringPtr(); s != nil {
		return *s
	}
	return ""
}

func (b *Buffer) ReadStringPtr() *string {
	if !b.ReadBool() {
		return nil
	}
	n := b.readLength()
	p := b.take(2 * n)
	if p == nil {
		return nil
	}
	s := common.UTF16String(p)
	return &s
}

// WriteBytes writes an i32 length followed by the raw bytes.
func (b *Buffer) WriteBytes(p []byte) {
	b.WriteInt32(int32(len(p)))
	b.WriteRaw(p)
}

// ReadBytes returns a copy of the next length-prefixed byte array.
func (b *Buffer) ReadBytes() []byte {
	p := b.ReadBytesView()
	if p == nil {
		return nil
	}
	return append(make([]byte, 0, len(p)), p...)
}

// ReadBytesView is ReadBytes without the copy. The result aliases the buffer.
func (b *Buffer) ReadBytesView() []byte {
	n := b.readLength()
	return b.take(n)
}

func (b *Buffer) readLength() int {
	n := b.ReadInt32()
	if n < 0 {
		b.SetError(fmt.Errorf("%w: %d", ErrInvalidLength, n))
		return 0
	}
	return int(n)
}

// Times outside [MinTime, MaxTime] are clamped to these sentinels.
var (
	MinTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

const dayMillis = 24 * 60 * 60 * 1000

var (
	minTimeDelta = float64(MinTime.UnixMilli() + dayMillis)
	maxTimeDelta = float64(MaxTime.UnixMilli() - dayMillis)
)

// WriteTime writes t as a float64 count of milliseconds since the Unix epoch.
func (b *Buffer) WriteTime(t time.Time) {
	switch {
	case t.Before(MinTime):
		t = MinTime
	case t.After(MaxTime):
		t = MaxTime
	}
	b.WriteFloat64(float64(t.UnixMilli()))
}

// ReadTime returns a UTC time. Values within a day of either sentinel, or
// beyond it, snap to the sentinel.
func (b *Buffer) ReadTime() time.Time {
	delta := b.ReadFloat64()
	switch {
	case math.IsNaN(delta), delta < minTimeDelta:
		return MinTime
	case delta > maxTimeDelta:
		return MaxTime
	}
	return time.UnixMilli(int64(delta)).UTC()
}

func (b *Buffer) WriteDuration(d time.Duration) { b.WriteInt64(int64(d)) }
func (b *Buffer) ReadDuration() time.Duration   { return time.Duration(b.ReadInt64()) }

func (b *Buffer) WriteUUID(u uuid.UUID) { b.WriteRaw(u[:]) }

func (b *Buffer) ReadUUID() uuid.UUID {
	var u uuid.UUID
	copy(u[:], b.take(len(u)))
	return u
}

const (
	maxDecimalScale = 28
	decimalSignBit  = 1 << 31
)

var maxDecimalMantissa = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

// WriteDecimal writes d as a 96-bit mantissa in three u32 words, low word
// first, followed by a flags word holding the scale in bits 16-23 and the
// sign in bit 31. Scales above 28 are rounded. Mantissas that do not fit in
// 96 bits set ErrDecimalRange.
func (b *Buffer) WriteDecimal(d decimal.Decimal) {
	if d.Exponent() < -maxDecimalScale {
		d = d.Round(maxDecimalScale)
	}
	mant := d.Coefficient()
	scale := 0
	if exp := int(d.Exponent()); exp > 0 {
		mant.Mul(mant, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	} else {
		scale = -exp
	}
	neg := mant.Sign() < 0
	mant.Abs(mant)
	if mant.Cmp(maxDecimalMantissa) > 0 {
		b.SetError(fmt.Errorf("%w: %s", ErrDecimalRange, d.String()))
		return
	}
	var words [3]uint32
	mask := big.NewInt(0xffffffff)
	for i := range words {
		words[i] = uint32(new(big.Int).And(mant, mask).Uint64())
		mant.Rsh(mant, 32)
	}
	flags := uint32(scale) << 16
	if neg {
		flags |= decimalSignBit
	}
	b.WriteUint32(words[0])
	b.WriteUint32(words[1])
	b.WriteUint32(words[2])
	b.WriteUint32(flags)
}

func (b *Buffer) ReadDecimal() decimal.Decimal {
	lo, mid, hi := b.ReadUint32(), b.ReadUint32(), b.ReadUint32()
	flags := b.ReadUint32()
	if b.err != nil {
		return decimal.Zero
	}
	scale := int32(flags>>16) & 0xff
	if scale > maxDecimalScale {
		b.SetError(fmt.Errorf("%w: scale %d", ErrDecimalRange, scale))
		return decimal.Zero
	}
	mant := new(big.Int).SetUint64(uint64(hi))
	mant.Lsh(mant, 32).Or(mant, new(big.Int).SetUint64(uint64(mid)))
	mant.Lsh(mant, 32).Or(mant, new(big.Int).SetUint64(uint64(lo)))
	if flags&decimalSignBit != 0 {
		mant.Neg(mant)
	}
	return decimal.NewFromBigInt(mant, -scale)
}
