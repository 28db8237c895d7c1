// Package stream unifies encoding and decoding: each field is streamed by
// one call that writes when the buffer is in writing mode and reads
// otherwise.
//
//	func (m *Msg) Stream(b *wirebuf.Buffer) *wirebuf.Buffer {
//		stream.Uint64(b, &m.ID)
//		stream.String(b, &m.Name)
//		return stream.Slice(b, &m.Items, stream.Value[Item])
//	}
//
// Failures are recorded in b.Err.
package stream

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rawbytedev/wirebuf"
	"github.com/rawbytedev/wirebuf/pkg/typereg"
	"github.com/shopspring/decimal"
)

// Func streams one T.
type Func[T any] func(b *wirebuf.Buffer, v *T) *wirebuf.Buffer

// Streamer is implemented by types that stream their own fields.
type Streamer interface {
	Stream(b *wirebuf.Buffer) *wirebuf.Buffer
}

func scalar[T any](b *wirebuf.Buffer, v *T, w func(*wirebuf.Buffer, T), r func(*wirebuf.Buffer) T) *wirebuf.Buffer {
	if b.Writing() {
		w(b, *v)
	} else {
		*v = r(b)
	}
	return b
}

func Uint8(b *wirebuf.Buffer, v *uint8) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteUint8, (*wirebuf.Buffer).ReadUint8)
}

func Int8(b *wirebuf.Buffer, v *int8) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteInt8, (*wirebuf.Buffer).ReadInt8)
}

func Bool(b *wirebuf.Buffer, v *bool) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteBool, (*wirebuf.Buffer).ReadBool)
}

func Char(b *wirebuf.Buffer, v *wirebuf.Char) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteChar, (*wirebuf.Buffer).ReadChar)
}

func Int16(b *wirebuf.Buffer, v *int16) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteInt16, (*wirebuf.Buffer).ReadInt16)
}

func Uint16(b *wirebuf.Buffer, v *uint16) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteUint16, (*wirebuf.Buffer).ReadUint16)
}

func Int32(b *wirebuf.Buffer, v *int32) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteInt32, (*wirebuf.Buffer).ReadInt32)
}

func Uint32(b *wirebuf.Buffer, v *uint32) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteUint32, (*wirebuf.Buffer).ReadUint32)
}

func Int64(b *wirebuf.Buffer, v *int64) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteInt64, (*wirebuf.Buffer).ReadInt64)
}

func Uint64(b *wirebuf.Buffer, v *uint64) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteUint64, (*wirebuf.Buffer).ReadUint64)
}

func Int(b *wirebuf.Buffer, v *int) *wirebuf.Buffer {
	return scalar(b, v, typereg.WriteInt, typereg.ReadInt)
}

func Uint(b *wirebuf.Buffer, v *uint) *wirebuf.Buffer {
	return scalar(b, v, typereg.WriteUint, typereg.ReadUint)
}

func Float32(b *wirebuf.Buffer, v *float32) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteFloat32, (*wirebuf.Buffer).ReadFloat32)
}

func Float64(b *wirebuf.Buffer, v *float64) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteFloat64, (*wirebuf.Buffer).ReadFloat64)
}

// String streams a present string. An absent string decodes as "".
func String(b *wirebuf.Buffer, v *string) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteString, (*wirebuf.Buffer).ReadString)
}

// StringPtr streams a string that may be absent.
func StringPtr(b *wirebuf.Buffer, v **string) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteStringPtr, (*wirebuf.Buffer).ReadStringPtr)
}

func Bytes(b *wirebuf.Buffer, v *[]byte) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteBytes, (*wirebuf.Buffer).ReadBytes)
}

func Time(b *wirebuf.Buffer, v *time.Time) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteTime, (*wirebuf.Buffer).ReadTime)
}

func Duration(b *wirebuf.Buffer, v *time.Duration) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteDuration, (*wirebuf.Buffer).ReadDuration)
}

func Decimal(b *wirebuf.Buffer, v *decimal.Decimal) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteDecimal, (*wirebuf.Buffer).ReadDecimal)
}

func UUID(b *wirebuf.Buffer, v *uuid.UUID) *wirebuf.Buffer {
	return scalar(b, v, (*wirebuf.Buffer).WriteUUID, (*wirebuf.Buffer).ReadUUID)
}

// Value streams a type whose pointer implements Streamer.
func Value[T any, P interface {
	*T
	Streamer
}](b *wirebuf.Buffer, v *T) *wirebuf.Buffer {
	return P(v).Stream(b)
}

// Nullable streams a presence flag and, when present, the pointed-to value.
func Nullable[T any](b *wirebuf.Buffer, v **T, fn Func[T]) *wirebuf.Buffer {
	if b.Writing() {
		b.WriteBool(*v != nil)
		if *v != nil {
			fn(b, *v)
		}
		return b
	}
	if !b.ReadBool() {
		*v = nil
		return b
	}
	x := new(T)
	fn(b, x)
	*v = x
	return b
}

// Slice streams a homogeneous array: presence flag, i32 count, elements.
func Slice[T any](b *wirebuf.Buffer, v *[]T, fn Func[T]) *wirebuf.Buffer {
	return seq(b, v, fn)
}

// List is Slice for the list form.
func List[T any](b *wirebuf.Buffer, v *typereg.List[T], fn Func[T]) *wirebuf.Buffer {
	return seq(b, v, fn)
}

func seq[S ~[]T, T any](b *wirebuf.Buffer, v *S, fn Func[T]) *wirebuf.Buffer {
	if b.Writing() {
		if *v == nil {
			b.WriteBool(false)
			return b
		}
		b.WriteBool(true)
		b.WriteInt32(int32(len(*v)))
		for i := range *v {
			fn(b, &(*v)[i])
		}
		return b
	}
	n, present := count(b)
	if !present || b.Err() != nil {
		*v = nil
		return b
	}
	s := make(S, 0, min(n, b.Count()))
	for i := 0; i < n && b.Err() == nil; i++ {
		var x T
		fn(b, &x)
		s = append(s, x)
	}
	*v = s
	return b
}

func count(b *wirebuf.Buffer) (int, bool) {
	if !b.ReadBool() {
		return 0, false
	}
	n := b.ReadInt32()
	if n < 0 {
		b.SetError(fmt.Errorf("%w: count %d", wirebuf.ErrInvalidLength, n))
		return 0, true
	}
	return int(n), true
}

// Pair is one key/value entry.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// Pairs streams an ordered sequence of key/value entries.
func Pairs[K, V any](b *wirebuf.Buffer, v *[]Pair[K, V], kf Func[K], vf Func[V]) *wirebuf.Buffer {
	return seq(b, v, func(b *wirebuf.Buffer, p *Pair[K, V]) *wirebuf.Buffer {
		kf(b, &p.Key)
		return vf(b, &p.Value)
	})
}

// Map streams a map as pairs sorted by key.
func Map[K cmp.Ordered, V any](b *wirebuf.Buffer, v *map[K]V, kf Func[K], vf Func[V]) *wirebuf.Buffer {
	var pairs []Pair[K, V]
	if b.Writing() {
		if *v != nil {
			keys := make([]K, 0, len(*v))
			for k := range *v {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			pairs = make([]Pair[K, V], 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, Pair[K, V]{k, (*v)[k]})
			}
		}
		return Pairs(b, &pairs, kf, vf)
	}
	Pairs(b, &pairs, kf, vf)
	if pairs == nil {
		*v = nil
		return b
	}
	m := make(map[K]V, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	*v = m
	return b
}

// Object streams a tagged object through r.
func Object(b *wirebuf.Buffer, v *any, r *typereg.Registry) *wirebuf.Buffer {
	var err error
	if b.Writing() {
		err = r.WriteObject(b, *v)
	} else {
		*v, err = r.ReadObject(b)
	}
	b.SetError(err)
	return b
}

// Dict streams a string-keyed object map through r.
func Dict(b *wirebuf.Buffer, v *typereg.Dict, r *typereg.Registry) *wirebuf.Buffer {
	var err error
	if b.Writing() {
		err = typereg.WriteDict(r, b, *v)
	} else {
		*v, err = typereg.ReadDict(r, b)
	}
	b.SetError(err)
	return b
}

// Packet streams v as one outer packet. When writing it always reports
// true; the packet is not committed. When reading, false with a nil error
// means the packet is not complete yet.
func Packet[T any](b *wirebuf.Buffer, v *T, fn Func[T]) (bool, error) {
	if b.Writing() {
		start := b.StartWritePacket()
		fn(b, v)
		return true, b.EndWritePacket(start)
	}
	return b.TryReadPacket(func(b *wirebuf.Buffer) error {
		fn(b, v)
		return b.Err()
	})
}
