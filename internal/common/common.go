package common

import (
	"encoding/binary"
	"math"
	"reflect"
	"unicode/utf16"
	"unicode/utf8"
)

// IsFixedKind reports whether k is a fixed-size primitive kind.
func IsFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// FixedSize returns the byte width for fixed-size primitive kinds.
func FixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	default:
		return -1
	}
}

// PutFixed encodes the fixed-width primitive v big-endian into b.
func PutFixed(b []byte, v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		b[0] = 0
		if v.Bool() {
			b[0] = 1
		}
	case reflect.Int8:
		b[0] = byte(v.Int())
	case reflect.Uint8:
		b[0] = byte(v.Uint())
	case reflect.Int16:
		binary.BigEndian.PutUint16(b, uint16(v.Int()))
	case reflect.Uint16:
		binary.BigEndian.PutUint16(b, uint16(v.Uint()))
	case reflect.Int32:
		binary.BigEndian.PutUint32(b, uint32(v.Int()))
	case reflect.Uint32:
		binary.BigEndian.PutUint32(b, uint32(v.Uint()))
	case reflect.Int64:
		binary.BigEndian.PutUint64(b, uint64(v.Int()))
	case reflect.Uint64:
		binary.BigEndian.PutUint64(b, v.Uint())
	case reflect.Float32:
		binary.BigEndian.PutUint32(b, math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		binary.BigEndian.PutUint64(b, math.Float64bits(v.Float()))
	}
}

// SetFixed decodes a big-endian fixed-width primitive from b and sets dst.
func SetFixed(dst reflect.Value, b []byte, k reflect.Kind) {
	switch k {
	case reflect.Bool:
		dst.SetBool(b[0] != 0)
	case reflect.Int8:
		dst.SetInt(int64(int8(b[0])))
	case reflect.Uint8:
		dst.SetUint(uint64(b[0]))
	case reflect.Int16:
		dst.SetInt(int64(int16(binary.BigEndian.Uint16(b))))
	case reflect.Uint16:
		dst.SetUint(uint64(binary.BigEndian.Uint16(b)))
	case reflect.Int32:
		dst.SetInt(int64(int32(binary.BigEndian.Uint32(b))))
	case reflect.Uint32:
		dst.SetUint(uint64(binary.BigEndian.Uint32(b)))
	case reflect.Int64:
		dst.SetInt(int64(binary.BigEndian.Uint64(b)))
	case reflect.Uint64:
		dst.SetUint(binary.BigEndian.Uint64(b))
	case reflect.Float32:
		dst.SetFloat(float64(math.Float32frombits(binary.BigEndian.Uint32(b))))
	case reflect.Float64:
		dst.SetFloat(math.Float64frombits(binary.BigEndian.Uint64(b)))
	}
}

// UTF16Len returns the number of UTF-16 code units needed for s. Invalid
// UTF-8 bytes count as one replacement character each.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// PutUTF16 writes s as big-endian UTF-16 into dst, which must hold
// 2*UTF16Len(s) bytes.
func PutUTF16(dst []byte, s string) {
	i := 0
	for _, r := range s {
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			binary.BigEndian.PutUint16(dst[i:], uint16(hi))
			binary.BigEndian.PutUint16(dst[i+2:], uint16(lo))
			i += 4
			continue
		}
		if utf16.IsSurrogate(r) {
			r = utf8.RuneError
		}
		binary.BigEndian.PutUint16(dst[i:], uint16(r))
		i += 2
	}
}

// UTF16String decodes big-endian UTF-16 code units. Unpaired surrogates
// decode to the replacement character.
func UTF16String(src []byte) string {
	units := make([]uint16, len(src)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(src[2*i:])
	}
	return string(utf16.Decode(units))
}
