package typereg

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/rawbytedev/wirebuf"
)

// Dict is a string-keyed map of arbitrary objects.
type Dict = map[string]any

func registerBuiltins(r *Registry) {
	MustRegister(Register(r, TagString, (*wirebuf.Buffer).WriteString, (*wirebuf.Buffer).ReadString))
	MustRegister(Register(r, TagUint8, (*wirebuf.Buffer).WriteUint8, (*wirebuf.Buffer).ReadUint8))
	MustRegister(Register(r, TagInt8, (*wirebuf.Buffer).WriteInt8, (*wirebuf.Buffer).ReadInt8))
	MustRegister(Register(r, TagChar, (*wirebuf.Buffer).WriteChar, (*wirebuf.Buffer).ReadChar))
	MustRegister(Register(r, TagInt16, (*wirebuf.Buffer).WriteInt16, (*wirebuf.Buffer).ReadInt16))
	MustRegister(Register(r, TagUint16, (*wirebuf.Buffer).WriteUint16, (*wirebuf.Buffer).ReadUint16))
	MustRegister(Register(r, TagInt32, (*wirebuf.Buffer).WriteInt32, (*wirebuf.Buffer).ReadInt32))
	MustRegister(Register(r, TagUint32, (*wirebuf.Buffer).WriteUint32, (*wirebuf.Buffer).ReadUint32))
	MustRegister(Register(r, TagInt64, (*wirebuf.Buffer).WriteInt64, (*wirebuf.Buffer).ReadInt64))
	MustRegister(Register(r, TagUint64, (*wirebuf.Buffer).WriteUint64, (*wirebuf.Buffer).ReadUint64))
	MustRegister(Register(r, TagTime, (*wirebuf.Buffer).WriteTime, (*wirebuf.Buffer).ReadTime))
	MustRegister(Register(r, TagFloat32, (*wirebuf.Buffer).WriteFloat32, (*wirebuf.Buffer).ReadFloat32))
	MustRegister(Register(r, TagFloat64, (*wirebuf.Buffer).WriteFloat64, (*wirebuf.Buffer).ReadFloat64))
	MustRegister(Register(r, TagBool, (*wirebuf.Buffer).WriteBool, (*wirebuf.Buffer).ReadBool))
	MustRegister(Register(r, TagDecimal, (*wirebuf.Buffer).WriteDecimal, (*wirebuf.Buffer).ReadDecimal))
	MustRegister(Register(r, TagUUID, (*wirebuf.Buffer).WriteUUID, (*wirebuf.Buffer).ReadUUID))
	MustRegister(Register(r, TagDuration, (*wirebuf.Buffer).WriteDuration, (*wirebuf.Buffer).ReadDuration))
	MustRegister(Register(r, TagInt, WriteInt, ReadInt))
	MustRegister(Register(r, TagUint, WriteUint, ReadUint))
	MustRegister(RegisterCodec(r, TagDict, WriteDict, ReadDict))
	registerObjects(r)
}

// Go's int and uint travel as 64-bit values.
func WriteInt(b *wirebuf.Buffer, v int)   { b.WriteInt64(int64(v)) }
func ReadInt(b *wirebuf.Buffer) int       { return int(b.ReadInt64()) }
func WriteUint(b *wirebuf.Buffer, v uint) { b.WriteUint64(uint64(v)) }
func ReadUint(b *wirebuf.Buffer) uint     { return uint(b.ReadUint64()) }

// WriteDict writes a presence flag, an i32 count and the entries sorted by
// key, each as a string followed by a tagged object.
func WriteDict(r *Registry, b *wirebuf.Buffer, d Dict) error {
	if d == nil {
		b.WriteBool(false)
		return nil
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteBool(true)
	b.WriteInt32(int32(len(keys)))
	for _, k := range keys {
		b.WriteString(k)
		if err := r.WriteObject(b, d[k]); err != nil {
			return fmt.Errorf("dict key %q: %w", k, err)
		}
	}
	return nil
}

func ReadDict(r *Registry, b *wirebuf.Buffer) (Dict, error) {
	if !b.ReadBool() {
		return nil, b.Err()
	}
	n, err := readCount(b)
	if err != nil {
		return nil, err
	}
	d := make(Dict, min(n, b.Count()))
	for i := 0; i < n; i++ {
		k := b.ReadString()
		v, err := r.ReadObject(b)
		if err != nil {
			return nil, fmt.Errorf("dict key %q: %w", k, err)
		}
		d[k] = v
	}
	return d, nil
}

// Heterogeneous collections tag every element.
func registerObjects(r *Registry) {
	writeAny := func(r *Registry, b *wirebuf.Buffer, v any) error { return r.WriteObject(b, v) }
	readAny := func(r *Registry, b *wirebuf.Buffer) (any, error) { return r.ReadObject(b) }
	r.put(&entry{
		key: key{tag: TagObjectArray},
		typ: reflect.TypeFor[[]any](),
		enc: func(r *Registry, b *wirebuf.Buffer, v any) error { return writeSeq(r, b, v.([]any), writeAny) },
		dec: func(r *Registry, b *wirebuf.Buffer) (any, error) { return readSeq[[]any](r, b, readAny) },
	})
	r.put(&entry{
		key: key{tag: TagObjectList},
		typ: reflect.TypeFor[List[any]](),
		enc: func(r *Registry, b *wirebuf.Buffer, v any) error { return writeSeq(r, b, v.(List[any]), writeAny) },
		dec: func(r *Registry, b *wirebuf.Buffer) (any, error) { return readSeq[List[any]](r, b, readAny) },
	})
}
