// Package typereg maps Go types to one-byte type tags and encodes
// self-describing objects on a wirebuf.Buffer.
package typereg

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rawbytedev/wirebuf"
)

var (
	ErrUnsupportedType = errors.New("typereg: unsupported type")
	ErrTagRange        = errors.New("typereg: tag outside registrable range")
)

// List is the list-of form of T. []T encodes as an array of T and List[T]
// as a list of T; the two differ only in their tag.
type List[T any] []T

// Encoder and Decoder receive the registry so nested objects can recurse.
type (
	Encoder[T any] func(r *Registry, b *wirebuf.Buffer, v T) error
	Decoder[T any] func(r *Registry, b *wirebuf.Buffer) (T, error)
)

type key struct {
	tag Tag
	sub Tag
}

type entry struct {
	key key
	typ reflect.Type
	enc func(r *Registry, b *wirebuf.Buffer, v any) error
	dec func(r *Registry, b *wirebuf.Buffer) (any, error)
}

// Registry holds the tag table. Register types during start-up only:
// lookups are safe from many goroutines, but registering while other
// goroutines encode or decode races with them.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*entry
	byTag  map[key]*entry
}

// NewEmpty returns a registry without built-in types.
func NewEmpty() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*entry),
		byTag:  make(map[key]*entry),
	}
}

// New returns a registry holding every built-in type.
func New() *Registry {
	r := NewEmpty()
	registerBuiltins(r)
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, built on first use.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New() })
	return defaultReg
}

// put inserts e, dropping whatever it replaces under either key.
func (r *Registry) put(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byTag[e.key]; ok && old.typ != e.typ {
		delete(r.byType, old.typ)
	}
	if old, ok := r.byType[e.typ]; ok && old.key != e.key {
		delete(r.byTag, old.key)
	}
	r.byType[e.typ] = e
	r.byTag[e.key] = e
}

func (r *Registry) lookupType(t reflect.Type) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[t]
}

func (r *Registry) lookupTag(k key) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byTag[k]
}

// TagOf returns the tag v would be written with.
func (r *Registry) TagOf(v any) (Tag, bool) {
	if v == nil {
		return TagNull, true
	}
	e := r.lookupType(reflect.TypeOf(v))
	if e == nil {
		return 0, false
	}
	return e.key.tag, true
}

// TypeOf returns the Go type registered under tag. sub is only consulted
// for extended tags.
func (r *Registry) TypeOf(tag, sub Tag) (reflect.Type, bool) {
	if !tag.IsExtended() {
		sub = 0
	}
	e := r.lookupTag(key{tag, sub})
	if e == nil {
		return nil, false
	}
	return e.typ, true
}

// Len is the number of registered entries, derived forms included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTag)
}

// WriteObject writes v's tag followed by its encoding. nil is written as
// TagNull. Types with no entry fail with ErrUnsupportedType and write
// nothing.
func (r *Registry) WriteObject(b *wirebuf.Buffer, v any) error {
	if v == nil {
		b.WriteUint8(uint8(TagNull))
		return b.Err()
	}
	e := r.lookupType(reflect.TypeOf(v))
	if e == nil {
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	b.WriteUint8(uint8(e.key.tag))
	if e.key.tag.IsExtended() {
		b.WriteUint8(uint8(e.key.sub))
	}
	if err := e.enc(r, b, v); err != nil {
		return err
	}
	return b.Err()
}

// ReadObject reads one tagged object. TagNull yields nil.
func (r *Registry) ReadObject(b *wirebuf.Buffer) (any, error) {
	_, v, err := r.ReadTagged(b)
	return v, err
}

// ReadTagged is ReadObject that also reports the tag read.
func (r *Registry) ReadTagged(b *wirebuf.Buffer) (Tag, any, error) {
	tag := Tag(b.ReadUint8())
	if err := b.Err(); err != nil {
		return 0, nil, err
	}
	if tag == TagNull {
		return tag, nil, nil
	}
	k := key{tag: tag}
	if tag.IsExtended() {
		k.sub = Tag(b.ReadUint8())
	}
	e := r.lookupTag(k)
	if e == nil {
		if err := b.Err(); err != nil {
			return tag, nil, err
		}
		return tag, nil, fmt.Errorf("%w: tag 0x%02x (%s)", ErrUnsupportedType, uint8(tag), tag)
	}
	v, err := e.dec(r, b)
	if err == nil {
		err = b.Err()
	}
	return tag, v, err
}

// Read reads one object and asserts it to T. A null object yields T's zero
// value.
func Read[T any](r *Registry, b *wirebuf.Buffer) (T, error) {
	var zero T
	v, err := r.ReadObject(b)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrUnsupportedType, v, zero)
	}
	return t, nil
}

// Register adds T under base tag along with []T (tag|FlagArray) and List[T]
// (tag|FlagList). A later registration of the same tag or type replaces the
// earlier one.
func Register[T any](r *Registry, tag Tag, enc func(*wirebuf.Buffer, T), dec func(*wirebuf.Buffer) T) error {
	return RegisterCodec(r, tag,
		func(_ *Registry, b *wirebuf.Buffer, v T) error { enc(b, v); return nil },
		func(_ *Registry, b *wirebuf.Buffer) (T, error) { return dec(b), nil })
}

// RegisterCodec is Register for encoders that need the registry or can fail.
func RegisterCodec[T any](r *Registry, tag Tag, enc Encoder[T], dec Decoder[T]) error {
	if tag == TagNull || tag == TagObject || tag > BaseMask {
		return fmt.Errorf("%w: 0x%02x", ErrTagRange, uint8(tag))
	}
	addFamily(r, key{tag, 0}, key{tag | FlagArray, 0}, key{tag | FlagList, 0}, enc, dec)
	return nil
}

// RegisterUser adds a user type under id 0-63. Its array and list forms use
// the extended tags ExtUserArray and ExtUserList.
func RegisterUser[T any](r *Registry, id uint8, enc Encoder[T], dec Decoder[T]) error {
	if id > MaxUserID {
		return fmt.Errorf("%w: user id %d", ErrTagRange, id)
	}
	u := UserTag(id)
	addFamily(r, key{u, 0}, key{ExtUserArray, u}, key{ExtUserList, u}, enc, dec)
	return nil
}

// MustRegister panics on a registration error. For start-up code.
func MustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func addFamily[T any](r *Registry, base, array, list key, enc Encoder[T], dec Decoder[T]) {
	r.put(&entry{
		key: base,
		typ: reflect.TypeFor[T](),
		enc: func(r *Registry, b *wirebuf.Buffer, v any) error { return enc(r, b, v.(T)) },
		dec: func(r *Registry, b *wirebuf.Buffer) (any, error) { return dec(r, b) },
	})
	r.put(&entry{
		key: array,
		typ: reflect.TypeFor[[]T](),
		enc: func(r *Registry, b *wirebuf.Buffer, v any) error { return writeSeq(r, b, v.([]T), enc) },
		dec: func(r *Registry, b *wirebuf.Buffer) (any, error) { return readSeq[[]T](r, b, dec) },
	})
	r.put(&entry{
		key: list,
		typ: reflect.TypeFor[List[T]](),
		enc: func(r *Registry, b *wirebuf.Buffer, v any) error { return writeSeq(r, b, v.(List[T]), enc) },
		dec: func(r *Registry, b *wirebuf.Buffer) (any, error) { return readSeq[List[T]](r, b, dec) },
	})
}

// Collections are a presence flag, an i32 count and the elements.
func writeSeq[S ~[]T, T any](r *Registry, b *wirebuf.Buffer, s S, enc Encoder[T]) error {
	if s == nil {
		b.WriteBool(false)
		return nil
	}
	b.WriteBool(true)
	b.WriteInt32(int32(len(s)))
	for _, v := range s {
		if err := enc(r, b, v); err != nil {
			return err
		}
	}
	return nil
}

func readSeq[S ~[]T, T any](r *Registry, b *wirebuf.Buffer, dec Decoder[T]) (S, error) {
	if !b.ReadBool() {
		return nil, b.Err()
	}
	n, err := readCount(b)
	if err != nil {
		return nil, err
	}
	s := make(S, 0, min(n, b.Count()))
	for i := 0; i < n; i++ {
		v, err := dec(r, b)
		if err != nil {
			return nil, err
		}
		if err := b.Err(); err != nil {
			return nil, err
		}
		s = append(s, v)
	}
	return s, nil
}

func readCount(b *wirebuf.Buffer) (int, error) {
	n := b.ReadInt32()
	if err := b.Err(); err != nil {
		return 0, err
	}
	if n < 0 {
		err := fmt.Errorf("%w: count %d", wirebuf.ErrInvalidLength, n)
		b.SetError(err)
		return 0, err
	}
	return int(n), nil
}
