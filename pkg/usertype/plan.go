// Package usertype registers caller-defined types in a typereg.Registry,
// either as reflected structs or as CBOR documents.
package usertype

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rawbytedev/wirebuf"
	"github.com/rawbytedev/wirebuf/internal/common"
	"github.com/rawbytedev/wirebuf/pkg/typereg"
)

var (
	ErrNotStruct     = errors.New("usertype: expected struct")
	ErrFieldType     = errors.New("usertype: field type mismatch")
	ErrTooManyFields = errors.New("usertype: too many fields")
)

var fixedTags = map[reflect.Kind]typereg.Tag{
	reflect.Bool:    typereg.TagBool,
	reflect.Int8:    typereg.TagInt8,
	reflect.Uint8:   typereg.TagUint8,
	reflect.Int16:   typereg.TagInt16,
	reflect.Uint16:  typereg.TagUint16,
	reflect.Int32:   typereg.TagInt32,
	reflect.Uint32:  typereg.TagUint32,
	reflect.Int64:   typereg.TagInt64,
	reflect.Uint64:  typereg.TagUint64,
	reflect.Float32: typereg.TagFloat32,
	reflect.Float64: typereg.TagFloat64,
}

// Codec encodes exported struct fields in declaration order. A struct is a
// u16 field count followed by one tagged object per field. Fixed-width
// fields take a fast path that produces the same bytes WriteObject would.
//
// Decoding is tolerant: fields missing from the input keep their zero
// value and fields beyond the known ones are read and discarded.
type Codec struct {
	reg  *typereg.Registry
	mu   sync.RWMutex
	plan map[reflect.Type]*fieldPlan
}

type fieldPlan struct {
	fieldCount int
	varCount   int
	fixedSize  int
	fields     []fieldInfo
}

type fieldInfo struct {
	idx   int
	name  string
	kind  reflect.Kind
	fixed bool
	size  int
	tag   typereg.Tag
}

// New returns a codec resolving non-fixed fields through reg.
func New(reg *typereg.Registry) *Codec {
	return &Codec{reg: reg, plan: make(map[reflect.Type]*fieldPlan)}
}

func (c *Codec) getPlan(t reflect.Type) *fieldPlan {
	c.mu.RLock()
	if plan, ok := c.plan[t]; ok {
		c.mu.RUnlock()
		return plan
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plan[t]; ok {
		return plan
	}

	plan := &fieldPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		kind := sf.Type.Kind()
		fi := fieldInfo{idx: i, name: sf.Name, kind: kind, fixed: common.IsFixedKind(kind)}
		if fi.fixed {
			fi.size = common.FixedSize(kind)
			fi.tag = fixedTags[kind]
			plan.fixedSize += 1 + fi.size
		} else {
			plan.varCount++
		}
		plan.fields = append(plan.fields, fi)
	}
	plan.fieldCount = len(plan.fields)
	c.plan[t] = plan
	return plan
}

// Encode writes the struct v, or the struct v points to.
func (c *Codec) Encode(b *wirebuf.Buffer, val any) error {
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrNotStruct, val)
	}
	return c.encode(b, v)
}

func (c *Codec) encode(b *wirebuf.Buffer, v reflect.Value) error {
	plan := c.getPlan(v.Type())
	if plan.fieldCount > 0xffff {
		return fmt.Errorf("%w: %s has %d", ErrTooManyFields, v.Type(), plan.fieldCount)
	}
	// fixed part plus a rough guess for variable fields
	b.Ensure(b.WritePos() + 2 + plan.fixedSize + plan.varCount*32)
	b.WriteUint16(uint16(plan.fieldCount))

	var scratch [8]byte
	for _, f := range plan.fields {
		fv := v.Field(f.idx)
		if f.fixed {
			b.WriteUint8(uint8(f.tag))
			common.PutFixed(scratch[:f.size], fv)
			b.WriteRaw(scratch[:f.size])
			continue
		}
		var obj any
		if !isNilValue(fv) {
			obj = canonical(fv).Interface()
		}
		if err := c.reg.WriteObject(b, obj); err != nil {
			return fmt.Errorf("field %s.%s: %w", v.Type().Name(), f.name, err)
		}
	}
	return b.Err()
}

// Decode reads a struct into dst, which must be a non-nil struct pointer.
func (c *Codec) Decode(b *wirebuf.Buffer, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrNotStruct, dst)
	}
	return c.decode(b, v.Elem())
}

func (c *Codec) decode(b *wirebuf.Buffer, v reflect.Value) error {
	plan := c.getPlan(v.Type())
	n := int(b.ReadUint16())
	if err := b.Err(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if i >= len(plan.fields) {
			// written by a newer struct definition
			if _, err := c.reg.ReadObject(b); err != nil {
				return err
			}
			continue
		}
		f := plan.fields[i]
		fv := v.Field(f.idx)
		if f.fixed {
			tag := typereg.Tag(b.ReadUint8())
			if tag != f.tag {
				if err := b.Err(); err != nil {
					return err
				}
				return fmt.Errorf("%w: %s.%s want %s, got %s", ErrFieldType, v.Type().Name(), f.name, f.tag, tag)
			}
			raw := b.ReadRaw(f.size)
			if err := b.Err(); err != nil {
				return err
			}
			common.SetFixed(fv, raw, f.kind)
			continue
		}
		obj, err := c.reg.ReadObject(b)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", v.Type().Name(), f.name, err)
		}
		if err := assign(fv, obj); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrFieldType, v.Type().Name(), f.name, err)
		}
	}
	return b.Err()
}

func assign(dst reflect.Value, obj any) error {
	if obj == nil {
		dst.SetZero()
		return nil
	}
	src := reflect.ValueOf(obj)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind():
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot use %s as %s", src.Type(), dst.Type())
	}
	return nil
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.String: reflect.TypeFor[string](),
	reflect.Int:    reflect.TypeFor[int](),
	reflect.Uint:   reflect.TypeFor[uint](),
}

// canonical strips a defined type down to the registered basic type, so a
// field of type `type Name string` encodes as a string.
func canonical(v reflect.Value) reflect.Value {
	if bt, ok := basicTypes[v.Kind()]; ok && v.Type() != bt {
		return v.Convert(bt)
	}
	return v
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
