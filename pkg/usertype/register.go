package usertype

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/rawbytedev/wirebuf"
	"github.com/rawbytedev/wirebuf/pkg/typereg"
)

// Register adds struct type T to c's registry as user type id, so T, []T
// and typereg.List[T] can be written with WriteObject.
func Register[T any](c *Codec, id uint8) error {
	if reflect.TypeFor[T]().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s", ErrNotStruct, reflect.TypeFor[T]())
	}
	return typereg.RegisterUser(c.reg, id,
		func(_ *typereg.Registry, b *wirebuf.Buffer, v T) error {
			return c.encode(b, reflect.ValueOf(&v).Elem())
		},
		func(_ *typereg.Registry, b *wirebuf.Buffer) (T, error) {
			var v T
			err := c.decode(b, reflect.ValueOf(&v).Elem())
			return v, err
		})
}

// encMode uses Core Deterministic Encoding so equal values give equal bytes.
var encMode cbor.EncMode

// decMode ignores unknown fields and decodes untyped maps as map[string]any.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("usertype: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("usertype: CBOR decoder initialization failed: " + err.Error())
	}
}

// RegisterCBOR adds T as user type id, carried as a length-prefixed CBOR
// document. Use it for types whose shape the reflect codec cannot follow,
// such as nested maps or pointer graphs.
func RegisterCBOR[T any](r *typereg.Registry, id uint8) error {
	return typereg.RegisterUser(r, id,
		func(_ *typereg.Registry, b *wirebuf.Buffer, v T) error {
			data, err := encMode.Marshal(v)
			if err != nil {
				return fmt.Errorf("usertype: cbor encode %T: %w", v, err)
			}
			b.WriteBytes(data)
			return nil
		},
		func(_ *typereg.Registry, b *wirebuf.Buffer) (T, error) {
			var v T
			data := b.ReadBytesView()
			if err := b.Err(); err != nil {
				return v, err
			}
			if err := decMode.Unmarshal(data, &v); err != nil {
				return v, fmt.Errorf("usertype: cbor decode %T: %w", v, err)
			}
			return v, nil
		})
}
