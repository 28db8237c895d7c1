package typereg

import (
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rawbytedev/wirebuf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectScenario(t *testing.T) {
	r := NewEmpty()
	require.NoError(t, Register(r, TagString, (*wirebuf.Buffer).WriteString, (*wirebuf.Buffer).ReadString))
	require.NoError(t, Register(r, TagBool, (*wirebuf.Buffer).WriteBool, (*wirebuf.Buffer).ReadBool))
	require.NoError(t, Register(r, TagInt, WriteInt, ReadInt))

	b := wirebuf.NewBufferSize(64)
	for _, v := range []any{nil, "hi", true, 42} {
		require.NoError(t, r.WriteObject(b, v))
	}
	b.Commit()

	var got []any
	for i := 0; i < 4; i++ {
		v, err := r.ReadObject(b)
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Equal(t, []any{nil, "hi", true, 42}, got)
	require.Equal(t, 0, b.Count())
}

func TestObject(t *testing.T) {
	r := New()
	now := time.UnixMilli(1_650_000_000_000).UTC()
	values := []any{
		"", "text",
		uint8(0), uint8(math.MaxUint8),
		int8(math.MinInt8), int8(math.MaxInt8),
		wirebuf.Char(0), wirebuf.Char(math.MaxUint16),
		int16(math.MinInt16), int16(math.MaxInt16),
		uint16(0), uint16(math.MaxUint16),
		int32(math.MinInt32), int32(math.MaxInt32),
		uint32(0), uint32(math.MaxUint32),
		int64(math.MinInt64), int64(math.MaxInt64),
		uint64(0), uint64(math.MaxUint64),
		float32(-math.MaxFloat32), float32(math.MaxFloat32),
		-math.MaxFloat64, math.MaxFloat64,
		true, false,
		now, wirebuf.MinTime, wirebuf.MaxTime,
		uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		time.Duration(math.MinInt64), time.Duration(math.MaxInt64),
		int(math.MinInt64), int(math.MaxInt64), uint(math.MaxUint64),
		[]int32{1, -2, 3},
		List[string]{"a", "b"},
		[]string(nil),
		[]any{"x", int16(3), nil, []bool{true}},
		List[any]{uint8(1)},
		Dict{"a": int32(1), "b": "two", "c": nil, "nested": Dict{"k": true}},
		[]Dict{{"x": 1}},
	}
	b := wirebuf.NewBufferSize(16)
	for _, v := range values {
		require.NoError(t, r.WriteObject(b, v), "%T", v)
	}
	b.Commit()
	for _, v := range values {
		got, err := r.ReadObject(b)
		require.NoError(t, err)
		if tv, ok := v.(time.Time); ok {
			require.True(t, tv.Equal(got.(time.Time)))
			continue
		}
		require.Equal(t, v, got)
	}
	require.Equal(t, 0, b.Count())
}

func TestDecimalObject(t *testing.T) {
	r := Default()
	b := wirebuf.NewBufferSize(16)
	d := decimal.RequireFromString("-12.345")
	require.NoError(t, r.WriteObject(b, d))
	require.NoError(t, r.WriteObject(b, []decimal.Decimal{d}))
	b.Commit()
	got, err := Read[decimal.Decimal](r, b)
	require.NoError(t, err)
	require.True(t, d.Equal(got))
	arr, err := Read[[]decimal.Decimal](r, b)
	require.NoError(t, err)
	require.Len(t, arr, 1)
	require.True(t, d.Equal(arr[0]))
}

func TestTagLayout(t *testing.T) {
	r := New()
	cases := []struct {
		v   any
		tag Tag
	}{
		{"s", TagString},
		{[]string{}, TagString | FlagArray},
		{List[string]{}, TagString | FlagList},
		{uint64(1), TagUint64},
		{[]any{}, 0xb1},
		{List[any]{}, 0xd1},
	}
	for _, c := range cases {
		tag, ok := r.TagOf(c.v)
		require.True(t, ok)
		require.Equal(t, c.tag, tag, "%T", c.v)
	}
	tag, ok := r.TagOf(nil)
	require.True(t, ok)
	require.Equal(t, TagNull, tag)

	b := wirebuf.NewBufferSize(16)
	require.NoError(t, r.WriteObject(b, []uint16{7}))
	b.Commit()
	require.Equal(t, []byte{0x26, 1, 0, 0, 0, 1, 0, 7}, b.Unread())
}

func TestTagBits(t *testing.T) {
	for id := uint8(0); id <= MaxUserID; id++ {
		tag := UserTag(id)
		require.True(t, tag.IsUser(), "id %d", id)
		require.False(t, tag.IsExtended())
		require.False(t, tag.IsArray())
		require.False(t, tag.IsList())
		require.False(t, tag.IsHeterogeneous())
		require.Equal(t, id, tag.UserID())
	}
	require.True(t, ExtUserArray.IsExtended())
	require.True(t, TagObjectArray.IsHeterogeneous())
	require.True(t, TagObjectArray.IsArray())
	require.True(t, TagObjectList.IsList())
	require.Equal(t, TagObject, TagObjectList.Base())

	assert.Equal(t, "string", TagString.String())
	assert.Equal(t, "int32[]", (TagInt32 | FlagArray).String())
	assert.Equal(t, "list<uuid>", (TagUUID | FlagList).String())
	assert.Equal(t, "user(33)", UserTag(33).String())
	assert.Equal(t, "user[]", ExtUserArray.String())
	assert.Equal(t, "base(30)", Tag(30).String())
}

func TestUnsupportedObjectType(t *testing.T) {
	r := New()
	b := wirebuf.NewBufferSize(16)
	type unknown struct{ A int }
	err := r.WriteObject(b, unknown{1})
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.Equal(t, 0, b.WritePos())
	require.NoError(t, b.Err())

	b.WriteUint8(0x1e)
	b.Commit()
	_, err = r.ReadObject(b)
	require.ErrorIs(t, err, ErrUnsupportedType)

	require.ErrorIs(t, r.WriteObject(b, Dict{"bad": unknown{}}), ErrUnsupportedType)
}

func TestReadTypeMismatch(t *testing.T) {
	r := New()
	b := wirebuf.NewBufferSize(16)
	require.NoError(t, r.WriteObject(b, "x"))
	require.NoError(t, r.WriteObject(b, nil))
	b.Commit()
	_, err := Read[int](r, b)
	require.ErrorIs(t, err, ErrUnsupportedType)
	v, err := Read[string](r, b)
	require.NoError(t, err)
	require.Equal(t, "", v)
}

func TestRegisterRange(t *testing.T) {
	r := NewEmpty()
	noop := func(*wirebuf.Buffer, int) {}
	read := func(*wirebuf.Buffer) int { return 0 }
	require.ErrorIs(t, Register(r, TagNull, noop, read), ErrTagRange)
	require.ErrorIs(t, Register(r, TagObject, noop, read), ErrTagRange)
	require.ErrorIs(t, Register(r, 0x20, noop, read), ErrTagRange)
	enc := func(*Registry, *wirebuf.Buffer, int) error { return nil }
	dec := func(*Registry, *wirebuf.Buffer) (int, error) { return 0, nil }
	require.ErrorIs(t, RegisterUser(r, 64, enc, dec), ErrTagRange)
	require.Zero(t, r.Len())
}

type celsius float64

func TestLastRegistrationWins(t *testing.T) {
	r := NewEmpty()
	require.NoError(t, Register(r, 30, func(b *wirebuf.Buffer, v celsius) { b.WriteFloat64(float64(v)) },
		func(b *wirebuf.Buffer) celsius { return celsius(b.ReadFloat64()) }))
	require.Equal(t, 3, r.Len())
	require.NoError(t, Register(r, 30, func(b *wirebuf.Buffer, v int) { b.WriteInt32(int32(v)) },
		func(b *wirebuf.Buffer) int { return int(b.ReadInt32()) }))
	require.Equal(t, 3, r.Len())

	typ, ok := r.TypeOf(30, 0)
	require.True(t, ok)
	require.Equal(t, reflect.TypeFor[int](), typ)
	_, ok = r.TagOf(celsius(1))
	require.False(t, ok)

	// moving a type to a new tag frees the old one
	require.NoError(t, Register(r, 29, func(b *wirebuf.Buffer, v int) { b.WriteInt64(int64(v)) },
		func(b *wirebuf.Buffer) int { return int(b.ReadInt64()) }))
	_, ok = r.TypeOf(30, 0)
	require.False(t, ok)
}

func TestUserTypeCollections(t *testing.T) {
	type point struct{ X, Y int32 }
	r := New()
	enc := func(_ *Registry, b *wirebuf.Buffer, p point) error {
		b.WriteInt32(p.X)
		b.WriteInt32(p.Y)
		return nil
	}
	dec := func(_ *Registry, b *wirebuf.Buffer) (point, error) {
		return point{b.ReadInt32(), b.ReadInt32()}, nil
	}
	require.NoError(t, RegisterUser(r, 40, enc, dec))

	b := wirebuf.NewBufferSize(16)
	values := []any{point{1, 2}, []point{{3, 4}}, List[point]{{5, 6}, {7, 8}}, []any{point{9, 9}}}
	for _, v := range values {
		require.NoError(t, r.WriteObject(b, v))
	}
	b.Commit()
	require.Equal(t, byte(UserTag(40)), b.Unread()[0])
	for _, v := range values {
		tag, got, err := r.ReadTagged(b)
		require.NoError(t, err)
		require.Equal(t, v, got, "tag %s", tag)
	}
	typ, ok := r.TypeOf(ExtUserList, UserTag(40))
	require.True(t, ok)
	require.Equal(t, reflect.TypeFor[List[point]](), typ)
}

func TestCorruptCount(t *testing.T) {
	r := New()
	b := wirebuf.NewBufferSize(16)
	b.WriteUint8(uint8(TagInt32 | FlagArray))
	b.WriteBool(true)
	b.WriteInt32(-3)
	b.Commit()
	_, err := r.ReadObject(b)
	require.ErrorIs(t, err, wirebuf.ErrInvalidLength)

	b = wirebuf.NewBufferSize(16)
	b.WriteUint8(uint8(TagInt32 | FlagArray))
	b.WriteBool(true)
	b.WriteInt32(math.MaxInt32)
	b.Commit()
	_, err = r.ReadObject(b)
	require.ErrorIs(t, err, wirebuf.ErrShortRead)
}

func TestConcurrentLookups(t *testing.T) {
	r := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := wirebuf.NewBufferSize(64)
			for j := 0; j < 100; j++ {
				assert.NoError(t, r.WriteObject(b, []any{i, "x", float64(j)}))
			}
			b.Commit()
			for j := 0; j < 100; j++ {
				v, err := r.ReadObject(b)
				assert.NoError(t, err)
				assert.Equal(t, []any{i, "x", float64(j)}, v)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkWriteReadObject(b *testing.B) {
	r := Default()
	buf := wirebuf.NewBufferSize(1 << 12)
	v := Dict{"id": int64(1), "name": "bench", "tags": []string{"a", "b"}}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := r.WriteObject(buf, v); err != nil {
			b.Fatal(err)
		}
		buf.Commit()
		if _, err := r.ReadObject(buf); err != nil {
			b.Fatal(err)
		}
	}
}
