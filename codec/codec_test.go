package codec_test

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhraja/wirekit/codec"
	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/registry"
	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

func TestDecodeSingleVarint(t *testing.T) {
	a := adapter(t, newCache(t), "Scalars", false)

	m, err := a.Decode([]byte{0x08, 0xac, 0x02})
	require.NoError(t, err)
	v, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, int32(300), v)

	out, err := a.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0xac, 0x02}, out)
}

func TestDecodeScalars(t *testing.T) {
	a := adapter(t, newCache(t), "Scalars", false)
	data := scope(t, `
		1: -1
		5: -2z
		7: 1
		8: 7i32
		9: -7i32
		10: 9i64
		11: -9i64
		12: 1.5i32
		13: -0.25
		14: {"hi"}
		15: {`+"`000102`"+`}
		16: 2
	`)

	m, err := a.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"i32":   int32(-1),
		"s32":   int32(-2),
		"flag":  true,
		"f32":   uint32(7),
		"sf32":  int32(-7),
		"f64":   uint64(9),
		"sf64":  int64(-9),
		"ratio": float32(1.5),
		"score": -0.25,
		"text":  "hi",
		"blob":  []byte{0, 1, 2},
		"color": int32(2),
	}, m.AsMap())
	assert.Empty(t, m.UnknownFields())

	out, err := a.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestScalarRoundTrip(t *testing.T) {
	a := adapter(t, newCache(t), "Scalars", false)
	b := message.NewBuilder(a.Descriptor())
	for name, v := range map[string]interface{}{
		"i32":   int32(math.MinInt32),
		"i64":   int64(math.MinInt64),
		"u32":   uint32(math.MaxUint32),
		"u64":   uint64(math.MaxUint64),
		"s32":   int32(math.MaxInt32),
		"s64":   int64(math.MinInt64),
		"flag":  false,
		"f32":   uint32(math.MaxUint32),
		"sf32":  int32(math.MinInt32),
		"f64":   uint64(1 << 40),
		"sf64":  int64(-1 << 40),
		"ratio": float32(math.Inf(-1)),
		"score": math.SmallestNonzeroFloat64,
		"text":  "héllo\x00",
		"blob":  []byte{},
		"color": int32(0),
	} {
		require.NoError(t, b.SetByName(name, v), name)
	}
	m, err := b.Build()
	require.NoError(t, err)

	out, err := a.Encode(m)
	require.NoError(t, err)
	size, err := a.EncodedSize(m)
	require.NoError(t, err)
	assert.Len(t, out, size)

	back, err := a.Decode(out)
	require.NoError(t, err)
	assert.True(t, m.Equal(back), "decoded %s", back)

	again, err := a.Encode(back)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestNaNRoundTrip(t *testing.T) {
	a := adapter(t, newCache(t), "Scalars", false)
	b := message.NewBuilder(a.Descriptor())
	require.NoError(t, b.SetByName("ratio", float32(math.NaN())))
	require.NoError(t, b.SetByName("score", math.NaN()))
	m, err := b.Build()
	require.NoError(t, err)

	out, err := a.Encode(m)
	require.NoError(t, err)
	back, err := a.Decode(out)
	require.NoError(t, err)
	assert.True(t, m.Equal(back), "decoded %s", back)
	assert.True(t, back.Equal(m))
	assert.Equal(t, m.Hash(), back.Hash())
}

func TestEncodeOrder(t *testing.T) {
	a := adapter(t, newCache(t), "Holder", true)
	b := message.NewBuilder(a.Descriptor())
	b.AddUnknown(scope(t, `50: 1`))
	require.NoError(t, b.SetExtension(extension(t, "Holder", 103), int32(1)))
	require.NoError(t, b.SetExtension(extension(t, "Holder", 100), "x"))
	require.NoError(t, b.Set(4, "n"))
	require.NoError(t, b.Set(1, int64(1)))
	m, err := b.Build()
	require.NoError(t, err)

	want := scope(t, `1: 1 4: {"n"} 100: {"x"} 103: 1 50: 1`)
	for i := 0; i < 3; i++ {
		out, err := a.Encode(m)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	}

	back, err := a.Decode(want)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
}

func TestEncodeTo(t *testing.T) {
	a := adapter(t, newCache(t), "Leaf", false)
	enc := wire.NewEncoder(0)
	enc.EncodeTag(9, wire.WireVarint)
	enc.EncodeVarint(1)
	require.NoError(t, a.EncodeTo(enc, leaf(t, "a", 2)))
	assert.Equal(t, scope(t, `9: 1 1: {"a"} 2: 2`), enc.Bytes())
}

func TestEncodeRejectsOtherTypes(t *testing.T) {
	c := newCache(t)
	a := adapter(t, c, "Holder", false)

	_, err := a.Encode(leaf(t, "a", 1))
	assert.ErrorIs(t, err, codec.ErrWrongType)
	_, err = a.Encode(nil)
	assert.ErrorIs(t, err, codec.ErrWrongType)
	assert.ErrorIs(t, a.EncodeTo(wire.NewEncoder(0), leaf(t, "a", 1)), codec.ErrWrongType)

	_, err = a.EncodedSize(leaf(t, "a", 1))
	assert.ErrorIs(t, err, codec.ErrWrongType)
	_, err = a.EncodedSize(nil)
	assert.ErrorIs(t, err, codec.ErrWrongType)
}

func TestPackedAndUnpackedAreInterchangeable(t *testing.T) {
	a := adapter(t, newCache(t), "Lists", false)
	tests := []struct {
		name string
		in   string
		want map[string]interface{}
		out  string
	}{
		{
			name: "unpacked into packed field",
			in:   `1: 1 1: 2 1: 3`,
			want: map[string]interface{}{"packed_ints": []interface{}{int32(1), int32(2), int32(3)}},
			out:  `1: {1 2 3}`,
		},
		{
			name: "packed into unpacked field",
			in:   `2: {4 5}`,
			want: map[string]interface{}{"loose_ints": []interface{}{int32(4), int32(5)}},
			out:  `2: 4 2: 5`,
		},
		{
			name: "mixed runs concatenate",
			in:   `1: {1 2} 1: 3 1: {4}`,
			want: map[string]interface{}{"packed_ints": []interface{}{int32(1), int32(2), int32(3), int32(4)}},
			out:  `1: {1 2 3 4}`,
		},
		{
			name: "packed doubles",
			in:   `6: 1.5 6: {2.5 -3.0}`,
			want: map[string]interface{}{"packed_doubles": []interface{}{1.5, 2.5, -3.0}},
			out:  `6: {1.5 2.5 -3.0}`,
		},
		{
			name: "zigzag list",
			in:   `7: {-1z 2z}`,
			want: map[string]interface{}{"loose_sints": []interface{}{int64(-1), int64(2)}},
			out:  `7: -1z 7: 2z`,
		},
		{
			name: "empty packed run",
			in:   `1: {}`,
			want: map[string]interface{}{},
			out:  ``,
		},
		{
			name: "strings",
			in:   `5: {"a"} 5: {"b"}`,
			want: map[string]interface{}{"names": []interface{}{"a", "b"}},
			out:  `5: {"a"} 5: {"b"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := a.Decode(scope(t, tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.AsMap())

			out, err := a.Encode(m)
			require.NoError(t, err)
			assert.Equal(t, scope(t, tt.out), out)
		})
	}
}

func TestMapEntries(t *testing.T) {
	a := adapter(t, newCache(t), "Lists", false)
	data := scope(t, `8: {1: {"a"} 2: 1} 8: {1: {"b"} 2: 2}`)

	m, err := a.Decode(data)
	require.NoError(t, err)
	entries := m.Repeated(8)
	require.Len(t, entries, 2)
	first := entries[0].(*message.Message)
	assert.Equal(t, schema.TypeID("codectest.Lists.CountsEntry"), first.Type())
	assert.Equal(t, map[string]interface{}{"key": "a", "value": int32(1)}, first.AsMap())

	out, err := a.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func nodes(depth int) string {
	return strings.Repeat("2: {", depth) + "1: 1" + strings.Repeat("}", depth)
}

func TestRecursionLimit(t *testing.T) {
	a := adapter(t, newCache(t), "Node", false)

	m, err := a.Decode(scope(t, nodes(codec.DefaultRecursionLimit)))
	require.NoError(t, err)
	depth := 0
	for {
		child, ok := m.Get(2)
		if !ok {
			break
		}
		m = child.(*message.Message)
		depth++
	}
	assert.Equal(t, codec.DefaultRecursionLimit, depth)
	v, _ := m.Get(1)
	assert.Equal(t, int32(1), v)

	_, err = a.Decode(scope(t, nodes(codec.DefaultRecursionLimit+1)))
	assert.ErrorIs(t, err, wire.ErrRecursionLimitExceeded)
}

func TestRecursionLimitOption(t *testing.T) {
	a := adapter(t, newCache(t, func(o *codec.Options) { o.RecursionLimit = 2 }), "Node", false)

	_, err := a.Decode(scope(t, nodes(2)))
	require.NoError(t, err)

	_, err = a.Decode(scope(t, nodes(3)))
	require.ErrorIs(t, err, wire.ErrRecursionLimitExceeded)
	var fe *wire.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"child", "child", "child"}, fe.FieldPath)
}

func TestExtensions(t *testing.T) {
	c := newCache(t)
	data := scope(t, `
		1: 7
		100: {"t"}
		101: {1 2}
		101: 3
		102: {1: {"a"} 2: 1}
		103: 1
	`)

	t.Run("resolved through the registry", func(t *testing.T) {
		a := adapter(t, c, "Holder", true)
		m, err := a.Decode(data)
		require.NoError(t, err)
		assert.Empty(t, m.UnknownFields())

		v, ok := m.Extension(100)
		require.True(t, ok)
		assert.Equal(t, "t", v)
		v, _ = m.Extension(101)
		assert.Equal(t, []interface{}{int32(1), int32(2), int32(3)}, v)
		v, _ = m.Extension(102)
		assert.True(t, leaf(t, "a", 1).Equal(v.(*message.Message)))
		v, _ = m.Extension(103)
		assert.Equal(t, int32(1), v)
		assert.Equal(t, "codectest.extra", m.Extensions()[2].Desc.FullName)

		out, err := a.Encode(m)
		require.NoError(t, err)
		assert.Equal(t, scope(t, `1: 7 100: {"t"} 101: {1 2 3} 102: {1: {"a"} 2: 1} 103: 1`), out)
	})

	t.Run("without a registry they stay unknown", func(t *testing.T) {
		a := adapter(t, c, "Holder", false)
		assert.Empty(t, a.RegistryID())
		m, err := a.Decode(data)
		require.NoError(t, err)
		assert.Empty(t, m.Extensions())
		assert.Equal(t, data[2:], m.UnknownFields())

		out, err := a.Encode(m)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})
}

func TestExtensionsAreScopedToTheirExtendee(t *testing.T) {
	c := newCache(t)

	other := adapter(t, c, "Other", true)
	m, err := other.Decode(scope(t, `100: 5i64 101: {1 2}`))
	require.NoError(t, err)
	v, ok := m.Extension(100)
	require.True(t, ok)
	assert.Equal(t, uint64(5), v)
	assert.Equal(t, scope(t, `101: {1 2}`), m.UnknownFields(), "marks extends Holder only")

	// Holder's tag 100 is a string, so a fixed64 payload cannot be it
	holder := adapter(t, c, "Holder", true)
	m, err = holder.Decode(scope(t, `1: 1 100: 5i64`))
	require.NoError(t, err)
	_, ok = m.Extension(100)
	assert.False(t, ok)
	assert.Equal(t, scope(t, `100: 5i64`), m.UnknownFields())
}

func TestMismatchedFieldErrorsCarryPath(t *testing.T) {
	a := adapter(t, newCache(t), "Holder", true)
	tests := []struct {
		name string
		in   []byte
		path []string
	}{
		// note is a string sent as a fixed64 with two bytes left
		{"declared field", []byte{0x08, 0x07, 0x21, 0x01, 0x02}, []string{"note"}},
		// [codectest.tag] is a string sent the same way
		{"extension", []byte{0x08, 0x07, 0xa1, 0x06, 0x01, 0x02}, []string{"[codectest.tag]"}},
		{"unknown field", []byte{0x08, 0x07, 0xc1, 0x0c, 0x01, 0x02}, []string{"#200"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Decode(tt.in)
			require.ErrorIs(t, err, wire.ErrTruncatedInput)
			var fe *wire.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.path, fe.FieldPath)
		})
	}
}

func TestUnknownFieldPolicy(t *testing.T) {
	data := scope(t, `1: 1 99: {"zz"} 2: 2 3: 5i32`)

	preserve := adapter(t, newCache(t), "Scalars", false)
	m, err := preserve.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, scope(t, `99: {"zz"} 3: 5i32`), m.UnknownFields(), "wire type mismatch lands with the unknown fields")
	out, err := preserve.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, scope(t, `1: 1 2: 2 99: {"zz"} 3: 5i32`), out)

	discard := adapter(t, newCache(t, func(o *codec.Options) { o.UnknownFields = codec.DiscardUnknown }), "Scalars", false)
	m, err = discard.Decode(data)
	require.NoError(t, err)
	assert.Nil(t, m.UnknownFields())
	out, err = discard.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, scope(t, `1: 1 2: 2`), out)
}

func TestUnknownEnumValues(t *testing.T) {
	reject := func(o *codec.Options) { o.UnknownEnums = codec.RejectUnknownEnums }
	tests := []struct {
		name    string
		typ     string
		in      string
		set     map[string]interface{}
		unknown string
	}{
		{name: "singular", typ: "Scalars", in: `16: 7`, set: map[string]interface{}{}, unknown: `16: 7`},
		{name: "negative", typ: "Scalars", in: `16: -1`, set: map[string]interface{}{}, unknown: `16: -1`},
		{
			name: "packed run", typ: "Lists", in: `3: {1 7 2}`,
			set:     map[string]interface{}{"packed_colors": []interface{}{int32(1), int32(2)}},
			unknown: `3: 7`,
		},
		{
			name: "unpacked", typ: "Lists", in: `4: 9 4: 0`,
			set:     map[string]interface{}{"loose_colors": []interface{}{int32(0)}},
			unknown: `4: 9`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := adapter(t, newCache(t), tt.typ, false).Decode(scope(t, tt.in))
			require.NoError(t, err)
			known := m.AsMap()
			delete(known, "__unknown")
			assert.Equal(t, tt.set, known)
			assert.Equal(t, scope(t, tt.unknown), m.UnknownFields())

			_, err = adapter(t, newCache(t, reject), tt.typ, false).Decode(scope(t, tt.in))
			assert.ErrorIs(t, err, wire.ErrUnknownEnumValue)
		})
	}
}

func TestUnknownEnumExtension(t *testing.T) {
	a := adapter(t, newCache(t), "Holder", true)
	m, err := a.Decode(scope(t, `1: 1 103: 5`))
	require.NoError(t, err)
	_, ok := m.Extension(103)
	assert.False(t, ok)
	assert.Equal(t, scope(t, `103: 5`), m.UnknownFields())
}

func TestMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		in   []byte
		want error
	}{
		{"varint runs off the end", "Scalars", []byte{0x08, 0x80}, wire.ErrTruncatedInput},
		{"ten continuation bytes", "Scalars", append([]byte{0x08}, bytes.Repeat([]byte{0x80}, 10)...), wire.ErrMalformedVarint},
		{"string longer than input", "Scalars", []byte{0x72, 0x05, 'a'}, wire.ErrTruncatedInput},
		{"fixed32 cut short", "Scalars", []byte{0x45, 0x01, 0x02}, wire.ErrTruncatedInput},
		{"message longer than input", "Holder", []byte{0x08, 0x01, 0x12, 0x05, 0x0a, 0x01, 'a'}, wire.ErrTruncatedInput},
		{"content overruns message", "Holder", []byte{0x08, 0x01, 0x12, 0x03, 0x0a, 0x05, 'a', 'b', 'c', 'd', 'e'}, wire.ErrTruncatedOrOverlongMessage},
		{"message ends early", "Holder", []byte{0x08, 0x01, 0x12, 0x05, 0x0a, 0x01, 'a', 0x00, 0x00}, wire.ErrTruncatedOrOverlongMessage},
		{"bytes after end marker", "Scalars", []byte{0x08, 0x01, 0x00, 0x08, 0x02}, wire.ErrTruncatedOrOverlongMessage},
		{"group start", "Scalars", []byte{0x0b}, wire.ErrInvalidWireType},
		{"group end", "Scalars", []byte{0x0c}, wire.ErrInvalidWireType},
		{"wire type 7", "Scalars", []byte{0x0f}, wire.ErrInvalidWireType},
		{"field number zero", "Scalars", []byte{0x02, 0x00}, wire.ErrInvalidFieldNumber},
		{"unknown field cut short", "Scalars", []byte{0xf8, 0x01}, wire.ErrTruncatedInput},
		{"packed run cut short", "Lists", []byte{0x0a, 0x02, 0x01, 0x80}, wire.ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := adapter(t, newCache(t), tt.typ, false).Decode(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, m)
		})
	}
}

func TestEndMarker(t *testing.T) {
	a := adapter(t, newCache(t), "Scalars", false)
	m, err := a.Decode([]byte{0x08, 0x01, 0x00})
	require.NoError(t, err)
	v, _ := m.Get(1)
	assert.Equal(t, int32(1), v)

	m, err = a.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, m.AsMap())
}

func TestLastWriteWins(t *testing.T) {
	c := newCache(t)
	m, err := adapter(t, c, "Scalars", false).Decode(scope(t, `1: 1 14: {"a"} 1: 2 14: {"b"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"i32": int32(2), "text": "b"}, m.AsMap())

	// embedded messages are replaced, not merged
	_, err = adapter(t, c, "Holder", false).Decode(scope(t, `1: 1 2: {1: {"a"} 2: 1} 2: {2: 5}`))
	var missing *message.MissingRequiredFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"leaf.a"}, missing.Fields)
}

func TestMissingRequiredFields(t *testing.T) {
	c := newCache(t)
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"top level", `4: {"n"}`, []string{"id"}},
		{"nested", `1: 1 2: {2: 1}`, []string{"leaf.a"}},
		{"repeated elements are indexed", `3: {1: {"a"} 2: 1} 3: {1: {"b"}} 3: {}`, []string{"id", "leaves[1].b", "leaves[2].a", "leaves[2].b"}},
		{"inside an extension", `1: 1 102: {1: {"a"}}`, []string{"[codectest.extra].b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := adapter(t, c, "Holder", true).Decode(scope(t, tt.in))
			assert.Nil(t, m)
			require.ErrorIs(t, err, message.ErrMissingRequiredFields)
			var missing *message.MissingRequiredFieldsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, schema.TypeID("codectest.Holder"), missing.Type)
			assert.Equal(t, tt.want, missing.Fields)
		})
	}
}

func TestCacheDerivesOncePerKey(t *testing.T) {
	c := newCache(t)
	first := adapter(t, c, "Holder", true)
	assert.Same(t, first, adapter(t, c, "Holder", true))
	assert.Equal(t, int64(1), c.Derived())

	bare := adapter(t, c, "Holder", false)
	assert.NotSame(t, first, bare)
	assert.Equal(t, fixture(t).Extensions().ID(), first.RegistryID())
	assert.Equal(t, int64(2), c.Derived())

	// nested adapters are derived on first use
	_, err := first.Decode(scope(t, `1: 1 2: {1: {"a"} 2: 1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Derived())
}

func TestCacheConcurrentAdapters(t *testing.T) {
	c := newCache(t)
	types := []string{"Scalars", "Lists", "Node", "Leaf", "Holder", "Other"}

	var wg sync.WaitGroup
	got := make([][]*codec.Adapter, 16)
	for g := range got {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for _, name := range types {
				a, err := c.Adapter(schema.TypeID("codectest."+name), nil)
				if err != nil {
					t.Error(err)
					return
				}
				got[g] = append(got[g], a)
			}
		}(g)
	}
	wg.Wait()

	for g := 1; g < len(got); g++ {
		require.Len(t, got[g], len(types))
		for i := range types {
			assert.Same(t, got[0][i], got[g][i])
		}
	}
	assert.Equal(t, int64(len(types)), c.Derived())
}

func TestCacheErrors(t *testing.T) {
	c := newCache(t)
	_, err := c.Adapter("codectest.Missing", nil)
	assert.ErrorIs(t, err, codec.ErrUnknownType)

	_, err = codec.NewCache(fixture(t), codec.Options{})
	assert.Error(t, err)
}

func TestCacheNilExtensionRegistry(t *testing.T) {
	c := newCache(t)
	var none *registry.ExtensionRegistry
	a, err := c.Adapter("codectest.Holder", none)
	require.NoError(t, err)
	assert.Empty(t, a.RegistryID())

	plain, err := c.Adapter("codectest.Holder", nil)
	require.NoError(t, err)
	assert.Same(t, plain, a)

	m, err := a.Decode(scope(t, `1: 7 100: {"t"}`))
	require.NoError(t, err)
	assert.Empty(t, m.Extensions())
	assert.NotEmpty(t, m.UnknownFields())
}

func TestOptions(t *testing.T) {
	opts := codec.DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, codec.DefaultRecursionLimit, opts.RecursionLimit)
	assert.Equal(t, "preserve", opts.UnknownFields.String())
	assert.Equal(t, "preserve", opts.UnknownEnums.String())

	for _, bad := range []codec.Options{
		{RecursionLimit: 0},
		{RecursionLimit: 1, UnknownFields: 9},
		{RecursionLimit: 1, UnknownEnums: 9},
	} {
		assert.Error(t, bad.Validate(), fmt.Sprintf("%+v", bad))
	}

	p, err := codec.ParseUnknownFieldPolicy(" Discard ")
	require.NoError(t, err)
	assert.Equal(t, codec.DiscardUnknown, p)
	_, err = codec.ParseUnknownFieldPolicy("keep")
	assert.Error(t, err)

	e, err := codec.ParseUnknownEnumPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, codec.RejectUnknownEnums, e)
	_, err = codec.ParseUnknownEnumPolicy("")
	assert.Error(t, err)
	assert.Equal(t, "UnknownEnumPolicy(9)", codec.UnknownEnumPolicy(9).String())
}
