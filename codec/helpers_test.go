package codec_test

import (
	"sync"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"

	"github.com/anirudhraja/wirekit/codec"
	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/registry"
	"github.com/anirudhraja/wirekit/schema"
	"github.com/anirudhraja/wirekit/wire"
)

var (
	fixtureOnce sync.Once
	fixtureReg  *registry.Registry
	fixtureErr  error
)

// fixture loads testdata/codec.proto once for the whole package.
func fixture(t *testing.T) *registry.Registry {
	t.Helper()
	fixtureOnce.Do(func() {
		r := registry.NewRegistry([]string{"testdata"})
		fixtureErr = r.LoadSchemaFromFile("codec.proto")
		r.Extensions().Freeze()
		fixtureReg = r
	})
	require.NoError(t, fixtureErr)
	return fixtureReg
}

func newCache(t *testing.T, tweaks ...func(*codec.Options)) *codec.Cache {
	t.Helper()
	opts := codec.DefaultOptions()
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	c, err := codec.NewCache(fixture(t), opts)
	require.NoError(t, err)
	return c
}

// adapter returns the adapter of codectest.<name>, bound to the fixture's
// extension registry when withExt is set.
func adapter(t *testing.T, c *codec.Cache, name string, withExt bool) *codec.Adapter {
	t.Helper()
	id := schema.TypeID("codectest." + name)
	var (
		a   *codec.Adapter
		err error
	)
	if withExt {
		a, err = c.Adapter(id, fixture(t).Extensions())
	} else {
		a, err = c.Adapter(id, nil)
	}
	require.NoError(t, err)
	return a
}

func desc(t *testing.T, name string) *schema.MessageDescriptor {
	t.Helper()
	md, ok := fixture(t).Message(schema.TypeID("codectest." + name))
	require.True(t, ok, name)
	return md
}

func extension(t *testing.T, extendee string, tag int) *schema.ExtensionDescriptor {
	t.Helper()
	x, ok := fixture(t).Extensions().Resolve(schema.TypeID("codectest."+extendee), wire.FieldNumber(tag))
	require.True(t, ok, "%s#%d", extendee, tag)
	return x
}

// scope assembles protoscope text into wire bytes.
func scope(t *testing.T, src string) []byte {
	t.Helper()
	out, err := protoscope.NewScanner(src).Exec()
	require.NoError(t, err, src)
	return out
}

func leaf(t *testing.T, a string, b int32) *message.Message {
	t.Helper()
	lb := message.NewBuilder(desc(t, "Leaf"))
	require.NoError(t, lb.Set(1, a))
	require.NoError(t, lb.Set(2, b))
	m, err := lb.Build()
	require.NoError(t, err)
	return m
}
