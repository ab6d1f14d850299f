package integration

import (
	"bytes"
	"context"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/spool"
	"github.com/zoobzio/spool/bson"
	"github.com/zoobzio/spool/json"
	"github.com/zoobzio/spool/msgpack"
	spooltest "github.com/zoobzio/spool/testing"
	"github.com/zoobzio/spool/xml"
	"github.com/zoobzio/spool/yaml"
)

func TestManifestExchange(t *testing.T) {
	reg := spooltest.NewRegistry(t)

	codecs := []spool.Codec{json.New(), yaml.New(), xml.New(), msgpack.New(), bson.New(), spool.NewCodec(nil)}
	for _, c := range codecs {
		t.Run(c.ContentType(), func(t *testing.T) {
			data, err := spool.WriteManifest(c, reg)
			require.NoError(t, err)

			m, err := spool.ReadManifest(c, data)
			require.NoError(t, err)
			assert.Equal(t, spool.ManifestVersion, m.Version)
			assert.Len(t, m.Types, reg.Len())
			assert.NoError(t, m.Verify(reg))
		})
	}
}

func TestManifest_PeerDisagrees(t *testing.T) {
	ours := spooltest.NewRegistry(t)
	theirs, err := spool.NewRegistry(
		spool.Type[spooltest.Device](),
		spool.Type[spooltest.NetworkDevice](),
	)
	require.NoError(t, err)

	data, err := spool.WriteManifest(json.New(), theirs)
	require.NoError(t, err)
	m, err := spool.ReadManifest(json.New(), data)
	require.NoError(t, err)

	err = m.Verify(ours)
	require.ErrorIs(t, err, spool.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "missing from manifest")
}

func TestProcessor_Home(t *testing.T) {
	ctx := context.Background()
	reg := spooltest.NewRegistry(t)
	spool.Reset()
	t.Cleanup(spool.Reset)

	proc, err := spool.Use[*spooltest.Home](reg)
	require.NoError(t, err)

	in := spooltest.SampleHome()
	data, err := proc.Encode(ctx, in)
	require.NoError(t, err)

	out, err := proc.Decode(ctx, data)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Rooms, out.Rooms)
	assert.Same(t, out.Primary, out.Devices[0].Get())
	assert.True(t, out.Thermostat.Get().Gateway.Lock().Owns(out.Devices[0]))

	again, err := proc.Encode(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, data, again, "decoded graph should re-encode to identical bytes")

	cloned, err := proc.Clone(ctx, out)
	require.NoError(t, err)
	assert.NotSame(t, out.Primary, cloned.Primary)
	assert.Same(t, cloned.Primary, cloned.Devices[0].Get())
}

func TestStream_Session(t *testing.T) {
	reg := spooltest.NewRegistry(t)
	owner := spool.MakeShared(&spooltest.Node{Name: "tracked", Value: 7})
	first := &spooltest.Watcher{Owner: owner, Target: owner.Weak()}
	second := &spooltest.Watcher{Target: owner.Weak()}

	var buf bytes.Buffer
	enc := spool.NewEncoder(&buf, reg)
	require.NoError(t, enc.Encode(first))
	require.NoError(t, enc.Encode(second))

	dec := spool.NewDecoder(&buf, reg)
	var a, b *spooltest.Watcher
	require.NoError(t, dec.Decode(&a))
	require.NoError(t, dec.Decode(&b))

	assert.True(t, a.Target.Lock().Owns(a.Owner))
	assert.True(t, b.Target.Lock().Owns(a.Owner), "later calls observe objects from earlier ones")
	assert.Equal(t, enc.Objects(), dec.Objects())
}

func TestQuick_ValueRoundTrip(t *testing.T) {
	type record struct {
		ID      uint64
		Name    string
		Scores  []int32
		Weights map[string]float64
		Flags   [4]bool
		Nested  []map[int16][]byte
	}

	roundTrip := func(in record) bool {
		data, err := spool.Marshal(nil, in)
		if err != nil {
			return false
		}
		var out record
		if err := spool.Unmarshal(nil, data, &out); err != nil {
			return false
		}
		return reflect.DeepEqual(normalize(in), normalize(out))
	}
	require.NoError(t, quick.Check(roundTrip, nil))

	cloneMatches := func(in record) bool {
		out, err := spool.Clone(nil, in)
		return err == nil && reflect.DeepEqual(normalize(in), normalize(out))
	}
	require.NoError(t, quick.Check(cloneMatches, nil))
}

func TestQuick_DeterministicBytes(t *testing.T) {
	encodeTwice := func(m map[string][]uint16) bool {
		a, errA := spool.Marshal(nil, m)
		b, errB := spool.Marshal(nil, m)
		return errA == nil && errB == nil && bytes.Equal(a, b)
	}
	require.NoError(t, quick.Check(encodeTwice, nil))
}

// normalize maps empty containers to nil; the wire format does not distinguish them.
func normalize(v any) any {
	return normalizeValue(reflect.ValueOf(v)).Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.Len() == 0 {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), normalizeValue(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			out.Field(i).Set(normalizeValue(v.Field(i)))
		}
		return out
	}
	return v
}
