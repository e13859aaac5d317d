package h5typed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	ID    int32     `h5:"id"`
	Name  string    `h5:"name,size=16"`
	Taken time.Time `h5:"ts"`
}

type wideRecord struct {
	ID    int32     `h5:"id"`
	Name  string    `h5:"name,size=16"`
	Taken time.Time `h5:"ts"`
	Score float32   `h5:"score"`
}

// Scenario: members {id: i32, name: string(16), ts: i64} pack to offsets
// {0, 4, 20} and a 28-byte record.
func TestCompoundLayoutScenario(t *testing.T) {
	f := newTestFile(t)
	rec := sampleRecord{ID: 7, Name: "probe", Taken: time.UnixMilli(1700000000000).UTC()}
	require.NoError(t, f.Compounds().Write("/rec", rec))

	ds, err := f.Dataset("/rec")
	require.NoError(t, err)
	require.Equal(t, 28, ds.ElemSize)
}

func TestCompoundStructRoundTrip(t *testing.T) {
	f := newTestFile(t)
	rec := sampleRecord{ID: 42, Name: "sensor-1", Taken: time.UnixMilli(123456789).UTC()}
	require.NoError(t, f.Compounds().Write("/rec", rec))

	var got sampleRecord
	require.NoError(t, f.Compounds().Read("/rec", &got))
	require.Equal(t, rec, got)
}

func TestCompoundArrayRoundTrip(t *testing.T) {
	f := newTestFile(t)
	recs := []sampleRecord{
		{ID: 1, Name: "a", Taken: time.UnixMilli(1000).UTC()},
		{ID: 2, Name: "b", Taken: time.UnixMilli(2000).UTC()},
		{ID: 3, Name: "c", Taken: time.UnixMilli(3000).UTC()},
	}
	require.NoError(t, f.Compounds().WriteArray("/recs", recs))

	var got []sampleRecord
	require.NoError(t, f.Compounds().ReadArray("/recs", &got))
	require.Equal(t, recs, got)
}

// Property: a schema-superset file reads into a narrower model; the
// extra member's bytes are discarded, and the reverse direction zero
// fills.
func TestCompoundDummyMember(t *testing.T) {
	f := newTestFile(t)
	wide := wideRecord{ID: 9, Name: "full", Taken: time.UnixMilli(5000).UTC(), Score: 2.5}
	require.NoError(t, f.Compounds().Write("/rec", wide))

	var narrow sampleRecord
	require.NoError(t, f.Compounds().Read("/rec", &narrow))
	require.Equal(t, wide.ID, narrow.ID)
	require.Equal(t, wide.Name, narrow.Name)
	require.Equal(t, wide.Taken, narrow.Taken)

	// Reading back into the wide model preserves the other members.
	var back wideRecord
	require.NoError(t, f.Compounds().Read("/rec", &back))
	require.Equal(t, wide, back)
}

// Writing a narrow model against a wide schema zero-fills the missing
// member's slot while keeping the layout.
func TestCompoundDummyMemberZeroFillsOnWrite(t *testing.T) {
	f := newTestFile(t)
	wideMapping, err := InferMapping(wideRecord{})
	require.NoError(t, err)

	narrow := sampleRecord{ID: 3, Name: "thin", Taken: time.UnixMilli(9000).UTC()}
	require.NoError(t, f.Compounds().Write("/rec", narrow, wideMapping...))

	var got wideRecord
	require.NoError(t, f.Compounds().Read("/rec", &got))
	require.Equal(t, narrow.ID, got.ID)
	require.Equal(t, narrow.Name, got.Name)
	require.Equal(t, float32(0), got.Score)
}

func TestCompoundMapRecord(t *testing.T) {
	f := newTestFile(t)
	members := []CompoundMember{
		{Name: "id", Kind: KindInt32},
		{Name: "name", Kind: KindString, Length: 8},
	}
	rec := map[string]any{"id": int32(5), "name": "abc"}
	require.NoError(t, f.Compounds().Write("/m", rec, members...))

	got := map[string]any{}
	require.NoError(t, f.Compounds().Read("/m", got))
	require.Equal(t, int32(5), got["id"])
	require.Equal(t, "abc", got["name"])
}

func TestCompoundListRecord(t *testing.T) {
	f := newTestFile(t)
	members := []CompoundMember{
		{Name: "x", Kind: KindFloat64},
		{Name: "y", Kind: KindFloat64},
	}
	rec := []any{1.5, -2.5}
	require.NoError(t, f.Compounds().Write("/p", rec, members...))

	got := []any{nil, nil}
	require.NoError(t, f.Compounds().Read("/p", got))
	require.Equal(t, 1.5, got[0])
	require.Equal(t, -2.5, got[1])
}

func TestCompoundEnumMember(t *testing.T) {
	f := newTestFile(t)
	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	require.NoError(t, err)

	members := []CompoundMember{
		{Name: "id", Kind: KindInt32},
		{Name: "color", Kind: KindEnum, Enum: color},
	}
	rec := map[string]any{"id": int32(1), "color": "GREEN"}
	require.NoError(t, f.Compounds().Write("/e", rec, members...))

	got := map[string]any{}
	require.NoError(t, f.Compounds().Read("/e", got))
	ev, ok := got["color"].(*EnumValue)
	require.True(t, ok)
	require.Equal(t, "GREEN", ev.String())
}

func TestCompoundBitFieldMember(t *testing.T) {
	f := newTestFile(t)
	members := []CompoundMember{
		{Name: "flags", Kind: KindBitField, Length: 2},
		{Name: "id", Kind: KindInt16},
	}
	rec := map[string]any{"flags": NewBitSet(0, 5, 64), "id": int16(3)}
	require.NoError(t, f.Compounds().Write("/b", rec, members...))

	got := map[string]any{}
	require.NoError(t, f.Compounds().Read("/b", got))
	bs, ok := got["flags"].(*BitSet)
	require.True(t, ok)
	require.True(t, NewBitSet(0, 5, 64).Equal(bs))
	require.Equal(t, int16(3), got["id"])
}

func TestCompoundOpaqueMember(t *testing.T) {
	f := newTestFile(t)
	members := []CompoundMember{
		{Name: "blob", Kind: KindOpaque, Length: 4, Tag: "raw"},
	}
	rec := map[string]any{"blob": []byte{1, 2, 3, 4}}
	require.NoError(t, f.Compounds().Write("/o", rec, members...))

	got := map[string]any{}
	require.NoError(t, f.Compounds().Read("/o", got))
	require.Equal(t, []byte{1, 2, 3, 4}, got["blob"])
}

func TestCompoundCommitType(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Compounds().CommitType("Sample", sampleRecord{}))
	require.True(t, f.Exists("/__DATATYPES__/Compound_Sample"))

	// Idempotent.
	require.NoError(t, f.Compounds().CommitType("Sample", sampleRecord{}))
}

func TestInferMappingErrors(t *testing.T) {
	type missingSize struct {
		Name string `h5:"name"`
	}
	_, err := InferMapping(missingSize{})
	require.True(t, IsShapeMismatch(err))

	_, err = InferMapping(42)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestInferMappingTagHandling(t *testing.T) {
	type rec struct {
		Keep int32  `h5:"kept"`
		Skip int32  `h5:"-"`
		Name string `h5:"n,size=4"`
	}
	members, err := InferMapping(rec{})
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "kept", members[0].Name)
	require.Equal(t, "Keep", members[0].Field)
	require.Equal(t, "n", members[1].Name)
	require.Equal(t, 4, members[1].Length)
}
