package h5typed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-h5typed/internal/membind"
)

func TestRegistryIdempotentEnumCommit(t *testing.T) {
	f := newTestFile(t)
	_, err := f.Enums().Type("Color", "RED", "GREEN")
	require.NoError(t, err)
	require.True(t, f.Exists("/__DATATYPES__/Enum_Color"))

	// The second request reuses the committed type.
	again, err := f.Enums().Type("Color", "RED", "GREEN")
	require.NoError(t, err)
	require.Equal(t, []string{"RED", "GREEN"}, again.Values())
}

func TestRegistrySurvivesReopen(t *testing.T) {
	bind := membind.New()
	f, err := Create(bind, "reg.h5")
	require.NoError(t, err)
	_, err = f.Enums().Type("Color", "RED", "GREEN")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := Open(bind, "reg.h5")
	require.NoError(t, err)
	defer f2.Close()

	// The reopened file resolves the committed enum instead of
	// recreating it, and checking still works.
	got, err := f2.Enums().TypeChecked("Color", "RED", "GREEN")
	require.NoError(t, err)
	require.Equal(t, []string{"RED", "GREEN"}, got.Values())

	_, err = f2.Enums().TypeChecked("Color", "GREEN", "RED")
	require.True(t, IsEnumIncompatible(err))
}

func TestRegistryBooleanSingleton(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Bools().Write("/a", true))
	require.NoError(t, f.Bools().Write("/b", false))
	require.True(t, f.Exists("/__DATATYPES__/Boolean"))
}

func TestTypeVariantLinkGeneration(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int64s().Write("/n", 1))
	require.NoError(t, f.SetTypeVariant("/n", VariantTimestampMillis))

	// The committed generation lives at TypeVariant.0 behind the
	// reserved soft link.
	require.True(t, f.Exists("/__DATATYPES__/TypeVariant.0"))
	info, err := f.Info("/__DATATYPES__/TypeVariant")
	require.NoError(t, err)
	require.Equal(t, TypeSoftLink, info.Type)
	require.Equal(t, "/__DATATYPES__/TypeVariant.0", info.LinkTarget)
}

func TestTypeVariantCardinalityDriftCommitsNewGeneration(t *testing.T) {
	bind := membind.New()
	f, err := Create(bind, "drift.h5")
	require.NoError(t, err)

	// Simulate a file written by a library with a different variant
	// list: a two-value enum committed at generation zero.
	require.NoError(t, f.CreateGroup("/__DATATYPES__"))
	i8, err := bind.MakeIntType(1, true, false)
	require.NoError(t, err)
	et, err := bind.MakeEnumType(i8)
	require.NoError(t, err)
	require.NoError(t, bind.EnumInsert(et, "NONE", 0))
	require.NoError(t, bind.EnumInsert(et, "OTHER", 1))
	require.NoError(t, bind.CommitType(f.h, "/__DATATYPES__/TypeVariant.0", et))
	require.NoError(t, f.CreateSoftLink("/__DATATYPES__/TypeVariant.0", "/__DATATYPES__/TypeVariant"))

	// Tagging now commits the library's own list at the next free
	// generation and repoints the link.
	require.NoError(t, f.Int64s().Write("/n", 1))
	require.NoError(t, f.SetTypeVariant("/n", VariantTimestampMillis))

	require.True(t, f.Exists("/__DATATYPES__/TypeVariant.1"))
	info, err := f.Info("/__DATATYPES__/TypeVariant")
	require.NoError(t, err)
	require.Equal(t, "/__DATATYPES__/TypeVariant.1", info.LinkTarget)

	v, err := f.TypeVariantOf("/n")
	require.NoError(t, err)
	require.Equal(t, VariantTimestampMillis, v)
}
