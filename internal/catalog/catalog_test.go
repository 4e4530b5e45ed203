package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLookup(t *testing.T) {
	c := Default()
	require.Equal(t, len(DefaultPresets()), c.Len())

	pet, ok := c.Lookup("pet-12")
	require.True(t, ok)
	assert.Equal(t, KindFilm, pet.Kind)
	assert.Equal(t, 12.0, pet.ThicknessMicrons)
	assert.Equal(t, 1.4, pet.DensityGPerCm3)
	assert.Equal(t, 8.0, pet.PricePerKg)

	kraft, ok := c.Lookup("kraft-80")
	require.True(t, ok)
	assert.Equal(t, KindPaper, kraft.Kind)
	assert.Equal(t, 80.0, kraft.GrammageGPerM2)

	_, ok = c.Lookup("unobtainium")
	assert.False(t, ok)
}

func TestThicknessOverrideOnlyForCPPAndPE(t *testing.T) {
	c := Default()

	pe, err := c.Resolve(Ref{ID: "pe-90", OverrideThicknessMicrons: 70})
	require.NoError(t, err)
	assert.Equal(t, 70.0, pe.ThicknessMicrons)

	cpp, err := c.Resolve(Ref{ID: "cpp-25", OverrideThicknessMicrons: 35})
	require.NoError(t, err)
	assert.Equal(t, 35.0, cpp.ThicknessMicrons)

	pet, err := c.Resolve(Ref{ID: "pet-12", OverrideThicknessMicrons: 50})
	require.NoError(t, err)
	assert.Equal(t, 12.0, pet.ThicknessMicrons, "PET is not an overridable family")

	vmcpp, err := c.Resolve(Ref{ID: "vmcpp-25", OverrideThicknessMicrons: 50})
	require.NoError(t, err)
	assert.Equal(t, 25.0, vmcpp.ThicknessMicrons)
}

func TestResolveUnknownPreset(t *testing.T) {
	_, err := Default().Resolve(Ref{ID: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMaterial))

	_, err = Default().Resolve(nil)
	assert.True(t, errors.Is(err, ErrUnknownMaterial))
}

func TestResolveCustom(t *testing.T) {
	params, err := Default().Resolve(Custom{ThicknessMicrons: 20, DensityGPerCm3: 1.2, PricePerKg: 15})
	require.NoError(t, err)
	assert.Equal(t, KindFilm, params.Kind)
	assert.Equal(t, defaultCustomName, params.Name)

	paperParams, err := Default().Resolve(Custom{Name: "Rice paper", Kind: KindPaper, GrammageGPerM2: 22, PricePerKg: 12})
	require.NoError(t, err)
	assert.Equal(t, "Rice paper", paperParams.Name)
	assert.Equal(t, KindPaper, paperParams.Kind)

	_, err = Default().Resolve(Custom{Kind: "foil"})
	assert.True(t, errors.Is(err, ErrInvalidKind))
}

func TestNewRejectsDuplicates(t *testing.T) {
	p := film("x", "X", "PET", 12, 1.4, 8)
	_, err := New(p, p)
	assert.True(t, errors.Is(err, ErrDuplicateMaterial))
}

func TestPresetsReturnsCopy(t *testing.T) {
	c := Default()
	presets := c.Presets()
	presets[0].PricePerKg = 999

	first, _ := c.Lookup(presets[0].ID)
	assert.NotEqual(t, 999.0, first.PricePerKg)
}
