package refdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/pricing"
	"github.com/Simplici0/pouchquote/internal/seed"
)

func kraftMaterial() Material {
	return Material{
		Preset: catalog.Preset{
			ID:             "kraft-90",
			Name:           "Kraft 90g",
			Family:         "Kraft",
			Kind:           catalog.KindPaper,
			GrammageGPerM2: 90,
			PricePerKg:     7.5,
		},
		Active: true,
	}
}

func TestCreateMaterialAppendsToCatalog(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	_, err := seed.Run(ctx, database, seed.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, CreateMaterial(ctx, database, kraftMaterial()))

	cat, _, err := Load(ctx, database)
	require.NoError(t, err)
	require.Equal(t, len(catalog.DefaultPresets())+1, cat.Len())

	presets := cat.Presets()
	assert.Equal(t, kraftMaterial().Preset, presets[len(presets)-1])
}

func TestCreateMaterialOnEmptyTable(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	require.NoError(t, CreateMaterial(ctx, database, kraftMaterial()))

	materials, err := ListMaterials(ctx, database)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, kraftMaterial(), materials[0])
}

func TestCreateMaterialRejectsDuplicateID(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	require.NoError(t, CreateMaterial(ctx, database, kraftMaterial()))
	err := CreateMaterial(ctx, database, kraftMaterial())
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrDuplicateMaterial), "got %v", err)
}

func TestUpdateMaterialKeepsOrderAndToggles(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	_, err := seed.Run(ctx, database, seed.DefaultConfig())
	require.NoError(t, err)

	pet, ok := catalog.Default().Lookup("pet-12")
	require.True(t, ok)
	pet.PricePerKg = 9.9
	require.NoError(t, UpdateMaterial(ctx, database, Material{Preset: pet, Active: true}))

	cat, _, err := Load(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, pet, cat.Presets()[0])

	require.NoError(t, UpdateMaterial(ctx, database, Material{Preset: pet, Active: false}))

	cat, _, err = Load(ctx, database)
	require.NoError(t, err)
	_, ok = cat.Lookup("pet-12")
	assert.False(t, ok)

	materials, err := ListMaterials(ctx, database)
	require.NoError(t, err)
	require.Len(t, materials, len(catalog.DefaultPresets()))
	assert.Equal(t, catalog.MaterialID("pet-12"), materials[0].ID)
	assert.False(t, materials[0].Active)
}

func TestUpdateMaterialNotFound(t *testing.T) {
	database := openMigrated(t)

	err := UpdateMaterial(context.Background(), database, kraftMaterial())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaterialNotFound), "got %v", err)
}

func TestSaveRateCardReplacesSingleton(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	rates := pricing.DefaultRateCard()
	require.NoError(t, SaveRateCard(ctx, database, rates))

	rates.Currency = "USD"
	rates.Setup.Cap = 2400
	require.NoError(t, SaveRateCard(ctx, database, rates))

	loaded, err := LoadRateCard(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, rates, loaded)

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM rate_card`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSaveRateCardRejectsInvalidRates(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	rates := pricing.DefaultRateCard()
	rates.Discounts = nil
	err := SaveRateCard(ctx, database, rates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pricing.ErrInvalidRateCard))

	_, err = LoadRateCard(ctx, database)
	assert.True(t, errors.Is(err, ErrNoRateCard))
}
