package refdata

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/db"
	"github.com/Simplici0/pouchquote/internal/migrations"
	"github.com/Simplici0/pouchquote/internal/pricing"
	"github.com/Simplici0/pouchquote/internal/seed"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "refdata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.Up(ctx, database))
	return database
}

func TestLoadRoundTripsSeededData(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	_, err := seed.Run(ctx, database, seed.DefaultConfig())
	require.NoError(t, err)

	cat, rates, err := Load(ctx, database)
	require.NoError(t, err)

	defaults := catalog.DefaultPresets()
	require.Equal(t, len(defaults), cat.Len())
	for i, p := range cat.Presets() {
		assert.Equal(t, defaults[i], p, "preset %d", i)
	}

	assert.Equal(t, pricing.DefaultRateCard(), rates)
}

func TestLoadSkipsInactiveMaterials(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	_, err := seed.Run(ctx, database, seed.DefaultConfig())
	require.NoError(t, err)
	_, err = database.Exec(`UPDATE materials SET active = FALSE WHERE id = ?`, "tissue-19")
	require.NoError(t, err)

	cat, _, err := Load(ctx, database)
	require.NoError(t, err)

	_, ok := cat.Lookup("tissue-19")
	assert.False(t, ok)
	assert.Equal(t, len(catalog.DefaultPresets())-1, cat.Len())
}

func TestLoadReflectsEditedPrices(t *testing.T) {
	database := openMigrated(t)
	ctx := context.Background()

	_, err := seed.Run(ctx, database, seed.DefaultConfig())
	require.NoError(t, err)
	_, err = database.Exec(`UPDATE materials SET price_per_kg = 20.5 WHERE id = ?`, "pe-90")
	require.NoError(t, err)

	cat, _, err := Load(ctx, database)
	require.NoError(t, err)

	p, ok := cat.Lookup("pe-90")
	require.True(t, ok)
	assert.Equal(t, 20.5, p.PricePerKg)
}

func TestLoadRateCardRequiresSeed(t *testing.T) {
	database := openMigrated(t)

	_, err := LoadRateCard(context.Background(), database)
	assert.True(t, errors.Is(err, ErrNoRateCard), "got %v", err)
}

func TestLoadRateCardRejectsCorruptJSON(t *testing.T) {
	database := openMigrated(t)

	_, err := database.Exec(`INSERT INTO rate_card (id, currency, rates_json) VALUES (1, 'CNY', '{broken')`)
	require.NoError(t, err)

	_, err = LoadRateCard(context.Background(), database)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRateCard))
}
