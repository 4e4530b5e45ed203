// Package refdata reads the persisted material catalog and rate card.
package refdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/pricing"
)

// ErrNoRateCard is returned when the rate_card singleton has not been seeded.
var ErrNoRateCard = errors.New("rate card not seeded")

// Load reads the active materials in sort order together with the rate card.
func Load(ctx context.Context, db *sql.DB) (catalog.Catalog, pricing.RateCard, error) {
	presets, err := LoadPresets(ctx, db)
	if err != nil {
		return catalog.Catalog{}, pricing.RateCard{}, err
	}
	cat, err := catalog.New(presets...)
	if err != nil {
		return catalog.Catalog{}, pricing.RateCard{}, fmt.Errorf("build catalog: %w", err)
	}

	rates, err := LoadRateCard(ctx, db)
	if err != nil {
		return catalog.Catalog{}, pricing.RateCard{}, err
	}
	return cat, rates, nil
}

// LoadPresets returns every active material row.
func LoadPresets(ctx context.Context, db *sql.DB) ([]catalog.Preset, error) {
	materials, err := queryMaterials(ctx, db, `WHERE active = TRUE`)
	if err != nil {
		return nil, err
	}
	presets := make([]catalog.Preset, 0, len(materials))
	for _, m := range materials {
		presets = append(presets, m.Preset)
	}
	return presets, nil
}

// ListMaterials returns every material row, inactive ones included.
func ListMaterials(ctx context.Context, db *sql.DB) ([]Material, error) {
	return queryMaterials(ctx, db, "")
}

func queryMaterials(ctx context.Context, db *sql.DB, where string) ([]Material, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, family, kind, thickness_microns, density_g_per_cm3, grammage_g_per_m2, price_per_kg, active
		FROM materials
		`+where+`
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := []Material{}
	for rows.Next() {
		var (
			m    Material
			id   string
			kind string
		)
		if err := rows.Scan(&id, &m.Name, &m.Family, &kind, &m.ThicknessMicrons, &m.DensityGPerCm3, &m.GrammageGPerM2, &m.PricePerKg, &m.Active); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		m.ID = catalog.MaterialID(id)
		if m.Kind, err = catalog.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("material %s: %w", id, err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}

// LoadRateCard decodes the rate_card singleton.
func LoadRateCard(ctx context.Context, db *sql.DB) (pricing.RateCard, error) {
	var currency, raw string
	err := db.QueryRowContext(ctx, `SELECT currency, rates_json FROM rate_card WHERE id = 1`).Scan(&currency, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.RateCard{}, ErrNoRateCard
	}
	if err != nil {
		return pricing.RateCard{}, fmt.Errorf("query rate card: %w", err)
	}

	var rates pricing.RateCard
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return pricing.RateCard{}, fmt.Errorf("decode rate card: %w", err)
	}
	rates.Currency = currency
	return rates, nil
}
