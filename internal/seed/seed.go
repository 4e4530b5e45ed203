package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/pricing"
)

// Config contains the reference data written by the startup seed.
type Config struct {
	Presets []catalog.Preset
	Rates   pricing.RateCard
}

// DefaultConfig seeds the stock presets and price list.
func DefaultConfig() Config {
	return Config{
		Presets: catalog.DefaultPresets(),
		Rates:   pricing.DefaultRateCard(),
	}
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way. Existing rows are left
// untouched so prices edited through the admin routes survive restarts.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	for i, preset := range cfg.Presets {
		if err := ensureMaterial(ctx, tx, preset, i, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}
	if err := ensureRateCard(ctx, tx, cfg.Rates, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureMaterial(ctx context.Context, tx *sql.Tx, p catalog.Preset, order int, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM materials WHERE id = ? LIMIT 1)`, string(p.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check material %s existence: %w", p.ID, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO materials (
			id,
			name,
			family,
			kind,
			thickness_microns,
			density_g_per_cm3,
			grammage_g_per_m2,
			price_per_kg,
			sort_order,
			active
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE)
	`, string(p.ID), p.Name, p.Family, string(p.Kind), p.ThicknessMicrons, p.DensityGPerCm3, p.GrammageGPerM2, p.PricePerKg, order); err != nil {
		return fmt.Errorf("insert material %s: %w", p.ID, err)
	}
	stats.Inserts++
	return nil
}

func ensureRateCard(ctx context.Context, tx *sql.Tx, rates pricing.RateCard, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rate_card WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check rate card existence: %w", err)
	}
	if exists {
		return nil
	}

	payload, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encode rate card: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rate_card (id, currency, rates_json)
		VALUES (1, ?, ?)
	`, rates.Currency, string(payload)); err != nil {
		return fmt.Errorf("insert rate card singleton: %w", err)
	}
	stats.Inserts++
	return nil
}
