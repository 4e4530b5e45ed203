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

// ErrMaterialNotFound is returned when an update targets a missing material id.
var ErrMaterialNotFound = errors.New("material not found")

// Material is a stored catalog row. Inactive rows are kept but never loaded
// into the pricing catalog.
type Material struct {
	catalog.Preset
	Active bool
}

// CreateMaterial inserts m after every existing row in sort order.
func CreateMaterial(ctx context.Context, db *sql.DB, m Material) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin material transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM materials WHERE id = ? LIMIT 1)`, string(m.ID)).Scan(&exists); err != nil {
		return fmt.Errorf("check material %s existence: %w", m.ID, err)
	}
	if exists {
		return fmt.Errorf("%w %q", catalog.ErrDuplicateMaterial, m.ID)
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
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(sort_order) + 1, 0), ?
		FROM materials
	`, string(m.ID), m.Name, m.Family, string(m.Kind), m.ThicknessMicrons, m.DensityGPerCm3, m.GrammageGPerM2, m.PricePerKg, m.Active); err != nil {
		return fmt.Errorf("insert material %s: %w", m.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit material %s: %w", m.ID, err)
	}
	return nil
}

// UpdateMaterial overwrites the row stored under m.ID. Sort order is kept.
func UpdateMaterial(ctx context.Context, db *sql.DB, m Material) error {
	result, err := db.ExecContext(ctx, `
		UPDATE materials
		SET
			name = ?,
			family = ?,
			kind = ?,
			thickness_microns = ?,
			density_g_per_cm3 = ?,
			grammage_g_per_m2 = ?,
			price_per_kg = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.Family, string(m.Kind), m.ThicknessMicrons, m.DensityGPerCm3, m.GrammageGPerM2, m.PricePerKg, m.Active, string(m.ID))
	if err != nil {
		return fmt.Errorf("update material %s: %w", m.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update material %s: %w", m.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w %q", ErrMaterialNotFound, m.ID)
	}
	return nil
}

// SaveRateCard validates rates and replaces the rate_card singleton.
func SaveRateCard(ctx context.Context, db *sql.DB, rates pricing.RateCard) error {
	if err := rates.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("encode rate card: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO rate_card (id, currency, rates_json)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			currency = excluded.currency,
			rates_json = excluded.rates_json,
			updated_at = CURRENT_TIMESTAMP
	`, rates.Currency, string(payload)); err != nil {
		return fmt.Errorf("save rate card: %w", err)
	}
	return nil
}
