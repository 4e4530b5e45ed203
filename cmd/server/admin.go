package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/logger"
	"github.com/Simplici0/pouchquote/internal/pricing"
	"github.com/Simplici0/pouchquote/internal/refdata"
)

const adminAuthScheme = "Bearer "

// materialRequest is the body of the material create and update routes. ID
// is required on create and, when present on update, must match the path.
type materialRequest struct {
	ID               string  `json:"id" validate:"omitempty,max=64"`
	Name             string  `json:"name" validate:"required"`
	Family           string  `json:"family" validate:"required"`
	Kind             string  `json:"kind" validate:"required,oneof=film paper"`
	ThicknessMicrons float64 `json:"thickness_microns" validate:"required_if=Kind film,gte=0"`
	DensityGPerCm3   float64 `json:"density_g_per_cm3" validate:"required_if=Kind film,gte=0"`
	GrammageGPerM2   float64 `json:"grammage_g_per_m2" validate:"required_if=Kind paper,gte=0"`
	PricePerKg       float64 `json:"price_per_kg" validate:"gt=0"`
	Active           *bool   `json:"active"`
}

func (req materialRequest) material(id catalog.MaterialID) (refdata.Material, error) {
	kind, err := catalog.ParseKind(req.Kind)
	if err != nil {
		return refdata.Material{}, err
	}
	return refdata.Material{
		Preset: catalog.Preset{
			ID:               id,
			Name:             strings.TrimSpace(req.Name),
			Family:           strings.TrimSpace(req.Family),
			Kind:             kind,
			ThicknessMicrons: req.ThicknessMicrons,
			DensityGPerCm3:   req.DensityGPerCm3,
			GrammageGPerM2:   req.GrammageGPerM2,
			PricePerKg:       req.PricePerKg,
		},
		Active: req.Active == nil || *req.Active,
	}, nil
}

func normalizeMaterialID(raw string) catalog.MaterialID {
	return catalog.MaterialID(strings.ToLower(strings.TrimSpace(raw)))
}

func (s *server) adminRoutes(r chi.Router) {
	r.Use(requireAdminToken(s.logger, s.adminToken))
	r.Put("/rates", s.handleAdminRatesUpdate)
	r.Get("/materials", s.handleAdminMaterialsList)
	r.Post("/materials", s.handleAdminMaterialsCreate)
	r.Put("/materials/{id}", s.handleAdminMaterialsUpdate)
}

func (s *server) handleAdminRatesUpdate(w http.ResponseWriter, r *http.Request) {
	var rates pricing.RateCard
	if err := decodeJSON(r, &rates); err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}

	err := s.writeReferenceData(r.Context(), func(ctx context.Context) error {
		return refdata.SaveRateCard(ctx, s.db, rates)
	})
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}

	s.logger.Info(r.Context(), "admin.rates_updated", map[string]any{"currency": rates.Currency})
	s.handleRates(w, r)
}

func (s *server) handleAdminMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := refdata.ListMaterials(r.Context(), s.db)
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	writeSuccess(w, newAdminMaterialResponses(materials))
}

func (s *server) handleAdminMaterialsCreate(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	id := normalizeMaterialID(req.ID)
	if id == "" {
		writeError(r.Context(), s.logger, w, validationError("validation failed", map[string]string{"id": "is required"}))
		return
	}

	material, err := req.material(id)
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	err = s.writeReferenceData(r.Context(), func(ctx context.Context) error {
		return refdata.CreateMaterial(ctx, s.db, material)
	})
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}

	s.logger.Info(r.Context(), "admin.material_created", map[string]any{"material_id": string(id)})
	writeJSON(w, http.StatusCreated, successEnvelope{Data: newAdminMaterialResponses([]refdata.Material{material})[0]})
}

func (s *server) handleAdminMaterialsUpdate(w http.ResponseWriter, r *http.Request) {
	id := normalizeMaterialID(chi.URLParam(r, "id"))

	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	if req.ID != "" && normalizeMaterialID(req.ID) != id {
		writeError(r.Context(), s.logger, w, validationError("validation failed", map[string]string{"id": "must match the material in the path"}))
		return
	}

	material, err := req.material(id)
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}
	err = s.writeReferenceData(r.Context(), func(ctx context.Context) error {
		return refdata.UpdateMaterial(ctx, s.db, material)
	})
	if err != nil {
		writeError(r.Context(), s.logger, w, err)
		return
	}

	s.logger.Info(r.Context(), "admin.material_updated", map[string]any{
		"material_id": string(id),
		"active":      material.Active,
	})
	writeSuccess(w, newAdminMaterialResponses([]refdata.Material{material})[0])
}

// writeReferenceData runs write against the store and swaps in an engine
// built from the result. Writes are serialized so the engine always reflects
// the last committed one.
func (s *server) writeReferenceData(ctx context.Context, write func(context.Context) error) error {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	if err := write(ctx); err != nil {
		return err
	}
	return s.reloadEngine(ctx)
}

func (s *server) reloadEngine(ctx context.Context) error {
	cat, rates, err := refdata.Load(ctx, s.db)
	if err != nil {
		return fmt.Errorf("reload reference data: %w", err)
	}
	engine, err := s.buildEngine(cat, rates)
	if err != nil {
		return fmt.Errorf("rebuild pricing engine: %w", err)
	}
	s.engine.Store(engine)
	return nil
}

func requireAdminToken(logg *logger.Logger, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			given, ok := strings.CutPrefix(header, adminAuthScheme)
			if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				writeError(r.Context(), logg, w, &apiError{
					status:  http.StatusUnauthorized,
					code:    codeUnauthorized,
					message: "admin token required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
