package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/geometry"
	"github.com/Simplici0/pouchquote/internal/logger"
	"github.com/Simplici0/pouchquote/internal/pricing"
	"github.com/Simplici0/pouchquote/internal/refdata"
	"github.com/Simplici0/pouchquote/internal/units"
)

const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeInternal     = "INTERNAL_ERROR"
)

// Rounding applied to money in responses.
const (
	basePlaces   = 4
	fxPlaces     = 2
	weightPlaces = 6
)

type successEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// apiError is an error with a public code, message and optional details.
type apiError struct {
	status  int
	code    string
	message string
	details any
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

func validationError(message string, details any) *apiError {
	return &apiError{status: http.StatusBadRequest, code: codeValidation, message: message, details: details}
}

// Input errors the engine and its parsers can return before pricing.
var inputErrors = []error{
	geometry.ErrUnknownBagType,
	geometry.ErrMissingField,
	geometry.ErrInvalidRows,
	geometry.ErrInvalidZipper,
	units.ErrUnknownUnit,
	catalog.ErrUnknownMaterial,
	catalog.ErrInvalidKind,
	pricing.ErrUnknownCoverage,
	pricing.ErrUnknownLamination,
	pricing.ErrLayerCount,
	pricing.ErrUnknownMode,
	pricing.ErrInvalidRateCard,
}

// classify maps err to the apiError written to the client. Known input
// errors become 400s, missing and duplicate materials 404 and 409; anything
// else is internal.
func classify(err error) *apiError {
	var typed *apiError
	if errors.As(err, &typed) {
		return typed
	}
	switch {
	case errors.Is(err, refdata.ErrMaterialNotFound):
		return &apiError{status: http.StatusNotFound, code: codeNotFound, message: err.Error(), cause: err}
	case errors.Is(err, catalog.ErrDuplicateMaterial):
		return &apiError{status: http.StatusConflict, code: codeConflict, message: err.Error(), cause: err}
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return &apiError{
				status:  http.StatusBadRequest,
				code:    codeValidation,
				message: err.Error(),
				cause:   err,
			}
		}
	}
	return &apiError{
		status:  http.StatusInternalServerError,
		code:    codeInternal,
		message: "unexpected error",
		cause:   err,
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Data: data})
}

func writeError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := classify(err)

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"error_code": typed.code,
			"status":     typed.status,
		})
		if typed.status >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected", map[string]any{"error": err.Error()})
		}
	}

	writeJSON(w, typed.status, errorEnvelope{Error: apiErrorBody{
		Code:    typed.code,
		Message: typed.message,
		Details: typed.details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}

type layerCostResponse struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	WeightKg decimal.Decimal `json:"weight_kg"`
	Cost     decimal.Decimal `json:"cost"`
}

type breakdownResponse struct {
	AreaM2         decimal.Decimal     `json:"area_m2"`
	Layers         []layerCostResponse `json:"layers"`
	MaterialCost   decimal.Decimal     `json:"material_cost"`
	PrintCost      decimal.Decimal     `json:"print_cost"`
	LaminationCost decimal.Decimal     `json:"lamination_cost"`
	FormingCost    decimal.Decimal     `json:"forming_cost"`
	AddOnCost      decimal.Decimal     `json:"add_on_cost"`
	LaborCost      decimal.Decimal     `json:"labor_cost"`
	SetupPerUnit   decimal.Decimal     `json:"setup_per_unit"`
	PlatePerUnit   decimal.Decimal     `json:"plate_per_unit"`
}

type totalsResponse struct {
	Colors       int             `json:"colors"`
	SetupTotal   decimal.Decimal `json:"setup_total"`
	PlateTotal   decimal.Decimal `json:"plate_total"`
	Discount     decimal.Decimal `json:"discount"`
	UnitRaw      decimal.Decimal `json:"unit_raw"`
	UnitTotal    decimal.Decimal `json:"unit_total"`
	OrderTotal   decimal.Decimal `json:"order_total"`
	OrderTotalFX decimal.Decimal `json:"order_total_fx"`
}

type joinResponse struct {
	Index  int    `json:"index"`
	Method string `json:"method"`
}

type passResponse struct {
	Index    int `json:"index"`
	Coverage int `json:"coverage"`
}

type quoteResponse struct {
	BagType       string            `json:"bag_type"`
	Currency      string            `json:"currency"`
	Quantity      int               `json:"quantity"`
	FXRate        decimal.Decimal   `json:"fx_rate"`
	PrintMode     string            `json:"print_mode"`
	FixedCostMode string            `json:"fixed_cost_mode"`
	Joins         []joinResponse    `json:"joins"`
	Passes        []passResponse    `json:"passes"`
	Breakdown     breakdownResponse `json:"breakdown"`
	Totals        totalsResponse    `json:"totals"`
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(basePlaces)
}

func newQuoteResponse(order pricing.Order, res pricing.Result, currency string) quoteResponse {
	b := res.Breakdown
	t := res.Totals

	layers := make([]layerCostResponse, 0, len(b.Layers))
	for _, l := range b.Layers {
		layers = append(layers, layerCostResponse{
			Name:     l.Name,
			Kind:     string(l.Kind),
			WeightKg: decimal.NewFromFloat(l.WeightKg).Round(weightPlaces),
			Cost:     money(l.Cost),
		})
	}
	joins := make([]joinResponse, 0, len(res.Joins))
	for _, j := range res.Joins {
		joins = append(joins, joinResponse{Index: j.Index, Method: string(j.Method)})
	}
	passes := make([]passResponse, 0, len(res.Passes))
	for _, p := range res.Passes {
		passes = append(passes, passResponse{Index: p.Index, Coverage: int(p.Coverage)})
	}

	return quoteResponse{
		BagType:       string(order.Bag.Type()),
		Currency:      currency,
		Quantity:      order.Quantity,
		FXRate:        decimal.NewFromFloat(order.FXRate),
		PrintMode:     string(res.PrintMode),
		FixedCostMode: string(res.FixedCostMode),
		Joins:         joins,
		Passes:        passes,
		Breakdown: breakdownResponse{
			AreaM2:         decimal.NewFromFloat(b.AreaM2).Round(weightPlaces),
			Layers:         layers,
			MaterialCost:   money(b.MaterialCost),
			PrintCost:      money(b.PrintCost),
			LaminationCost: money(b.LaminationCost),
			FormingCost:    money(b.FormingCost),
			AddOnCost:      money(b.AddOnCost),
			LaborCost:      money(b.LaborCost),
			SetupPerUnit:   money(b.SetupPerUnit),
			PlatePerUnit:   money(b.PlatePerUnit),
		},
		Totals: totalsResponse{
			Colors:       t.Colors,
			SetupTotal:   money(t.SetupTotal),
			PlateTotal:   money(t.PlateTotal),
			Discount:     decimal.NewFromFloat(t.Discount),
			UnitRaw:      money(t.UnitRaw),
			UnitTotal:    money(t.UnitTotal),
			OrderTotal:   money(t.OrderTotal),
			OrderTotalFX: decimal.NewFromFloat(t.OrderTotalFX).Round(fxPlaces),
		},
	}
}

// quoteText renders a quote as the plain-text summary a salesperson pastes
// into a message.
func quoteText(q quoteResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bag: %s\n", q.BagType)
	fmt.Fprintf(&b, "Quantity: %d\n", q.Quantity)
	fmt.Fprintf(&b, "Unfolded area: %s m2\n", q.Breakdown.AreaM2.String())
	b.WriteString("\nMaterials:\n")
	for _, l := range q.Breakdown.Layers {
		fmt.Fprintf(&b, "- %s (%s): %s kg, %s %s\n", l.Name, l.Kind, l.WeightKg.String(), l.Cost.StringFixed(basePlaces), q.Currency)
	}
	b.WriteString("\nPer bag:\n")
	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Material", q.Breakdown.MaterialCost},
		{"Printing", q.Breakdown.PrintCost},
		{"Lamination", q.Breakdown.LaminationCost},
		{"Forming", q.Breakdown.FormingCost},
		{"Add-ons", q.Breakdown.AddOnCost},
		{"Labor", q.Breakdown.LaborCost},
		{"Setup", q.Breakdown.SetupPerUnit},
		{"Plates", q.Breakdown.PlatePerUnit},
	}
	for _, line := range lines {
		fmt.Fprintf(&b, "- %s: %s %s\n", line.label, line.value.StringFixed(basePlaces), q.Currency)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Discount multiplier: %s\n", q.Totals.Discount.String())
	fmt.Fprintf(&b, "Unit price: %s %s\n", q.Totals.UnitTotal.StringFixed(basePlaces), q.Currency)
	if q.FixedCostMode == string(pricing.FixedLumpSum) {
		fmt.Fprintf(&b, "Setup fee: %s %s\n", q.Totals.SetupTotal.StringFixed(2), q.Currency)
		fmt.Fprintf(&b, "Plate fee: %s %s\n", q.Totals.PlateTotal.StringFixed(2), q.Currency)
	}
	fmt.Fprintf(&b, "Total: %s %s\n", q.Totals.OrderTotal.StringFixed(2), q.Currency)
	if q.Totals.OrderTotalFX.IsPositive() {
		fmt.Fprintf(&b, "Total (at %s): %s\n", q.FXRate.String(), q.Totals.OrderTotalFX.StringFixed(fxPlaces))
	}
	return b.String()
}

type materialResponse struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Family              string  `json:"family"`
	Kind                string  `json:"kind"`
	ThicknessMicrons    float64 `json:"thickness_microns,omitempty"`
	DensityGPerCm3      float64 `json:"density_g_per_cm3,omitempty"`
	GrammageGPerM2      float64 `json:"grammage_g_per_m2,omitempty"`
	PricePerKg          float64 `json:"price_per_kg"`
	ThicknessAdjustable bool    `json:"thickness_adjustable"`
}

func newMaterialResponse(p catalog.Preset) materialResponse {
	return materialResponse{
		ID:                  string(p.ID),
		Name:                p.Name,
		Family:              p.Family,
		Kind:                string(p.Kind),
		ThicknessMicrons:    p.ThicknessMicrons,
		DensityGPerCm3:      p.DensityGPerCm3,
		GrammageGPerM2:      p.GrammageGPerM2,
		PricePerKg:          p.PricePerKg,
		ThicknessAdjustable: p.AllowsThicknessOverride(),
	}
}

func newMaterialResponses(presets []catalog.Preset) []materialResponse {
	out := make([]materialResponse, 0, len(presets))
	for _, p := range presets {
		out = append(out, newMaterialResponse(p))
	}
	return out
}

// adminMaterialResponse also reports rows hidden from the pricing catalog.
type adminMaterialResponse struct {
	materialResponse
	Active bool `json:"active"`
}

func newAdminMaterialResponses(materials []refdata.Material) []adminMaterialResponse {
	out := make([]adminMaterialResponse, 0, len(materials))
	for _, m := range materials {
		out = append(out, adminMaterialResponse{materialResponse: newMaterialResponse(m.Preset), Active: m.Active})
	}
	return out
}

type ratesResponse struct {
	PrintMode     string           `json:"print_mode"`
	FixedCostMode string           `json:"fixed_cost_mode"`
	Rates         pricing.RateCard `json:"rates"`
}
