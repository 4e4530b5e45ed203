package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/geometry"
	"github.com/Simplici0/pouchquote/internal/pricing"
	"github.com/Simplici0/pouchquote/internal/units"
)

const maxBodyBytes = 1 << 20

type quoteRequest struct {
	Bag       bagRequest     `json:"bag"`
	Layers    []layerRequest `json:"layers" validate:"omitempty,max=4,dive"`
	Joins     []string       `json:"joins"`
	Coverages []int          `json:"coverages"`
	AddOns    addOnsRequest  `json:"add_ons"`
	Colors    int            `json:"colors" validate:"gte=0"`
	Plate     *plateRequest  `json:"plate"`
	Quantity  int            `json:"quantity" validate:"required,gt=0"`
	FXRate    *float64       `json:"fx_rate"`
}

type bagRequest struct {
	Type         string   `json:"type" validate:"required"`
	Unit         string   `json:"unit"`
	Width        float64  `json:"width" validate:"required,gt=0"`
	Height       float64  `json:"height" validate:"required,gt=0"`
	BottomInsert *float64 `json:"bottom_insert" validate:"omitempty,gte=0"`
	BackSeam     *float64 `json:"back_seam" validate:"omitempty,gte=0"`
	SideGusset   *float64 `json:"side_gusset" validate:"omitempty,gte=0"`
	Rows         string   `json:"rows"`
	Zipper       string   `json:"zipper"`
}

// A layer names a preset in Material or carries its own Custom parameters.
type layerRequest struct {
	Material         string                 `json:"material" validate:"required_without=Custom"`
	ThicknessMicrons float64                `json:"thickness_microns" validate:"gte=0"`
	Custom           *customMaterialRequest `json:"custom"`
}

type customMaterialRequest struct {
	Name             string  `json:"name"`
	Kind             string  `json:"kind" validate:"omitempty,oneof=film paper"`
	ThicknessMicrons float64 `json:"thickness_microns" validate:"gte=0"`
	DensityGPerCm3   float64 `json:"density_g_per_cm3" validate:"gte=0"`
	GrammageGPerM2   float64 `json:"grammage_g_per_m2" validate:"gte=0"`
	PricePerKg       float64 `json:"price_per_kg" validate:"gte=0"`
}

// FoilArea is expressed in the square of the bag unit.
type addOnsRequest struct {
	FoilArea   float64 `json:"foil_area" validate:"gte=0"`
	FoilRows   int     `json:"foil_rows" validate:"gte=0,lte=2"`
	Valves     int     `json:"valves" validate:"gte=0"`
	Handles    int     `json:"handles" validate:"gte=0"`
	WireTies   int     `json:"wire_ties" validate:"gte=0"`
	EmbossRows int     `json:"emboss_rows" validate:"gte=0"`
}

type plateRequest struct {
	LengthCm        float64 `json:"length_cm" validate:"gte=0"`
	CircumferenceCm float64 `json:"circumference_cm" validate:"gte=0"`
}

// Stack used when a request names no layers.
var (
	defaultLayers = []layerRequest{
		{Material: "pet-12"},
		{Material: "vmpet-12"},
		{Material: "pe-90"},
	}
	defaultJoins = []string{string(pricing.LamDry), string(pricing.LamSolventFree)}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func decodeQuoteRequest(r *http.Request) (quoteRequest, error) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return quoteRequest{}, err
	}
	return req, nil
}

// decodeJSON strictly decodes a single JSON body into dst and runs its
// validate tags.
func decodeJSON(r *http.Request, dst any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return validationError("invalid request body", map[string]string{"body": err.Error()})
	}
	if err := validate.Struct(dst); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return validationError("validation failed", map[string]string{"body": err.Error()})
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldPath(fieldErr)] = validationMessage(fieldErr)
	}
	return validationError("validation failed", details)
}

// fieldPath drops the root struct name from the namespace, e.g.
// "quoteRequest.bag.type" becomes "bag.type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is absent", strings.ToLower(fe.Param()))
	case "required_if":
		field, value, _ := strings.Cut(fe.Param(), " ")
		return fmt.Sprintf("is required when %s is %s", strings.ToLower(field), value)
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return "is invalid"
}

// toOrder converts a validated request into an engine order, filling the
// stack, plate and exchange-rate defaults for omitted fields.
func (req quoteRequest) toOrder(defaultFXRate float64) (pricing.Order, error) {
	unit, err := units.Parse(req.Bag.Unit)
	if err != nil {
		return pricing.Order{}, err
	}

	bag, err := geometry.Spec{
		Type:         geometry.BagType(strings.ToLower(strings.TrimSpace(req.Bag.Type))),
		Unit:         unit,
		Width:        req.Bag.Width,
		Height:       req.Bag.Height,
		BottomInsert: req.Bag.BottomInsert,
		BackSeam:     req.Bag.BackSeam,
		SideGusset:   req.Bag.SideGusset,
		Rows:         geometry.Rows(strings.ToLower(strings.TrimSpace(req.Bag.Rows))),
		Zipper:       geometry.Zipper(strings.ToLower(strings.TrimSpace(req.Bag.Zipper))),
	}.Resolve()
	if err != nil {
		return pricing.Order{}, err
	}

	layerReqs := req.Layers
	joinReqs := req.Joins
	if len(layerReqs) == 0 {
		layerReqs = defaultLayers
		if len(joinReqs) == 0 {
			joinReqs = defaultJoins
		}
	}

	layers := make([]pricing.Layer, 0, len(layerReqs))
	for _, l := range layerReqs {
		m, err := l.material()
		if err != nil {
			return pricing.Order{}, err
		}
		layers = append(layers, pricing.Layer{Material: m})
	}

	// Empty joins and zero coverages fall back to the stack defaults.
	joins := make([]pricing.LaminationMethod, 0, len(joinReqs))
	for _, raw := range joinReqs {
		if strings.TrimSpace(raw) == "" {
			joins = append(joins, "")
			continue
		}
		method, err := pricing.ParseLaminationMethod(raw)
		if err != nil {
			return pricing.Order{}, err
		}
		joins = append(joins, method)
	}

	coverages := make([]pricing.Coverage, 0, len(req.Coverages))
	for _, raw := range req.Coverages {
		if raw == 0 {
			coverages = append(coverages, 0)
			continue
		}
		c, err := pricing.ParseCoverage(raw)
		if err != nil {
			return pricing.Order{}, err
		}
		coverages = append(coverages, c)
	}

	fxRate := defaultFXRate
	if req.FXRate != nil {
		fxRate = *req.FXRate
	}

	order := pricing.Order{
		Bag:       bag,
		Layers:    layers,
		Joins:     joins,
		Coverages: coverages,
		AddOns: pricing.AddOns{
			FoilAreaMM2: units.Area(req.AddOns.FoilArea, unit),
			FoilRows:    req.AddOns.FoilRows,
			Valves:      req.AddOns.Valves,
			Handles:     req.AddOns.Handles,
			WireTies:    req.AddOns.WireTies,
			EmbossRows:  req.AddOns.EmbossRows,
		},
		Colors:   req.Colors,
		Quantity: req.Quantity,
		FXRate:   fxRate,
	}
	if req.Plate != nil {
		order.Plate = pricing.Plate{LengthCm: req.Plate.LengthCm, CircumferenceCm: req.Plate.CircumferenceCm}
	}
	return order, nil
}

func (l layerRequest) material() (catalog.Material, error) {
	if l.Custom == nil {
		return catalog.Ref{
			ID:                       catalog.MaterialID(strings.ToLower(strings.TrimSpace(l.Material))),
			OverrideThicknessMicrons: l.ThicknessMicrons,
		}, nil
	}

	kind := catalog.KindFilm
	if l.Custom.Kind != "" {
		k, err := catalog.ParseKind(l.Custom.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	return catalog.Custom{
		Name:             l.Custom.Name,
		Kind:             kind,
		ThicknessMicrons: l.Custom.ThicknessMicrons,
		DensityGPerCm3:   l.Custom.DensityGPerCm3,
		GrammageGPerM2:   l.Custom.GrammageGPerM2,
		PricePerKg:       l.Custom.PricePerKg,
	}, nil
}
