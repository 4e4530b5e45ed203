package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/pouchquote/internal/geometry"
)

var (
	ErrUnknownCoverage   = errors.New("unknown print coverage")
	ErrUnknownLamination = errors.New("unknown lamination method")
	ErrInvalidRateCard   = errors.New("invalid rate card")
)

// Coverage is an ink coverage tier in percent.
type Coverage int

const (
	Coverage25  Coverage = 25
	Coverage50  Coverage = 50
	Coverage100 Coverage = 100
	Coverage150 Coverage = 150
	Coverage200 Coverage = 200
	Coverage300 Coverage = 300
)

var coverages = []Coverage{Coverage25, Coverage50, Coverage100, Coverage150, Coverage200, Coverage300}

// ParseCoverage validates a raw percentage against the coverage tiers.
func ParseCoverage(percent int) (Coverage, error) {
	for _, c := range coverages {
		if int(c) == percent {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w %d%%", ErrUnknownCoverage, percent)
}

// LaminationMethod is the adhesive process bonding two adjacent layers.
type LaminationMethod string

const (
	LamDry         LaminationMethod = "dry"
	LamDryRetort   LaminationMethod = "dry_retort"
	LamSolventFree LaminationMethod = "solvent_free"
)

// ParseLaminationMethod converts a raw string into a LaminationMethod.
func ParseLaminationMethod(value string) (LaminationMethod, error) {
	switch m := LaminationMethod(strings.ToLower(strings.TrimSpace(value))); m {
	case LamDry, LamDryRetort, LamSolventFree:
		return m, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownLamination, value)
}

// FormingRates are bag-making prices per metre of the bag dimension each
// forming method is charged on.
type FormingRates struct {
	StandUpPlain  float64                     `json:"stand_up_plain"`
	StandUpZipper float64                     `json:"stand_up_zipper"`
	ThreeSide     map[geometry.Rows]float64   `json:"three_side"`
	CenterGusset  float64                     `json:"center_gusset"`
	EightSide     map[geometry.Zipper]float64 `json:"eight_side"`
}

type AddOnRates struct {
	FoilPerM2        float64 `json:"foil_per_m2"`
	FoilSingleRowFee float64 `json:"foil_single_row_fee"`
	FoilDoubleRowFee float64 `json:"foil_double_row_fee"`
	Valve            float64 `json:"valve"`
	Handle           float64 `json:"handle"`
	WireTie          float64 `json:"wire_tie"`
	EmbossPerRow     float64 `json:"emboss_per_row"`
}

// LaborRates is a step function on bag width: Below applies when the width
// is under ThresholdMM, AtOrAbove otherwise.
type LaborRates struct {
	ThresholdMM float64 `json:"threshold_mm"`
	Below       float64 `json:"below"`
	AtOrAbove   float64 `json:"at_or_above"`
}

type SetupRates struct {
	PerColor float64 `json:"per_color"`
	Cap      float64 `json:"cap"`
}

type PlateRates struct {
	PerCm2                 float64 `json:"per_cm2"`
	DefaultLengthCm        float64 `json:"default_length_cm"`
	DefaultCircumferenceCm float64 `json:"default_circumference_cm"`
}

// DiscountTier applies Multiplier to orders of at least MinQuantity bags.
type DiscountTier struct {
	MinQuantity int     `json:"min_quantity"`
	Multiplier  float64 `json:"multiplier"`
}

// RateCard holds every price the engine uses, in the base currency.
type RateCard struct {
	Currency   string                       `json:"currency"`
	Print      map[Coverage]float64         `json:"print_per_m2"`
	Lamination map[LaminationMethod]float64 `json:"lamination_per_m2"`
	Forming    FormingRates                 `json:"forming_per_m"`
	AddOns     AddOnRates                   `json:"add_ons"`
	Labor      LaborRates                   `json:"labor"`
	Setup      SetupRates                   `json:"setup"`
	Plate      PlateRates                   `json:"plate"`
	Discounts  []DiscountTier               `json:"discounts"`
}

// DefaultRateCard returns the stock CNY price list.
func DefaultRateCard() RateCard {
	return RateCard{
		Currency: "CNY",
		Print: map[Coverage]float64{
			Coverage25:  0.11,
			Coverage50:  0.13,
			Coverage100: 0.16,
			Coverage150: 0.21,
			Coverage200: 0.26,
			Coverage300: 0.36,
		},
		Lamination: map[LaminationMethod]float64{
			LamDry:         0.13,
			LamDryRetort:   0.18,
			LamSolventFree: 0.065,
		},
		Forming: FormingRates{
			StandUpPlain:  0.09,
			StandUpZipper: 0.19,
			ThreeSide: map[geometry.Rows]float64{
				geometry.RowsSingle: 0.045,
				geometry.RowsDouble: 0.03,
				geometry.RowsTriple: 0.0225,
			},
			CenterGusset: 0.04,
			EightSide: map[geometry.Zipper]float64{
				geometry.ZipperNone:     0.28,
				geometry.ZipperStandard: 0.5,
				geometry.ZipperEasyTear: 0.75,
			},
		},
		AddOns: AddOnRates{
			FoilPerM2:        1.2,
			FoilSingleRowFee: 0.02,
			FoilDoubleRowFee: 0.035,
			Valve:            0.11,
			Handle:           0.15,
			WireTie:          0.06,
			EmbossPerRow:     0.012,
		},
		Labor: LaborRates{ThresholdMM: 140, Below: 0.024, AtOrAbove: 0.026},
		Setup: SetupRates{PerColor: 200, Cap: 1800},
		Plate: PlateRates{PerCm2: 0.11, DefaultLengthCm: 86, DefaultCircumferenceCm: 19},
		Discounts: []DiscountTier{
			{MinQuantity: 100000, Multiplier: 0.96},
			{MinQuantity: 50000, Multiplier: 0.98},
			{MinQuantity: 30000, Multiplier: 1.00},
			{MinQuantity: 20000, Multiplier: 1.15},
			{MinQuantity: 10000, Multiplier: 1.30},
			{MinQuantity: 0, Multiplier: 1.40},
		},
	}
}

var (
	laminationMethods = []LaminationMethod{LamDry, LamDryRetort, LamSolventFree}
	formingRows       = []geometry.Rows{geometry.RowsSingle, geometry.RowsDouble, geometry.RowsTriple}
	formingZippers    = []geometry.Zipper{geometry.ZipperNone, geometry.ZipperStandard, geometry.ZipperEasyTear}
)

// Validate checks that r prices every coverage tier, lamination method and
// forming variant, that no price is negative, and that the discount ladder
// has at least one tier with a positive multiplier.
func (r RateCard) Validate() error {
	if strings.TrimSpace(r.Currency) == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidRateCard)
	}

	for c := range r.Print {
		if _, err := ParseCoverage(int(c)); err != nil {
			return fmt.Errorf("%w: print_per_m2: %w", ErrInvalidRateCard, err)
		}
	}
	for _, c := range coverages {
		if err := price(r.Print, c, fmt.Sprintf("print_per_m2[%d]", c)); err != nil {
			return err
		}
	}

	for m := range r.Lamination {
		if _, err := ParseLaminationMethod(string(m)); err != nil {
			return fmt.Errorf("%w: lamination_per_m2: %w", ErrInvalidRateCard, err)
		}
	}
	for _, m := range laminationMethods {
		if err := price(r.Lamination, m, "lamination_per_m2."+string(m)); err != nil {
			return err
		}
	}

	for _, rows := range formingRows {
		if err := price(r.Forming.ThreeSide, rows, "forming_per_m.three_side."+string(rows)); err != nil {
			return err
		}
	}
	for _, z := range formingZippers {
		if err := price(r.Forming.EightSide, z, "forming_per_m.eight_side."+string(z)); err != nil {
			return err
		}
	}

	scalars := []struct {
		name  string
		value float64
	}{
		{"forming_per_m.stand_up_plain", r.Forming.StandUpPlain},
		{"forming_per_m.stand_up_zipper", r.Forming.StandUpZipper},
		{"forming_per_m.center_gusset", r.Forming.CenterGusset},
		{"add_ons.foil_per_m2", r.AddOns.FoilPerM2},
		{"add_ons.foil_single_row_fee", r.AddOns.FoilSingleRowFee},
		{"add_ons.foil_double_row_fee", r.AddOns.FoilDoubleRowFee},
		{"add_ons.valve", r.AddOns.Valve},
		{"add_ons.handle", r.AddOns.Handle},
		{"add_ons.wire_tie", r.AddOns.WireTie},
		{"add_ons.emboss_per_row", r.AddOns.EmbossPerRow},
		{"labor.threshold_mm", r.Labor.ThresholdMM},
		{"labor.below", r.Labor.Below},
		{"labor.at_or_above", r.Labor.AtOrAbove},
		{"setup.per_color", r.Setup.PerColor},
		{"setup.cap", r.Setup.Cap},
		{"plate.per_cm2", r.Plate.PerCm2},
		{"plate.default_length_cm", r.Plate.DefaultLengthCm},
		{"plate.default_circumference_cm", r.Plate.DefaultCircumferenceCm},
	}
	for _, s := range scalars {
		if err := nonNegative(s.name, s.value); err != nil {
			return err
		}
	}

	if len(r.Discounts) == 0 {
		return fmt.Errorf("%w: discounts must have at least one tier", ErrInvalidRateCard)
	}
	for i, tier := range r.Discounts {
		if tier.MinQuantity < 0 {
			return fmt.Errorf("%w: discounts[%d].min_quantity is negative", ErrInvalidRateCard, i)
		}
		if !(tier.Multiplier > 0) || math.IsInf(tier.Multiplier, 0) {
			return fmt.Errorf("%w: discounts[%d].multiplier must be positive", ErrInvalidRateCard, i)
		}
	}
	return nil
}

func price[K comparable](prices map[K]float64, key K, name string) error {
	v, ok := prices[key]
	if !ok {
		return fmt.Errorf("%w: %s is missing", ErrInvalidRateCard, name)
	}
	return nonNegative(name, v)
}

func nonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRateCard, name)
	}
	return nil
}
