// Package pricing turns a bag description into a per-bag and per-order cost
// breakdown. Every function here is pure; an Engine only carries its rate card,
// catalog and modes and may be shared between goroutines.
package pricing

import (
	"fmt"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/geometry"
)

// Order is everything needed to quote one job.
type Order struct {
	Bag       geometry.Bag
	Layers    []Layer
	Joins     []LaminationMethod
	Coverages []Coverage
	AddOns    AddOns
	// Colors overrides the number of print passes as the color count for
	// setup and plate fees when positive.
	Colors   int
	Plate    Plate
	Quantity int
	FXRate   float64
}

// Breakdown contains the per-bag cost contributions.
type Breakdown struct {
	AreaM2         float64     `json:"area_m2"`
	Layers         []LayerCost `json:"layers"`
	MaterialCost   float64     `json:"material_cost"`
	PrintCost      float64     `json:"print_cost"`
	LaminationCost float64     `json:"lamination_cost"`
	FormingCost    float64     `json:"forming_cost"`
	AddOnCost      float64     `json:"add_on_cost"`
	LaborCost      float64     `json:"labor_cost"`
	SetupPerUnit   float64     `json:"setup_per_unit"`
	PlatePerUnit   float64     `json:"plate_per_unit"`
}

// Totals contains the discount and roll-up values.
type Totals struct {
	Colors       int     `json:"colors"`
	SetupTotal   float64 `json:"setup_total"`
	PlateTotal   float64 `json:"plate_total"`
	Discount     float64 `json:"discount"`
	UnitRaw      float64 `json:"unit_raw"`
	UnitTotal    float64 `json:"unit_total"`
	OrderTotal   float64 `json:"order_total"`
	OrderTotalFX float64 `json:"order_total_fx"`
}

// Result groups the full quote: breakdown, totals and the modes that produced them.
type Result struct {
	Breakdown     Breakdown
	Totals        Totals
	Joins         []LaminationJoin
	Passes        []PrintPass
	PrintMode     PrintMode
	FixedCostMode FixedCostMode
}

// Options selects the engine's pricing modes.
type Options struct {
	PrintMode     PrintMode
	FixedCostMode FixedCostMode
}

// Engine prices orders against a fixed rate card and catalog.
type Engine struct {
	rates   RateCard
	catalog catalog.Catalog
	opts    Options
}

// NewEngine validates opts and returns an Engine. Empty modes default to
// PrintPerLayer and FixedAmortized.
func NewEngine(rates RateCard, cat catalog.Catalog, opts Options) (*Engine, error) {
	if opts.PrintMode == "" {
		opts.PrintMode = PrintPerLayer
	}
	if opts.FixedCostMode == "" {
		opts.FixedCostMode = FixedAmortized
	}
	if _, err := ParsePrintMode(string(opts.PrintMode)); err != nil {
		return nil, err
	}
	if _, err := ParseFixedCostMode(string(opts.FixedCostMode)); err != nil {
		return nil, err
	}
	return &Engine{rates: rates, catalog: cat, opts: opts}, nil
}

func (e *Engine) Rates() RateCard          { return e.rates }
func (e *Engine) Catalog() catalog.Catalog { return e.catalog }
func (e *Engine) Options() Options         { return e.opts }

// Quote prices o. Errors are only returned for inputs that cannot be priced
// at all: a missing bag, an unknown material, coverage or lamination method,
// or a layer count outside MinLayers-MaxLayers.
func (e *Engine) Quote(o Order) (Result, error) {
	if o.Bag == nil {
		return Result{}, fmt.Errorf("%w: bag", geometry.ErrMissingField)
	}

	stack, err := NewStack(o.Layers, o.Joins, o.Coverages, e.opts.PrintMode)
	if err != nil {
		return Result{}, err
	}

	params := make([]catalog.Params, 0, len(o.Layers))
	for i, layer := range stack.layers {
		p, err := e.catalog.Resolve(layer.Material)
		if err != nil {
			return Result{}, fmt.Errorf("layer %d: %w", i+1, err)
		}
		params = append(params, p)
	}

	return Calculate(o, stack, params, e.rates, e.opts.FixedCostMode), nil
}

// Calculate computes the quote for an already resolved stack.
func Calculate(o Order, stack Stack, params []catalog.Params, rates RateCard, mode FixedCostMode) Result {
	area := geometry.AreaM2(o.Bag)

	layers, materialCost := MaterialCost(area, params)
	printCost := PrintCost(area, stack.passes, rates.Print)
	lamCost := LaminationCost(area, stack.joins, rates.Lamination)
	formingCost := FormingCost(o.Bag, rates.Forming)
	addOnCost := AddOnCost(o.AddOns, rates.AddOns)
	laborCost := LaborCost(o.Bag.WidthMM(), rates.Labor)

	colors := len(stack.passes)
	if o.Colors > 0 {
		colors = o.Colors
	}
	plate := o.Plate
	if plate.LengthCm <= 0 {
		plate.LengthCm = rates.Plate.DefaultLengthCm
	}
	if plate.CircumferenceCm <= 0 {
		plate.CircumferenceCm = rates.Plate.DefaultCircumferenceCm
	}
	setupTotal := SetupFee(colors, rates.Setup)
	plateTotal := PlateFee(plate, colors, rates.Plate)

	var setupPerUnit, platePerUnit float64
	if mode != FixedLumpSum {
		setupPerUnit = Amortize(setupTotal, o.Quantity)
		platePerUnit = Amortize(plateTotal, o.Quantity)
	}

	discount := DiscountMultiplier(o.Quantity, rates.Discounts)
	unitRaw := finite(materialCost + printCost + lamCost + formingCost + addOnCost + laborCost + setupPerUnit + platePerUnit)
	unitTotal := finite(unitRaw * discount)

	quantity := nonNegativeInt(o.Quantity)
	orderTotal := finite(unitTotal * float64(quantity))
	if mode == FixedLumpSum {
		orderTotal = finite(orderTotal + setupTotal + plateTotal)
	}

	orderTotalFX := 0.0
	if o.FXRate > 0 {
		orderTotalFX = finite(orderTotal / o.FXRate)
	}

	if mode == "" {
		mode = FixedAmortized
	}

	return Result{
		Breakdown: Breakdown{
			AreaM2:         area,
			Layers:         layers,
			MaterialCost:   materialCost,
			PrintCost:      printCost,
			LaminationCost: lamCost,
			FormingCost:    formingCost,
			AddOnCost:      addOnCost,
			LaborCost:      laborCost,
			SetupPerUnit:   setupPerUnit,
			PlatePerUnit:   platePerUnit,
		},
		Totals: Totals{
			Colors:       colors,
			SetupTotal:   setupTotal,
			PlateTotal:   plateTotal,
			Discount:     discount,
			UnitRaw:      unitRaw,
			UnitTotal:    unitTotal,
			OrderTotal:   orderTotal,
			OrderTotalFX: orderTotalFX,
		},
		Joins:         stack.Joins(),
		Passes:        stack.Passes(),
		PrintMode:     stack.Mode(),
		FixedCostMode: mode,
	}
}
