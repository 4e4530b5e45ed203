package pricing

import (
	"math"

	"github.com/Simplici0/pouchquote/internal/geometry"
	"github.com/Simplici0/pouchquote/internal/units"
)

// AddOns are optional per-bag processes.
type AddOns struct {
	FoilAreaMM2 float64
	// FoilRows is 0 for no per-application fee, 1 for single row, 2 or more for double row.
	FoilRows   int
	Valves     int
	Handles    int
	WireTies   int
	EmbossRows int
}

// PrintCost sums areaM2 × coverage price over every pass.
func PrintCost(areaM2 float64, passes []PrintPass, rates map[Coverage]float64) float64 {
	total := 0.0
	for _, p := range passes {
		total += areaM2 * rates[p.Coverage]
	}
	return finite(total)
}

// LaminationCost sums areaM2 × method price over every join.
func LaminationCost(areaM2 float64, joins []LaminationJoin, rates map[LaminationMethod]float64) float64 {
	total := 0.0
	for _, j := range joins {
		total += areaM2 * rates[j.Method]
	}
	return finite(total)
}

// FormingCost is the bag-making cost of one bag: a per-metre rate chosen by
// the bag type, applied to the dimension that bag type is sealed along.
func FormingCost(bag geometry.Bag, rates FormingRates) float64 {
	switch b := bag.(type) {
	case geometry.StandUp:
		rate := rates.StandUpPlain
		if b.Zipper == geometry.ZipperStandard {
			rate = rates.StandUpZipper
		}
		return finite(rate * units.MMToM(b.WidthMM()))
	case geometry.ThreeSideSeal:
		short := math.Min(b.WidthMM(), b.HeightMM())
		return finite(rates.ThreeSide[b.Rows] * units.MMToM(short))
	case geometry.CenterSeal, geometry.Gusset:
		return finite(rates.CenterGusset * units.MMToM(bag.HeightMM()))
	case geometry.EightSideSeal:
		zipper := b.Zipper
		if zipper == "" {
			zipper = geometry.ZipperNone
		}
		return finite(rates.EightSide[zipper] * units.MMToM(b.WidthMM()))
	}
	return 0
}

// AddOnCost prices foil stamping, valves, handles, wire ties and embossing for one bag.
func AddOnCost(a AddOns, rates AddOnRates) float64 {
	total := 0.0
	if a.FoilAreaMM2 > 0 {
		total += units.MM2ToM2(a.FoilAreaMM2) * rates.FoilPerM2
		switch {
		case a.FoilRows >= 2:
			total += rates.FoilDoubleRowFee
		case a.FoilRows == 1:
			total += rates.FoilSingleRowFee
		}
	}
	total += float64(nonNegativeInt(a.Valves)) * rates.Valve
	total += float64(nonNegativeInt(a.Handles)) * rates.Handle
	total += float64(nonNegativeInt(a.WireTies)) * rates.WireTie
	total += float64(nonNegativeInt(a.EmbossRows)) * rates.EmbossPerRow
	return finite(total)
}

// LaborCost is the per-bag labor rate for a bag of the given width.
func LaborCost(widthMM float64, rates LaborRates) float64 {
	if widthMM < rates.ThresholdMM {
		return rates.Below
	}
	return rates.AtOrAbove
}

func nonNegativeInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
