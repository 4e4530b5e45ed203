package pricing

import "github.com/Simplici0/pouchquote/internal/catalog"

// LayerCost is the mass and cost of one layer of one bag.
type LayerCost struct {
	Name     string       `json:"name"`
	Kind     catalog.Kind `json:"kind"`
	WeightKg float64      `json:"weight_kg"`
	Cost     float64      `json:"cost"`
}

// LayerWeightKg is the mass of areaM2 of material p. Films weigh
// area × thickness × density, papers weigh area × grammage. Unset physical
// parameters weigh nothing.
func LayerWeightKg(areaM2 float64, p catalog.Params) float64 {
	if areaM2 <= 0 {
		return 0
	}
	switch p.Kind {
	case catalog.KindPaper:
		return finite(areaM2 * positive(p.GrammageGPerM2) / 1000.0)
	default:
		thicknessM := positive(p.ThicknessMicrons) * 1e-6
		densityKgM3 := positive(p.DensityGPerCm3) * 1000.0
		return finite(areaM2 * thicknessM * densityKgM3)
	}
}

// MaterialCost prices every layer in stack order and returns the per-layer
// detail with its sum.
func MaterialCost(areaM2 float64, params []catalog.Params) ([]LayerCost, float64) {
	layers := make([]LayerCost, 0, len(params))
	total := 0.0
	for _, p := range params {
		weight := LayerWeightKg(areaM2, p)
		cost := finite(weight * positive(p.PricePerKg))
		layers = append(layers, LayerCost{
			Name:     p.Name,
			Kind:     p.Kind,
			WeightKg: weight,
			Cost:     cost,
		})
		total += cost
	}
	return layers, total
}
