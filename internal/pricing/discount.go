package pricing

import (
	"math"
	"sort"
)

// DiscountMultiplier returns the multiplier of the tier with the highest
// MinQuantity that quantity reaches. Below every tier the lowest tier applies;
// an empty ladder means no adjustment.
func DiscountMultiplier(quantity int, tiers []DiscountTier) float64 {
	if len(tiers) == 0 {
		return 1
	}
	ladder := make([]DiscountTier, len(tiers))
	copy(ladder, tiers)
	sort.Slice(ladder, func(i, j int) bool { return ladder[i].MinQuantity < ladder[j].MinQuantity })

	multiplier := ladder[0].Multiplier
	for _, tier := range ladder {
		if quantity >= tier.MinQuantity {
			multiplier = tier.Multiplier
		}
	}
	return multiplier
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func positive(v float64) float64 {
	if v > 0 && !math.IsInf(v, 1) {
		return v
	}
	return 0
}
