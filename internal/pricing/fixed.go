package pricing

import (
	"fmt"
	"math"
	"strings"
)

// FixedCostMode decides how one-time tooling fees reach the quote.
type FixedCostMode string

const (
	// FixedAmortized spreads setup and plate fees over the order quantity.
	FixedAmortized FixedCostMode = "amortized"
	// FixedLumpSum reports the fees once and adds them to the order total only.
	FixedLumpSum FixedCostMode = "lump_sum"
)

// ParseFixedCostMode converts a raw string into a FixedCostMode.
func ParseFixedCostMode(value string) (FixedCostMode, error) {
	switch m := FixedCostMode(strings.ToLower(strings.TrimSpace(value))); m {
	case FixedAmortized, FixedLumpSum:
		return m, nil
	}
	return "", fmt.Errorf("%w: fixed cost mode %q", ErrUnknownMode, value)
}

// Plate is the printing cylinder size in centimetres.
type Plate struct {
	LengthCm        float64
	CircumferenceCm float64
}

// SetupFee is the machine setup charge for an order printed in colors colors.
func SetupFee(colors int, rates SetupRates) float64 {
	return finite(math.Min(float64(nonNegativeInt(colors))*rates.PerColor, rates.Cap))
}

// PlateFee is the tooling charge for colors plates of the given size.
func PlateFee(plate Plate, colors int, rates PlateRates) float64 {
	return finite(positive(plate.LengthCm) * positive(plate.CircumferenceCm) * float64(nonNegativeInt(colors)) * rates.PerCm2)
}

// Amortize spreads a one-time fee over quantity bags, treating quantity below 1 as 1.
func Amortize(fee float64, quantity int) float64 {
	q := quantity
	if q < 1 {
		q = 1
	}
	return finite(fee / float64(q))
}
