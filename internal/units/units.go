// Package units converts input lengths and areas to millimetres, the single
// base unit used by the quoting engine.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// MillimetersPerInch is the fixed inch to millimetre factor.
const MillimetersPerInch = 25.4

// ErrUnknownUnit is returned when a unit string is not recognized.
var ErrUnknownUnit = errors.New("unknown unit")

// Unit is the declared unit of every linear field in a bag description.
type Unit string

const (
	Millimeter Unit = "mm"
	Inch       Unit = "inch"
)

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}

// IsValid reports whether the unit is recognized.
func (u Unit) IsValid() bool {
	return u == Millimeter || u == Inch
}

// Parse converts a raw unit name into a Unit. An empty string means millimetres.
func Parse(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "mm", "millimeter", "millimetre":
		return Millimeter, nil
	case "in", "inch", "inches":
		return Inch, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownUnit, value)
}

// Length returns v expressed in millimetres.
func Length(v float64, u Unit) float64 {
	if u == Inch {
		return v * MillimetersPerInch
	}
	return v
}

// Area returns v expressed in square millimetres.
func Area(v float64, u Unit) float64 {
	if u == Inch {
		return v * MillimetersPerInch * MillimetersPerInch
	}
	return v
}

// MMToM converts millimetres to metres.
func MMToM(mm float64) float64 {
	return mm / 1000.0
}

// MM2ToM2 converts square millimetres to square metres.
func MM2ToM2(mm2 float64) float64 {
	return mm2 / 1_000_000.0
}
