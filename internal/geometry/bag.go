// Package geometry models the bag shapes that can be quoted and resolves the
// unfolded sheet area each one consumes.
package geometry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBagType = errors.New("unknown bag type")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidRows    = errors.New("invalid rows")
	ErrInvalidZipper  = errors.New("invalid zipper")
)

// BagType identifies the bag-forming method.
type BagType string

const (
	TypeStandUp       BagType = "stand_up"
	TypeThreeSideSeal BagType = "three_side_seal"
	TypeCenterSeal    BagType = "center_seal"
	TypeGusset        BagType = "gusset"
	TypeEightSideSeal BagType = "eight_side_seal"
)

var bagTypes = []BagType{
	TypeStandUp,
	TypeThreeSideSeal,
	TypeCenterSeal,
	TypeGusset,
	TypeEightSideSeal,
}

// BagTypes lists every supported bag type.
func BagTypes() []BagType {
	out := make([]BagType, len(bagTypes))
	copy(out, bagTypes)
	return out
}

// ParseBagType converts a raw string into a BagType.
func ParseBagType(value string) (BagType, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range bagTypes {
		if string(candidate) == v {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownBagType, value)
}

// Rows is the number of bags formed side by side on a three-side-seal line.
type Rows string

const (
	RowsSingle Rows = "single"
	RowsDouble Rows = "double"
	RowsTriple Rows = "triple"
)

// ParseRows converts a raw string into Rows.
func ParseRows(value string) (Rows, error) {
	switch r := Rows(strings.ToLower(strings.TrimSpace(value))); r {
	case RowsSingle, RowsDouble, RowsTriple:
		return r, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidRows, value)
}

// Zipper is the reclosable closure fitted to the bag.
type Zipper string

const (
	ZipperNone     Zipper = "none"
	ZipperStandard Zipper = "standard"
	ZipperEasyTear Zipper = "easy_tear"
)

// ParseZipper converts a raw string into a Zipper. An empty string means no zipper.
func ParseZipper(value string) (Zipper, error) {
	switch z := Zipper(strings.ToLower(strings.TrimSpace(value))); z {
	case "":
		return ZipperNone, nil
	case ZipperNone, ZipperStandard, ZipperEasyTear:
		return z, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidZipper, value)
}

// Bag is a resolved bag shape. Every length is in millimetres and each
// implementation carries only the fields its forming method uses.
type Bag interface {
	Type() BagType
	// AreaMM2 is the unfolded sheet area of one bag in square millimetres.
	AreaMM2() float64
	// WidthMM and HeightMM are the finished bag dimensions.
	WidthMM() float64
	HeightMM() float64
}

// Dims holds the finished bag width and height shared by every bag type.
type Dims struct {
	Width  float64
	Height float64
}

func (d Dims) WidthMM() float64  { return nonNegative(d.Width) }
func (d Dims) HeightMM() float64 { return nonNegative(d.Height) }

type StandUp struct {
	Dims
	BottomInsert float64
	Zipper       Zipper
}

type ThreeSideSeal struct {
	Dims
	Rows Rows
}

type CenterSeal struct {
	Dims
	BackSeam float64
}

type Gusset struct {
	Dims
	BackSeam   float64
	SideGusset float64
}

type EightSideSeal struct {
	Dims
	BottomInsert float64
	SideGusset   float64
	Zipper       Zipper
}

func (StandUp) Type() BagType       { return TypeStandUp }
func (ThreeSideSeal) Type() BagType { return TypeThreeSideSeal }
func (CenterSeal) Type() BagType    { return TypeCenterSeal }
func (Gusset) Type() BagType        { return TypeGusset }
func (EightSideSeal) Type() BagType { return TypeEightSideSeal }

func nonNegative(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
