package geometry

import (
	"fmt"

	"github.com/Simplici0/pouchquote/internal/units"
)

// Spec is the flat, unit-tagged description of a bag as it arrives from a
// client. Optional lengths are pointers so an absent field can be told apart
// from an explicit zero.
type Spec struct {
	Type         BagType
	Unit         units.Unit
	Width        float64
	Height       float64
	BottomInsert *float64
	BackSeam     *float64
	SideGusset   *float64
	Rows         Rows
	Zipper       Zipper
}

// Resolve normalizes every length to millimetres and returns the bag variant
// for s.Type. Rows and Zipper must be valid whenever they are set; otherwise
// fields the bag type does not use are ignored.
func (s Spec) Resolve() (Bag, error) {
	u := s.Unit
	if u == "" {
		u = units.Millimeter
	}
	if !u.IsValid() {
		return nil, fmt.Errorf("%w %q", units.ErrUnknownUnit, s.Unit)
	}

	dims := Dims{Width: units.Length(s.Width, u), Height: units.Length(s.Height, u)}
	zipper, err := ParseZipper(string(s.Zipper))
	if err != nil {
		return nil, err
	}
	var rows Rows
	if s.Rows != "" {
		if rows, err = ParseRows(string(s.Rows)); err != nil {
			return nil, err
		}
	}

	switch s.Type {
	case TypeStandUp:
		bottom, err := required(s.BottomInsert, "bottom_insert", u)
		if err != nil {
			return nil, err
		}
		if zipper != ZipperNone && zipper != ZipperStandard {
			return nil, fmt.Errorf("%w %q for %s", ErrInvalidZipper, zipper, s.Type)
		}
		return StandUp{Dims: dims, BottomInsert: bottom, Zipper: zipper}, nil

	case TypeThreeSideSeal:
		if rows == "" {
			return nil, fmt.Errorf("%w: rows", ErrMissingField)
		}
		return ThreeSideSeal{Dims: dims, Rows: rows}, nil

	case TypeCenterSeal:
		seam, err := required(s.BackSeam, "back_seam", u)
		if err != nil {
			return nil, err
		}
		return CenterSeal{Dims: dims, BackSeam: seam}, nil

	case TypeGusset:
		seam, err := required(s.BackSeam, "back_seam", u)
		if err != nil {
			return nil, err
		}
		gusset, err := required(s.SideGusset, "side_gusset", u)
		if err != nil {
			return nil, err
		}
		return Gusset{Dims: dims, BackSeam: seam, SideGusset: gusset}, nil

	case TypeEightSideSeal:
		bottom, err := required(s.BottomInsert, "bottom_insert", u)
		if err != nil {
			return nil, err
		}
		gusset, err := required(s.SideGusset, "side_gusset", u)
		if err != nil {
			return nil, err
		}
		switch zipper {
		case ZipperNone, ZipperStandard, ZipperEasyTear:
		default:
			return nil, fmt.Errorf("%w %q for %s", ErrInvalidZipper, zipper, s.Type)
		}
		return EightSideSeal{Dims: dims, BottomInsert: bottom, SideGusset: gusset, Zipper: zipper}, nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownBagType, s.Type)
}

func required(v *float64, field string, u units.Unit) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return units.Length(*v, u), nil
}
