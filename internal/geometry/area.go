package geometry

import "github.com/Simplici0/pouchquote/internal/units"

// Trim and seal allowances of the eight-side-seal layout, in millimetres.
const (
	EightSideBottomAllowance = 30.0
	EightSideWidthAllowance  = 6.0
	EightSideHeightAllowance = 10.0
)

// AreaMM2 is width × (height + bottom insert) × 2.
func (b StandUp) AreaMM2() float64 {
	return b.WidthMM() * (b.HeightMM() + nonNegative(b.BottomInsert)) * 2
}

// AreaMM2 is width × height × 2.
func (b ThreeSideSeal) AreaMM2() float64 {
	return b.WidthMM() * b.HeightMM() * 2
}

// AreaMM2 is (2 × width + 2 × back seam) × height.
func (b CenterSeal) AreaMM2() float64 {
	return (b.WidthMM()*2 + nonNegative(b.BackSeam)*2) * b.HeightMM()
}

// AreaMM2 is (2 × width + 2 × back seam + 2 × side gusset) × height.
func (b Gusset) AreaMM2() float64 {
	return (b.WidthMM()*2 + nonNegative(b.BackSeam)*2 + nonNegative(b.SideGusset)*2) * b.HeightMM()
}

// AreaMM2 covers the front and back panels plus the bottom, then both side
// gussets, each with their trim allowances.
func (b EightSideSeal) AreaMM2() float64 {
	h := b.HeightMM()
	panels := (h + h + nonNegative(b.BottomInsert) + EightSideBottomAllowance) * (b.WidthMM() + EightSideWidthAllowance)
	sides := (nonNegative(b.SideGusset) + EightSideWidthAllowance) * 2 * (h + EightSideHeightAllowance)
	return panels + sides
}

// AreaM2 returns the unfolded area of bag in square metres. A nil bag has no area.
func AreaM2(bag Bag) float64 {
	if bag == nil {
		return 0
	}
	return units.MM2ToM2(nonNegative(bag.AreaMM2()))
}
