// Package catalog holds the named material presets a layer can reference and
// resolves a layer's material choice into physical parameters.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMaterial   = errors.New("unknown material")
	ErrDuplicateMaterial = errors.New("duplicate material")
	ErrInvalidKind       = errors.New("invalid material kind")
)

// MaterialID is the stable key of a preset.
type MaterialID string

// Kind decides which weight formula applies to a material.
type Kind string

const (
	KindFilm  Kind = "film"
	KindPaper Kind = "paper"
)

// ParseKind converts a raw string into a Kind.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindFilm, KindPaper:
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidKind, value)
}

// Film families whose thickness may be overridden per layer.
var overridableFamilies = map[string]bool{
	"CPP": true,
	"PE":  true,
}

// Preset is one catalog entry. Film presets use thickness and density, paper
// presets use grammage.
type Preset struct {
	ID               MaterialID
	Name             string
	Family           string
	Kind             Kind
	ThicknessMicrons float64
	DensityGPerCm3   float64
	GrammageGPerM2   float64
	PricePerKg       float64
}

// AllowsThicknessOverride reports whether a layer may replace the preset thickness.
func (p Preset) AllowsThicknessOverride() bool {
	return p.Kind == KindFilm && overridableFamilies[strings.ToUpper(p.Family)]
}

// Params are the physical parameters the material costing works from.
type Params struct {
	Name             string
	Kind             Kind
	ThicknessMicrons float64
	DensityGPerCm3   float64
	GrammageGPerM2   float64
	PricePerKg       float64
}

// Material is a layer's material choice: a preset Ref or inline Custom params.
type Material interface {
	resolve(c Catalog) (Params, error)
}

// Ref selects a preset by ID. OverrideThicknessMicrons replaces the preset
// thickness when positive and the preset family allows it.
type Ref struct {
	ID                       MaterialID
	OverrideThicknessMicrons float64
}

func (r Ref) resolve(c Catalog) (Params, error) {
	p, ok := c.Lookup(r.ID)
	if !ok {
		return Params{}, fmt.Errorf("%w %q", ErrUnknownMaterial, r.ID)
	}
	params := p.params()
	if r.OverrideThicknessMicrons > 0 && p.AllowsThicknessOverride() {
		params.ThicknessMicrons = r.OverrideThicknessMicrons
	}
	return params, nil
}

// Custom is a user-supplied material.
type Custom Params

const defaultCustomName = "custom material"

func (m Custom) resolve(Catalog) (Params, error) {
	params := Params(m)
	if params.Kind == "" {
		params.Kind = KindFilm
	}
	if params.Kind != KindFilm && params.Kind != KindPaper {
		return Params{}, fmt.Errorf("%w %q", ErrInvalidKind, params.Kind)
	}
	if strings.TrimSpace(params.Name) == "" {
		params.Name = defaultCustomName
	}
	return params, nil
}

func (p Preset) params() Params {
	return Params{
		Name:             p.Name,
		Kind:             p.Kind,
		ThicknessMicrons: p.ThicknessMicrons,
		DensityGPerCm3:   p.DensityGPerCm3,
		GrammageGPerM2:   p.GrammageGPerM2,
		PricePerKg:       p.PricePerKg,
	}
}

// Catalog is an immutable set of presets keyed by ID.
type Catalog struct {
	presets []Preset
	byID    map[MaterialID]int
}

// New builds a catalog, keeping the order the presets were given in.
func New(presets ...Preset) (Catalog, error) {
	c := Catalog{
		presets: make([]Preset, 0, len(presets)),
		byID:    make(map[MaterialID]int, len(presets)),
	}
	for _, p := range presets {
		if p.ID == "" {
			return Catalog{}, fmt.Errorf("%w: empty id for %q", ErrUnknownMaterial, p.Name)
		}
		if p.Kind != KindFilm && p.Kind != KindPaper {
			return Catalog{}, fmt.Errorf("%w %q for %s", ErrInvalidKind, p.Kind, p.ID)
		}
		if _, exists := c.byID[p.ID]; exists {
			return Catalog{}, fmt.Errorf("%w %q", ErrDuplicateMaterial, p.ID)
		}
		c.byID[p.ID] = len(c.presets)
		c.presets = append(c.presets, p)
	}
	return c, nil
}

// Lookup returns the preset stored under id.
func (c Catalog) Lookup(id MaterialID) (Preset, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Preset{}, false
	}
	return c.presets[i], true
}

// Presets returns a copy of every preset in catalog order.
func (c Catalog) Presets() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Len is the number of presets.
func (c Catalog) Len() int {
	return len(c.presets)
}

// Resolve turns a material choice into physical parameters.
func (c Catalog) Resolve(m Material) (Params, error) {
	if m == nil {
		return Params{}, fmt.Errorf("%w: no material selected", ErrUnknownMaterial)
	}
	return m.resolve(c)
}
