package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/pouchquote/internal/catalog"
)

// Layer count bounds of a material stack.
const (
	MinLayers = 1
	MaxLayers = 4
)

var (
	ErrLayerCount  = errors.New("layer count out of range")
	ErrUnknownMode = errors.New("unknown engine mode")
)

// Defaults used when a join or pass is not configured explicitly.
const (
	DefaultLamination = LamDry
	DefaultCoverage   = Coverage100
)

// PrintMode decides how many print passes a stack gets.
type PrintMode string

const (
	// PrintPerLayer prints once per layer.
	PrintPerLayer PrintMode = "per_layer"
	// PrintSinglePass prints exactly once regardless of the layer count.
	PrintSinglePass PrintMode = "single_pass"
)

// ParsePrintMode converts a raw string into a PrintMode.
func ParsePrintMode(value string) (PrintMode, error) {
	switch m := PrintMode(strings.ToLower(strings.TrimSpace(value))); m {
	case PrintPerLayer, PrintSinglePass:
		return m, nil
	}
	return "", fmt.Errorf("%w: print mode %q", ErrUnknownMode, value)
}

// Layer is one ply of the laminate, listed from the outside in.
type Layer struct {
	Material catalog.Material
}

// LaminationJoin bonds layer Index to layer Index+1.
type LaminationJoin struct {
	Index  int
	Method LaminationMethod
}

// PrintPass is one print event.
type PrintPass struct {
	Index    int
	Coverage Coverage
}

// Stack is a material stack whose joins and passes are derived from its
// layers. Build one with NewStack.
type Stack struct {
	layers []Layer
	joins  []LaminationJoin
	passes []PrintPass
	mode   PrintMode
}

// NewStack derives the joins and print passes for layers. Join i takes
// methods[i] and pass i takes coverages[i] when present; missing entries use
// DefaultLamination and DefaultCoverage, surplus entries are dropped.
func NewStack(layers []Layer, methods []LaminationMethod, coverages []Coverage, mode PrintMode) (Stack, error) {
	if len(layers) < MinLayers || len(layers) > MaxLayers {
		return Stack{}, fmt.Errorf("%w: %d layers, want %d-%d", ErrLayerCount, len(layers), MinLayers, MaxLayers)
	}

	if mode == "" {
		mode = PrintPerLayer
	}
	s := Stack{layers: make([]Layer, len(layers)), mode: mode}
	copy(s.layers, layers)

	for i := 0; i < JoinCount(len(layers)); i++ {
		method := DefaultLamination
		if i < len(methods) && methods[i] != "" {
			method = methods[i]
		}
		if _, err := ParseLaminationMethod(string(method)); err != nil {
			return Stack{}, err
		}
		s.joins = append(s.joins, LaminationJoin{Index: i, Method: method})
	}

	passCount, err := PassCount(len(layers), mode)
	if err != nil {
		return Stack{}, err
	}
	for i := 0; i < passCount; i++ {
		coverage := DefaultCoverage
		if i < len(coverages) && coverages[i] != 0 {
			coverage = coverages[i]
		}
		if _, err := ParseCoverage(int(coverage)); err != nil {
			return Stack{}, err
		}
		s.passes = append(s.passes, PrintPass{Index: i, Coverage: coverage})
	}

	return s, nil
}

// JoinCount is the number of lamination joins a stack of n layers needs.
func JoinCount(n int) int {
	if n <= 1 {
		return 0
	}
	return n - 1
}

// PassCount is the number of print passes a stack of n layers gets under mode.
func PassCount(n int, mode PrintMode) (int, error) {
	switch mode {
	case PrintPerLayer, "":
		return n, nil
	case PrintSinglePass:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: print mode %q", ErrUnknownMode, mode)
}

// Mode is the print mode the passes were derived under.
func (s Stack) Mode() PrintMode {
	return s.mode
}

func (s Stack) Layers() []Layer {
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

func (s Stack) Joins() []LaminationJoin {
	out := make([]LaminationJoin, len(s.joins))
	copy(out, s.joins)
	return out
}

func (s Stack) Passes() []PrintPass {
	out := make([]PrintPass, len(s.passes))
	copy(out, s.passes)
	return out
}
