package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a canonical measurement unit understood by the costing engine.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Milliliter Unit = "ml"
	Liter      Unit = "l"
	Piece      Unit = "pieces"
	Box        Unit = "box"
)

type dimension int

const (
	mass dimension = iota
	volume
	count
	pack
)

var (
	ErrUnsupportedUnit   = errors.New("unsupported unit")
	ErrIncompatibleUnits = errors.New("incompatible units")
)

type unitInfo struct {
	dim    dimension
	factor decimal.Decimal // multiplier to the dimension's base unit
}

var table = map[Unit]unitInfo{
	Gram:       {dim: mass, factor: decimal.NewFromInt(1)},
	Kilogram:   {dim: mass, factor: decimal.NewFromInt(1000)},
	Milliliter: {dim: volume, factor: decimal.NewFromInt(1)},
	Liter:      {dim: volume, factor: decimal.NewFromInt(1000)},
	Piece:      {dim: count, factor: decimal.NewFromInt(1)},
	Box:        {dim: pack, factor: decimal.NewFromInt(1)},
}

var aliases = map[string]Unit{
	"g":         Gram,
	"gram":      Gram,
	"grams":     Gram,
	"kg":        Kilogram,
	"kilogram":  Kilogram,
	"kilograms": Kilogram,
	"ml":        Milliliter,
	"l":         Liter,
	"liter":     Liter,
	"litre":     Liter,
	"pieces":    Piece,
	"piece":     Piece,
	"pcs":       Piece,
	"pc":        Piece,
	"box":       Box,
	"boxes":     Box,
}

// Parse resolves a free-form unit label to its canonical Unit.
func Parse(s string) (Unit, error) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedUnit, s)
	}
	return u, nil
}

func IsSupported(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Compatible reports whether quantities in a and b can be converted into each other.
func Compatible(a, b string) bool {
	ua, err := Parse(a)
	if err != nil {
		return false
	}
	ub, err := Parse(b)
	if err != nil {
		return false
	}
	return table[ua].dim == table[ub].dim
}

// Convert expresses qty, measured in from, in the unit to.
// Conversion is exact; callers round at their own output boundary.
func Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, error) {
	uf, err := Parse(from)
	if err != nil {
		return decimal.Zero, err
	}
	ut, err := Parse(to)
	if err != nil {
		return decimal.Zero, err
	}
	if uf == ut {
		return qty, nil
	}

	fi, ti := table[uf], table[ut]
	if fi.dim != ti.dim {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrIncompatibleUnits, uf, ut)
	}
	return qty.Mul(fi.factor).Div(ti.factor), nil
}
