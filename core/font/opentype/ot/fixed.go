package ot

import (
	"fmt"
	"math"
)

// Fixed is a 32-bit signed fixed-point number (16.16).
type Fixed int32

// FixedFromFloat converts a float to 16.16 fixed-point notation, rounding to
// the nearest representable value. Values which are not representable
// result in an error; no clamping is performed.
func FixedFromFloat(v float64) (Fixed, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("cannot convert %v to fixed-point", v)
	}
	n := math.Round(v * 0x10000)
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("value %v out of range for 16.16 fixed-point", v)
	}
	return Fixed(n), nil
}

// Float returns f as a float.
func (f Fixed) Float() float64 {
	return float64(f) / 0x10000
}

func (f Fixed) String() string {
	return fmt.Sprintf("%g", f.Float())
}

// F2Dot14 is a 16-bit signed fixed number with the low 14 bits of fraction (2.14).
// It is used for normalized coordinates in variation data.
type F2Dot14 int16

// F2Dot14FromFloat converts a float to 2.14 notation, rounding to the nearest
// representable value. Values outside of [-2, 2) are clamped.
func F2Dot14FromFloat(v float64) F2Dot14 {
	n := math.Round(v * 0x4000)
	if n < math.MinInt16 {
		n = math.MinInt16
	} else if n > math.MaxInt16 {
		n = math.MaxInt16
	}
	return F2Dot14(n)
}

// Float returns f as a float.
func (f F2Dot14) Float() float64 {
	return float64(f) / 0x4000
}
