package mathutil

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Tolerance used when comparing layer structures.
const Tolerance = 1e-6

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Clone returns a copy of values, preserving nil.
func Clone(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

// Fill returns n copies of v.
func Fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Multiply returns a*b element-wise over the common length. Nil in, nil out.
func Multiply(a, b []float64) []float64 {
	if a == nil || b == nil {
		return nil
	}
	n := minLen(a, b)
	out := make([]float64, n)
	floats.MulTo(out, a[:n], b[:n])
	return out
}

// Divide returns a/b element-wise over the common length. Nil in, nil out.
func Divide(a, b []float64) []float64 {
	if a == nil || b == nil {
		return nil
	}
	n := minLen(a, b)
	out := make([]float64, n)
	floats.DivTo(out, a[:n], b[:n])
	return out
}

// Scale returns values multiplied by s.
func Scale(values []float64, s float64) []float64 {
	out := Clone(values)
	if out != nil {
		floats.Scale(s, out)
	}
	return out
}

// Sum of all values. Missing values make the sum missing.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// CumThickness returns the cumulative depth at the bottom of each layer.
func CumThickness(thickness []float64) []float64 {
	if thickness == nil {
		return nil
	}
	out := make([]float64, len(thickness))
	if len(thickness) > 0 {
		floats.CumSum(out, thickness)
	}
	return out
}

// MidPoints returns the depth at the middle of each layer.
func MidPoints(thickness []float64) []float64 {
	cum := CumThickness(thickness)
	for i := range cum {
		cum[i] -= thickness[i] / 2
	}
	return cum
}

// AreEqual compares two arrays within Tolerance. Two nil arrays are equal.
func AreEqual(a, b []float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return floats.EqualApprox(a, b, Tolerance)
}

// HasValues reports whether any element is not missing.
func HasValues(values []float64) bool {
	for _, v := range values {
		if !IsMissing(v) {
			return true
		}
	}
	return false
}

// HasMissing reports whether any element is missing.
func HasMissing(values []float64) bool {
	return floats.HasNaN(values)
}

// LastValue returns the deepest non-missing value, or NaN when there is none.
func LastValue(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !IsMissing(values[i]) {
			return values[i]
		}
	}
	return math.NaN()
}

// RemoveMissingFromBottom drops trailing missing values.
func RemoveMissingFromBottom(values []float64) []float64 {
	if values == nil {
		return nil
	}
	n := len(values)
	for n > 0 && IsMissing(values[n-1]) {
		n--
	}
	return Clone(values[:n])
}

// FixLength truncates or pads values with NaN so it has exactly n elements.
func FixLength(values []float64, n int) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		if i < len(values) {
			out[i] = values[i]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ReplaceMissing returns a copy with every missing value set to v.
func ReplaceMissing(values []float64, v float64) []float64 {
	out := Clone(values)
	for i := range out {
		if IsMissing(out[i]) {
			out[i] = v
		}
	}
	return out
}

// ReplaceMissingFrom returns a copy where missing cells take the value of
// fallback at the same index. Cells beyond fallback stay missing.
func ReplaceMissingFrom(values, fallback []float64) []float64 {
	out := Clone(values)
	for i := range out {
		if IsMissing(out[i]) && i < len(fallback) {
			out[i] = fallback[i]
		}
	}
	return out
}

// Constrain clamps each value into [lower[i], upper[i]]. Either bound may be
// nil, and missing bounds are ignored.
func Constrain(values, lower, upper []float64) []float64 {
	out := Clone(values)
	for i := range out {
		if i < len(lower) && !IsMissing(lower[i]) && out[i] < lower[i] {
			out[i] = lower[i]
		}
		if i < len(upper) && !IsMissing(upper[i]) && out[i] > upper[i] {
			out[i] = upper[i]
		}
	}
	return out
}

// IndexOfFold returns the index of name in names ignoring case, or -1.
func IndexOfFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

func minLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
