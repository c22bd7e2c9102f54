package mathutil

import "math"

// Interpolate returns the y value at x by linear interpolation between the
// knots (xs, ys). xs must be increasing. Outside the knot range the nearest
// end value is returned and didExtrapolate is true.
func Interpolate(x float64, xs, ys []float64) (y float64, didExtrapolate bool) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n == 0 {
		return math.NaN(), true
	}
	if x <= xs[0] {
		return ys[0], x < xs[0]
	}
	for i := 1; i < n; i++ {
		if x > xs[i] {
			continue
		}
		if x == xs[i] {
			return ys[i], false
		}
		slope := (ys[i] - ys[i-1]) / (xs[i] - xs[i-1])
		return ys[i-1] + slope*(x-xs[i-1]), false
	}
	return ys[n-1], true
}

// InterpolateAt interpolates every x in points against the same knots.
func InterpolateAt(points, xs, ys []float64) []float64 {
	if points == nil {
		return nil
	}
	out := make([]float64, len(points))
	for i, x := range points {
		out[i], _ = Interpolate(x, xs, ys)
	}
	return out
}
