package soils

import (
	"math"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// belowProfileThickness is the synthetic bottom layer (mm) standing in for
// everything beneath the measured profile.
const belowProfileThickness = 3000.0

// MapConcentration maps per-layer concentrations from one layer structure to
// another, conserving the depth integral. Unless allowMissing is set the
// source is cut at its first missing value. belowProfileDefault is the
// concentration assumed beneath the source profile.
func MapConcentration(from, fromThickness, toThickness []float64, belowProfileDefault float64, allowMissing bool) []float64 {
	if from == nil || fromThickness == nil || toThickness == nil {
		return nil
	}

	n := len(from)
	if len(fromThickness) < n {
		n = len(fromThickness)
	}
	values := make([]float64, 0, n+1)
	thickness := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		if !allowMissing && mathutil.IsMissing(from[i]) {
			break
		}
		values = append(values, from[i])
		thickness = append(thickness, fromThickness[i])
	}
	values = append(values, belowProfileDefault)
	thickness = append(thickness, belowProfileThickness)

	mass := mathutil.Multiply(values, thickness)
	return mathutil.Divide(MapMass(mass, thickness, toThickness, allowMissing), toThickness)
}

// MapMass redistributes per-layer masses onto a new layer structure by
// interpolating the cumulative mass curve at each new layer boundary.
func MapMass(mass, fromThickness, toThickness []float64, allowMissing bool) []float64 {
	if mass == nil || fromThickness == nil || toThickness == nil {
		return nil
	}

	values := mathutil.Clone(mass)
	thickness := mathutil.RemoveMissingFromBottom(fromThickness)
	if !allowMissing {
		n := 0
		for n < len(values) && n < len(thickness) && !mathutil.IsMissing(values[n]) && !mathutil.IsMissing(thickness[n]) {
			n++
		}
		values = values[:n]
		thickness = thickness[:n]
	}

	if mathutil.AreEqual(thickness, toThickness) {
		return values
	}

	n := len(values)
	if len(thickness) < n {
		n = len(thickness)
	}
	cumDepth := make([]float64, n+1)
	cumMass := make([]float64, n+1)
	for i := 0; i < n; i++ {
		cumDepth[i+1] = cumDepth[i] + thickness[i]
		cumMass[i+1] = cumMass[i] + values[i]
	}

	out := make([]float64, len(toThickness))
	bottom := 0.0
	for i, th := range toThickness {
		top := bottom
		bottom += th
		massTop, _ := mathutil.Interpolate(top, cumDepth, cumMass)
		massBottom, _ := mathutil.Interpolate(bottom, cumDepth, cumMass)
		out[i] = massBottom - massTop
		if !allowMissing && mathutil.IsMissing(out[i]) {
			out[i] = 0
		}
	}
	return out
}

// MapSW maps volumetric soil water. Below the measured profile the water
// decays to 80% then 40% of the deepest reading over two layers, but never
// below the lower limit of the first crop (or LL15).
func MapSW(from, fromThickness, toThickness []float64, profile *SoilProfile) ([]float64, error) {
	if from == nil || fromThickness == nil || toThickness == nil {
		return nil, nil
	}

	n := len(from)
	if len(fromThickness) < n {
		n = len(fromThickness)
	}
	last := mathutil.LastValue(from[:n])
	lastThickness := mathutil.LastValue(fromThickness[:n])

	values := append(mathutil.Clone(from[:n]), last*0.8, last*0.4, 0.0)
	thickness := append(mathutil.Clone(fromThickness[:n]), lastThickness, lastThickness, belowProfileThickness)

	lower, err := profile.swLowerBound(thickness)
	if err != nil {
		return nil, err
	}
	for i := n; i < len(values); i++ {
		values[i] = math.Max(values[i], lower[i])
	}

	mass := mathutil.Multiply(values, thickness)
	return mathutil.Divide(MapMass(mass, thickness, toThickness, false), toThickness), nil
}

// MapUsingBD maps values expressed per unit soil mass, weighting each layer
// by bulk density on both sides of the mass remap.
func MapUsingBD(from, fromThickness, toThickness []float64, profile *SoilProfile, belowProfileDefault float64) []float64 {
	if from == nil || fromThickness == nil || toThickness == nil {
		return nil
	}

	n := len(from)
	if len(fromThickness) < n {
		n = len(fromThickness)
	}
	values := append(mathutil.Clone(from[:n]), belowProfileDefault)
	thickness := append(mathutil.Clone(fromThickness[:n]), belowProfileThickness)

	bdFrom := profile.BDMapped(thickness)
	bdTo := profile.BDMapped(toThickness)
	if bdFrom == nil || bdTo == nil {
		return nil
	}

	for i := range values {
		values[i] = values[i] * bdFrom[i] * thickness[i] / 100
	}
	out := MapMass(values, thickness, toThickness, false)
	for i := range out {
		out[i] = out[i] * 100 / bdTo[i] / toThickness[i]
	}
	return out
}

// BDMapped returns bulk density on the given layer structure.
func (p *SoilProfile) BDMapped(toThickness []float64) []float64 {
	if p.Water == nil {
		return nil
	}
	return mapWithLastValue(p.Water.BD, p.Water.Thickness, toThickness)
}

// AirDryMapped returns air-dry water content on the given layer structure.
func (p *SoilProfile) AirDryMapped(toThickness []float64) []float64 {
	if p.Water == nil {
		return nil
	}
	return mapWithLastValue(p.Water.AirDry, p.Water.Thickness, toThickness)
}

// LL15Mapped returns LL15 on the given layer structure.
func (p *SoilProfile) LL15Mapped(toThickness []float64) []float64 {
	if p.Water == nil {
		return nil
	}
	return mapWithLastValue(p.Water.LL15, p.Water.Thickness, toThickness)
}

// DULMapped returns DUL on the given layer structure.
func (p *SoilProfile) DULMapped(toThickness []float64) []float64 {
	if p.Water == nil {
		return nil
	}
	return mapWithLastValue(p.Water.DUL, p.Water.Thickness, toThickness)
}

// LLMapped returns the crop lower limit on the given layer structure.
func (c *SoilCrop) LLMapped(toThickness []float64) []float64 {
	return mapWithLastValue(c.LL, c.Thickness, toThickness)
}

func (p *SoilProfile) swLowerBound(thickness []float64) ([]float64, error) {
	if p.Water != nil {
		if len(p.Water.Crops) > 0 {
			if ll := p.Water.Crops[0].LLMapped(thickness); ll != nil {
				return ll, nil
			}
		}
		if ll15 := p.LL15Mapped(thickness); ll15 != nil {
			return ll15, nil
		}
	}
	return nil, configErrorf("MapSW", "Cannot find crop lower limit or LL15 in soil")
}

func mapWithLastValue(values, fromThickness, toThickness []float64) []float64 {
	if mathutil.AreEqual(fromThickness, toThickness) {
		return mathutil.Clone(values)
	}
	return MapConcentration(values, fromThickness, toThickness, mathutil.LastValue(values), false)
}
