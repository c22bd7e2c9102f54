package soils

import (
	"go.uber.org/zap"

	"apsim-soils/soil-backend/pkg/mathutil"
)

const (
	walkleyBlackToTotal = 1.3
	phCaCl2Slope        = 1.1045
	phCaCl2Intercept    = -0.1375
)

// UnitNormalizer rewrites measured arrays into canonical units: total %
// organic carbon, ppm nitrogen, pH in water and volumetric soil water.
type UnitNormalizer struct {
	logger *zap.Logger
}

// NewUnitNormalizer creates a new unit normalizer
func NewUnitNormalizer(logger *zap.Logger) *UnitNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitNormalizer{logger: logger}
}

// Normalize converts every component of the profile in place.
func (u *UnitNormalizer) Normalize(p *SoilProfile) {
	if om := p.SoilOrganicMatter; om != nil {
		om.OC = OCTotalPercent(om.OC, om.OCUnits)
		om.OCUnits = CarbonTotal
	}

	if n := p.Nitrogen; n != nil {
		bd := p.BDMapped(n.Thickness)
		n.NO3, n.NO3Units = u.toPPM("Nitrogen.NO3", n.NO3, n.Thickness, n.NO3Units, bd)
		n.NH4, n.NH4Units = u.toPPM("Nitrogen.NH4", n.NH4, n.Thickness, n.NH4Units, bd)
	}

	if a := p.Analysis; a != nil {
		a.PH = PHWaterEquivalent(a.PH, a.PHUnits)
		a.PHUnits = PHWater
	}

	for _, s := range p.Samples {
		u.normalizeSample(p, s)
	}
}

func (u *UnitNormalizer) normalizeSample(p *SoilProfile, s *Sample) {
	switch {
	case s.SW == nil || s.SWUnits == WaterVolumetric || s.SWUnits == "":
		s.SWUnits = WaterVolumetric
	case s.SWUnits == WaterGravimetric:
		if bd := p.BDMapped(s.Thickness); bd != nil {
			s.SW = mathutil.Multiply(s.SW, bd)
			s.SWUnits = WaterVolumetric
		} else {
			u.logger.Warn("Cannot convert gravimetric sample water without bulk density",
				zap.String("sample", s.Name))
		}
	case s.SWUnits == WaterMM:
		s.SW = mathutil.Divide(s.SW, s.Thickness)
		s.SWUnits = WaterVolumetric
	}

	if s.NO3 != nil || s.NH4 != nil {
		bd := p.BDMapped(s.Thickness)
		s.NO3, s.NO3Units = u.toPPM("Sample "+s.Name+".NO3", s.NO3, s.Thickness, s.NO3Units, bd)
		s.NH4, s.NH4Units = u.toPPM("Sample "+s.Name+".NH4", s.NH4, s.Thickness, s.NH4Units, bd)
	} else {
		s.NO3Units, s.NH4Units = NitrogenPPM, NitrogenPPM
	}

	s.OC = OCTotalPercent(s.OC, s.OCUnits)
	s.OCUnits = CarbonTotal

	s.PH = PHWaterEquivalent(s.PH, s.PHUnits)
	s.PHUnits = PHWater
}

// toPPM converts nitrogen to ppm. Without bulk density the values and units
// are left untouched.
func (u *UnitNormalizer) toPPM(field string, n, thickness []float64, units NitrogenUnits, bd []float64) ([]float64, NitrogenUnits) {
	if n == nil || units == NitrogenPPM || units == "" {
		return n, NitrogenPPM
	}
	if len(bd) < len(n) || len(thickness) < len(n) {
		u.logger.Warn("Cannot convert nitrogen to ppm without bulk density", zap.String("field", field))
		return n, units
	}
	return NitrogenPPMFromKgHa(n, thickness, bd), NitrogenPPM
}

// NitrogenPPMFromKgHa converts kg/ha to ppm using
// ppm = kg/ha * 100 / (bd * thickness). Missing values stay missing.
func NitrogenPPMFromKgHa(n, thickness, bd []float64) []float64 {
	out := make([]float64, len(n))
	for i, v := range n {
		out[i] = v * 100 / (bd[i] * thickness[i])
	}
	return out
}

// OCTotalPercent converts Walkley-Black organic carbon to total %.
func OCTotalPercent(oc []float64, units CarbonUnits) []float64 {
	if oc == nil || units != CarbonWalkleyBlack {
		return oc
	}
	return mathutil.Scale(oc, walkleyBlackToTotal)
}

// PHWaterEquivalent converts pH measured in CaCl2 to pH in water.
func PHWaterEquivalent(ph []float64, units PHUnits) []float64 {
	if ph == nil || units != PHCaCl2 {
		return ph
	}
	out := make([]float64, len(ph))
	for i, v := range ph {
		out[i] = v*phCaCl2Slope + phCaCl2Intercept
	}
	return out
}
