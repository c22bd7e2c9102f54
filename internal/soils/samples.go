package soils

import (
	"math"

	"go.uber.org/zap"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// defaultNitrogen fills sample nitrogen cells that are still missing.
const defaultNitrogen = 0.01

// SampleOverlay folds samples into the profile and then discards them.
type SampleOverlay struct {
	logger *zap.Logger
}

// NewSampleOverlay creates a new sample overlay engine
func NewSampleOverlay(logger *zap.Logger) *SampleOverlay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampleOverlay{logger: logger}
}

// RemoveSamples folds every sample into the profile in order, later samples
// winning, then clears the sample list. Each sample must already be on the
// water layer structure.
func (o *SampleOverlay) RemoveSamples(p *SoilProfile) error {
	for _, s := range p.Samples {
		if !mathutil.AreEqual(s.Thickness, p.Water.Thickness) {
			return configErrorf("RemoveSamples", "Cannot fold a sample into the Water component. Thicknesses are different.")
		}
		o.logger.Debug("Folding sample", zap.String("sample", s.Name), zap.String("date", s.Date))

		if s.SW != nil {
			p.Water.SW = mathutil.Clone(s.SW)
		}

		if s.NO3 != nil || s.NH4 != nil {
			if p.Nitrogen == nil {
				p.Nitrogen = &Nitrogen{
					Thickness: mathutil.Clone(s.Thickness),
					NO3Units:  NitrogenPPM,
					NH4Units:  NitrogenPPM,
				}
			}
			if s.NO3 != nil {
				p.Nitrogen.NO3 = mathutil.ReplaceMissing(s.NO3, defaultNitrogen)
			}
			if s.NH4 != nil {
				p.Nitrogen.NH4 = mathutil.ReplaceMissing(s.NH4, defaultNitrogen)
			}
		}

		if s.OC != nil {
			if p.SoilOrganicMatter == nil {
				p.SoilOrganicMatter = &SoilOrganicMatter{OCUnits: CarbonTotal}
			}
			om := p.SoilOrganicMatter
			if om.Thickness == nil {
				om.Thickness = mathutil.Clone(s.Thickness)
			}
			o.overlay("OC", s.OC, s.Thickness, &om.OC, &om.OCMetadata, &om.Thickness, defaultSampleOC)
		}

		if s.PH != nil || s.ESP != nil || s.EC != nil || s.CL != nil {
			if p.Analysis == nil {
				p.Analysis = &Analysis{PHUnits: PHWater}
			}
			a := p.Analysis
			if a.Thickness == nil {
				a.Thickness = mathutil.Clone(s.Thickness)
			}
			if s.PH != nil {
				o.overlay("PH", s.PH, s.Thickness, &a.PH, &a.PHMetadata, &a.Thickness, defaultPH)
			}
			if s.ESP != nil {
				o.overlay("ESP", s.ESP, s.Thickness, &a.ESP, &a.ESPMetadata, &a.Thickness, 0)
			}
			if s.EC != nil {
				o.overlay("EC", s.EC, s.Thickness, &a.EC, &a.ECMetadata, &a.Thickness, 0)
			}
			if s.CL != nil {
				o.overlay("CL", s.CL, s.Thickness, &a.CL, &a.CLMetadata, &a.Thickness, 0)
			}
		}
	}

	p.Samples = nil
	return nil
}

// overlay folds one sample field into a component array. Cells the sample
// and the component both lack take def.
func (o *SampleOverlay) overlay(field string, sample, sampleThickness []float64, values *Values, metadata *[]Provenance, thickness *Values, def float64) {
	out, outThickness, ok := OverlaySample(sample, sampleThickness, *values, *thickness, def)
	if !ok {
		o.logger.Debug("Sample has no values to overlay", zap.String("field", field))
		return
	}
	*metadata = overlayProvenance(out, sample, *values, *metadata)
	*values = out
	*thickness = outThickness
}

// overlayProvenance tags cells taken from the sample as measured, cells the
// component kept with the component's own tag, and the rest as estimated.
func overlayProvenance(out, sample, values []float64, metadata []Provenance) []Provenance {
	tags := make([]Provenance, len(out))
	for i := range out {
		switch {
		case i < len(sample) && !mathutil.IsMissing(sample[i]) && out[i] == sample[i]:
			tags[i] = ProvenanceMeasured
		case i < len(values) && !mathutil.IsMissing(values[i]) && out[i] == values[i]:
			if i < len(metadata) {
				tags[i] = metadata[i]
			}
		default:
			tags[i] = ProvenanceEstimated
		}
	}
	return tags
}

// OverlaySample lays sample values over a component's values. Where the
// sample is missing the component keeps its own value. The result is on the
// component's layer structure, or on the sample's when the component has
// none. ok is false when the sample has no values, in which case the
// component is returned unchanged.
func OverlaySample(sample, sampleThickness, values, thickness []float64, belowProfileDefault float64) (out, outThickness []float64, ok bool) {
	if !mathutil.HasValues(sample) {
		return values, thickness, false
	}

	merged, mergedThickness := InFillValues(sample, sampleThickness, values, thickness)
	if thickness != nil && !mathutil.AreEqual(mergedThickness, thickness) {
		merged = MapConcentration(merged, mergedThickness, thickness, belowProfileDefault, true)
		mergedThickness = thickness
	}
	merged = mathutil.ReplaceMissingFrom(merged, values)
	merged = mathutil.ReplaceMissing(merged, belowProfileDefault)
	return merged, mathutil.Clone(mergedThickness), true
}

// InFillValues trims missing values off the bottom of a sample and extends
// it with the component's own values, adding a layer at each component
// boundary below the sample so both reach the same depth. Missing component
// values stay missing.
func InFillValues(sample, sampleThickness, values, thickness []float64) ([]float64, []float64) {
	n := len(sample)
	if len(sampleThickness) < n {
		n = len(sampleThickness)
	}
	for n > 0 && mathutil.IsMissing(sample[n-1]) {
		n--
	}
	outValues := mathutil.Clone(sample[:n])
	outThickness := mathutil.Clone(sampleThickness[:n])
	if values == nil || thickness == nil {
		return outValues, outThickness
	}

	sampleDepth := mathutil.Sum(outThickness)
	soilDepth := 0.0
	for i, th := range thickness {
		soilDepth += th
		if soilDepth > sampleDepth {
			v := math.NaN()
			if i < len(values) {
				v = values[i]
			}
			outThickness = append(outThickness, soilDepth-sampleDepth)
			outValues = append(outValues, v)
			sampleDepth = soilDepth
		}
	}
	return outValues, outThickness
}
