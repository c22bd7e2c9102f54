package soils

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// Defaults applied to cells that are still missing after remapping.
const (
	defaultPH        = 7.0
	defaultSampleNO3 = 1.0
	defaultSampleNH4 = 0.1
	defaultSampleOC  = 0.5
	defaultXF        = 1.0
)

// DefaultsEstimator fills the gaps left in a standardised profile.
type DefaultsEstimator struct {
	logger *zap.Logger
}

// NewDefaultsEstimator creates a new defaults estimator
func NewDefaultsEstimator(logger *zap.Logger) *DefaultsEstimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultsEstimator{logger: logger}
}

// FillInMissingValues applies, in order: predicted crops for vertosols,
// analysis defaults, per-crop XF/KL/LL gap filling and sample gap filling.
// Arrays left without a single value are then dropped.
func (d *DefaultsEstimator) FillInMissingValues(p *SoilProfile) error {
	d.addPredictedCrops(p)
	checkAnalysisForMissingValues(p.Analysis)

	for _, crop := range p.Water.Crops {
		if strings.TrimSpace(crop.Name) == "" {
			return configErrorf("FillInMissingValues", "Crop has no name")
		}
		n := len(crop.Thickness)
		if crop.XF == nil {
			crop.XF = mathutil.Fill(n, defaultXF)
			crop.XFMetadata = provenanceArray(ProvenanceEstimated, n)
		}
		if crop.KL == nil {
			d.fillInKLForCrop(crop)
		}
		checkCropForMissingValues(p, crop)
	}

	for _, s := range p.Samples {
		checkSampleForMissingValues(p, s)
	}
	clearUnmeasured(p)
	return nil
}

// clearUnmeasured sets every component array holding no value to nil,
// together with its provenance.
func clearUnmeasured(p *SoilProfile) {
	for _, f := range componentFields(p) {
		if *f.values != nil && !mathutil.HasValues(*f.values) {
			*f.values = nil
			if f.metadata != nil {
				*f.metadata = nil
			}
		}
	}
}

// componentFields lists the per-layer arrays of every component present.
// Samples are not included.
func componentFields(p *SoilProfile) []layerField {
	var fields []layerField
	fields = append(fields, p.Water.fields()...)
	for _, crop := range p.Water.Crops {
		fields = append(fields, crop.fields()...)
	}
	if sw := p.SoilWater; sw != nil {
		fields = append(fields,
			layerField{"SWCON", &sw.SWCON, nil},
			layerField{"MWCON", &sw.MWCON, nil},
			layerField{"KLAT", &sw.KLAT, nil})
	}
	if om := p.SoilOrganicMatter; om != nil {
		fields = append(fields,
			layerField{"OC", &om.OC, &om.OCMetadata},
			layerField{"FBiom", &om.FBiom, nil},
			layerField{"FInert", &om.FInert, nil})
	}
	if p.Analysis != nil {
		fields = append(fields, p.Analysis.fields()...)
	}
	if n := p.Nitrogen; n != nil {
		fields = append(fields, layerField{"NO3", &n.NO3, nil}, layerField{"NH4", &n.NH4, nil})
	}
	if ph := p.Phosphorus; ph != nil {
		fields = append(fields,
			layerField{"BandedP", &ph.BandedP, nil},
			layerField{"LabileP", &ph.LabileP, nil},
			layerField{"RockP", &ph.RockP, nil},
			layerField{"Sorption", &ph.Sorption, nil})
	}
	if st := p.SoilTemperature; st != nil {
		fields = append(fields, layerField{"InitialSoilTemperature", &st.InitialSoilTemperature, nil})
	}
	return fields
}

// fillInKLForCrop interpolates the generic KL table at the bottom of each
// crop layer. Crops missing from the table keep no KL.
func (d *DefaultsEstimator) fillInKLForCrop(crop *SoilCrop) {
	table, ok := DefaultKLTable(crop.Name)
	if !ok {
		d.logger.Warn("No default KL for crop", zap.String("crop", crop.Name))
		return
	}
	crop.KL = mathutil.InterpolateAt(mathutil.CumThickness(crop.Thickness), defaultKLDepths, table)
	crop.KLMetadata = provenanceArray(ProvenanceEstimated, len(crop.Thickness))
}

func (d *DefaultsEstimator) addPredictedCrops(p *SoilProfile) {
	set, ok := predictedCropsFor(p.SoilType)
	if !ok {
		return
	}
	for _, name := range set.crops {
		if p.Water.Crop(name) != nil {
			continue
		}
		crop := predictedCrop(p, name, set.coeff[strings.ToLower(name)])
		if crop == nil {
			d.logger.Debug("Cannot predict crop without LL15 and DUL", zap.String("crop", name))
			continue
		}
		d.logger.Debug("Added predicted crop", zap.String("crop", name), zap.String("soil_type", p.SoilType))
		p.Water.Crops = append(p.Water.Crops, crop)
	}
}

func predictedCrop(p *SoilProfile, name string, reg llRegression) *SoilCrop {
	ll := predictedLL(p, reg.A, reg.B)
	if ll == nil {
		return nil
	}

	to := p.Water.Thickness
	ll = MapConcentration(ll, predictedThickness, to, mathutil.LastValue(ll), false)
	ll = mathutil.Constrain(ll, p.Water.LL15, p.Water.DUL)
	n := len(to)

	return &SoilCrop{
		Name:       name,
		Thickness:  mathutil.Clone(to),
		LL:         ll,
		KL:         MapConcentration(reg.KL, predictedThickness, to, mathutil.LastValue(reg.KL), false),
		XF:         MapConcentration(predictedXF, predictedThickness, to, mathutil.LastValue(predictedXF), false),
		LLMetadata: provenanceArray(ProvenanceEstimated, n),
		KLMetadata: provenanceArray(ProvenanceEstimated, n),
		XFMetadata: provenanceArray(ProvenanceEstimated, n),
	}
}

// predictedLL applies the DUL regression on the predicted layer structure.
// The top three layers follow LL15.
func predictedLL(p *SoilProfile, a []float64, b float64) []float64 {
	ll15 := p.LL15Mapped(predictedThickness)
	dul := p.DULMapped(predictedThickness)
	if ll15 == nil || dul == nil {
		return nil
	}

	ll := make([]float64, len(predictedThickness))
	for i := range ll {
		dulPercent := dul[i] * 100
		v := dulPercent * (a[i] + b*dulPercent) / 100
		v = math.Max(v, ll15[i])
		ll[i] = math.Min(v, dul[i])
	}
	copy(ll[:3], ll15[:3])
	return ll
}

func checkAnalysisForMissingValues(a *Analysis) {
	if a == nil {
		return
	}
	fillMissing(a.CL, &a.CLMetadata, 0)
	fillMissing(a.EC, &a.ECMetadata, 0)
	fillMissing(a.ESP, &a.ESPMetadata, 0)
	fillMissing(a.PH, &a.PHMetadata, defaultPH)
}

func checkCropForMissingValues(p *SoilProfile, crop *SoilCrop) {
	if mathutil.HasMissing(crop.LL) {
		ll15 := p.LL15Mapped(crop.Thickness)
		for i := range crop.LL {
			if mathutil.IsMissing(crop.LL[i]) && i < len(ll15) {
				crop.LL[i] = ll15[i]
				setProvenance(&crop.LLMetadata, len(crop.LL), i, ProvenanceEstimated)
			}
		}
	}
	fillMissing(crop.KL, &crop.KLMetadata, 0)
	fillMissing(crop.XF, &crop.XFMetadata, 0)
}

// checkSampleForMissingValues drops fields that were never measured, pads
// the rest to the sample's layer count and fills water and nitrogen gaps.
// Chemistry gaps stay missing so the overlay can keep the profile's own
// values there. A pH or OC of exactly zero counts as unset.
func checkSampleForMissingValues(p *SoilProfile, s *Sample) {
	s.PH = zeroAsMissing(s.PH)
	s.OC = zeroAsMissing(s.OC)
	for _, f := range s.fields() {
		if !mathutil.HasValues(*f.values) {
			*f.values = nil
		}
	}

	n := len(s.Thickness)
	for _, f := range s.fields() {
		*f.values = mathutil.FixLength(*f.values, n)
	}

	if mathutil.HasMissing(s.SW) {
		s.SW = mathutil.ReplaceMissingFrom(s.SW, p.LL15Mapped(s.Thickness))
	}
	s.NO3 = mathutil.ReplaceMissing(s.NO3, defaultSampleNO3)
	s.NH4 = mathutil.ReplaceMissing(s.NH4, defaultSampleNH4)
}

func zeroAsMissing(values []float64) []float64 {
	out := mathutil.Clone(values)
	for i := range out {
		if out[i] == 0 {
			out[i] = math.NaN()
		}
	}
	return out
}

// fillMissing sets missing cells to v in place and tags them as estimated.
func fillMissing(values Values, metadata *[]Provenance, v float64) {
	for i := range values {
		if mathutil.IsMissing(values[i]) {
			values[i] = v
			setProvenance(metadata, len(values), i, ProvenanceEstimated)
		}
	}
}

func setProvenance(metadata *[]Provenance, n, i int, p Provenance) {
	if len(*metadata) != n {
		fixed := make([]Provenance, n)
		copy(fixed, *metadata)
		*metadata = fixed
	}
	(*metadata)[i] = p
}
