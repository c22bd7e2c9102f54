package soils

import (
	"math"

	"go.uber.org/zap"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// Remapper brings every component of a profile onto one layer structure.
type Remapper struct {
	logger *zap.Logger
}

// NewRemapper creates a new layer remapper
func NewRemapper(logger *zap.Logger) *Remapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remapper{logger: logger}
}

// TargetThickness is the layer structure Standardise maps onto: the layer
// structure override when present, otherwise the water layers.
func TargetThickness(p *SoilProfile) []float64 {
	if p.LayerStructure != nil && len(p.LayerStructure.Thickness) > 0 {
		return mathutil.Clone(p.LayerStructure.Thickness)
	}
	return mathutil.Clone(p.Water.Thickness)
}

// Standardise maps every component and sample onto the target thickness.
// Components already on the target keep their layers, but gaps in their
// arrays are filled the same way a remap would fill them.
func (r *Remapper) Standardise(p *SoilProfile) error {
	to := TargetThickness(p)

	if err := r.setWaterThickness(p, to); err != nil {
		return err
	}
	r.setSoilWaterThickness(p.SoilWater, to)
	r.setSoilOrganicMatterThickness(p.SoilOrganicMatter, to)
	r.setAnalysisThickness(p.Analysis, to)
	r.setNitrogenThickness(p, p.Nitrogen, to)
	r.setPhosphorusThickness(p.Phosphorus, to)
	r.setSoilTemperatureThickness(p.SoilTemperature, to)

	for _, s := range p.Samples {
		if err := r.setSampleThickness(p, s, to); err != nil {
			return err
		}
	}
	return nil
}

func (r *Remapper) setWaterThickness(p *SoilProfile, to []float64) error {
	w := p.Water
	if !mathutil.AreEqual(to, w.Thickness) {
		r.logger.Debug("Mapping water component",
			zap.Int("from_layers", len(w.Thickness)), zap.Int("to_layers", len(to)))

		// SW first: its lower bound reads LL15 on the original layers.
		sw, err := MapSW(w.SW, w.Thickness, to, p)
		if err != nil {
			return err
		}
		for _, f := range w.fields() {
			if f.name == "SW" {
				continue
			}
			mapField(f, w.Thickness, to)
		}
		w.SW = sw
		w.Thickness = to
	}

	if mathutil.HasValues(w.SW) {
		w.SW = mathutil.ReplaceMissingFrom(w.SW, w.LL15)
	}
	for _, f := range w.fields() {
		fillGaps(f)
	}

	for _, crop := range w.Crops {
		if !mathutil.AreEqual(to, crop.Thickness) {
			r.logger.Debug("Mapping crop", zap.String("crop", crop.Name))
			for _, f := range crop.fields() {
				mapField(f, crop.Thickness, to)
			}
			crop.Thickness = mathutil.Clone(to)
		}
		crop.LL = mathutil.Constrain(crop.LL, w.AirDry, w.DUL)
	}
	return nil
}

func (r *Remapper) setSoilWaterThickness(sw *SoilWater, to []float64) {
	if sw == nil || sw.Thickness == nil {
		return
	}
	if !mathutil.AreEqual(to, sw.Thickness) {
		sw.KLAT = MapConcentration(sw.KLAT, sw.Thickness, to, mathutil.LastValue(sw.KLAT), false)
		sw.MWCON = MapConcentration(sw.MWCON, sw.Thickness, to, mathutil.LastValue(sw.MWCON), false)
		sw.SWCON = MapConcentration(sw.SWCON, sw.Thickness, to, 0.0, false)
		sw.Thickness = mathutil.Clone(to)
	}
	sw.SWCON = mathutil.ReplaceMissing(sw.SWCON, 0.0)
	fillGaps(layerField{"KLAT", &sw.KLAT, nil})
	fillGaps(layerField{"MWCON", &sw.MWCON, nil})
}

func (r *Remapper) setSoilOrganicMatterThickness(om *SoilOrganicMatter, to []float64) {
	if om == nil || om.Thickness == nil {
		return
	}
	if !mathutil.AreEqual(to, om.Thickness) {
		om.FBiom = MapConcentration(om.FBiom, om.Thickness, to, mathutil.LastValue(om.FBiom), false)
		om.FInert = MapConcentration(om.FInert, om.Thickness, to, mathutil.LastValue(om.FInert), false)
		om.OC = MapConcentration(om.OC, om.Thickness, to, mathutil.LastValue(om.OC), false)
		if om.OC != nil {
			om.OCMetadata = provenanceArray(ProvenanceMapped, len(to))
		}
		om.Thickness = mathutil.Clone(to)
	}
	om.FBiom = mathutil.ReplaceMissing(om.FBiom, mathutil.LastValue(om.FBiom))
	om.FInert = mathutil.ReplaceMissing(om.FInert, mathutil.LastValue(om.FInert))
	om.OC = mathutil.ReplaceMissing(om.OC, mathutil.LastValue(om.OC))
}

// Analysis fields the defaults stage fills with fixed values.
var analysisDefaulted = map[string]bool{"CL": true, "EC": true, "ESP": true, "PH": true}

func (r *Remapper) setAnalysisThickness(a *Analysis, to []float64) {
	if a == nil || a.Thickness == nil {
		return
	}
	if !mathutil.AreEqual(to, a.Thickness) {
		for _, f := range a.fields() {
			mapField(f, a.Thickness, to)
		}
		a.Texture = nil
		a.MunsellColour = nil
		a.Thickness = mathutil.Clone(to)
	}
	for _, f := range a.fields() {
		if !analysisDefaulted[f.name] {
			fillGaps(f)
		}
	}
}

// setNitrogenThickness maps NO3 and NH4 as masses weighted by bulk density,
// falling back to a plain concentration remap when bulk density is missing.
func (r *Remapper) setNitrogenThickness(p *SoilProfile, n *Nitrogen, to []float64) {
	if n == nil || n.Thickness == nil {
		return
	}
	if !mathutil.AreEqual(to, n.Thickness) {
		n.NO3 = mapNitrogen(p, n.NO3, n.Thickness, to)
		n.NH4 = mapNitrogen(p, n.NH4, n.Thickness, to)
		n.Thickness = mathutil.Clone(to)
	}
	fillGaps(layerField{"NO3", &n.NO3, nil})
	fillGaps(layerField{"NH4", &n.NH4, nil})
}

func mapNitrogen(p *SoilProfile, values, from, to []float64) []float64 {
	if values == nil {
		return nil
	}
	below := mathutil.LastValue(values)
	n := 0
	for n < len(values) && n < len(from) && !mathutil.IsMissing(values[n]) {
		n++
	}
	if out := MapUsingBD(values[:n], from[:n], to, p, below); out != nil && !mathutil.HasMissing(out) {
		return out
	}
	return MapConcentration(values, from, to, below, false)
}

func (r *Remapper) setPhosphorusThickness(ph *Phosphorus, to []float64) {
	if ph == nil || ph.Thickness == nil {
		return
	}
	if !mathutil.AreEqual(to, ph.Thickness) {
		ph.BandedP = MapConcentration(ph.BandedP, ph.Thickness, to, mathutil.LastValue(ph.BandedP), false)
		ph.LabileP = MapConcentration(ph.LabileP, ph.Thickness, to, mathutil.LastValue(ph.LabileP), false)
		ph.RockP = MapConcentration(ph.RockP, ph.Thickness, to, mathutil.LastValue(ph.RockP), false)
		ph.Sorption = MapConcentration(ph.Sorption, ph.Thickness, to, mathutil.LastValue(ph.Sorption), false)
		ph.Thickness = mathutil.Clone(to)
	}
	fillGaps(layerField{"BandedP", &ph.BandedP, nil})
	fillGaps(layerField{"LabileP", &ph.LabileP, nil})
	fillGaps(layerField{"RockP", &ph.RockP, nil})
	fillGaps(layerField{"Sorption", &ph.Sorption, nil})
}

func (r *Remapper) setSoilTemperatureThickness(st *SoilTemperature, to []float64) {
	if st == nil || st.Thickness == nil {
		return
	}
	if !mathutil.AreEqual(to, st.Thickness) {
		st.InitialSoilTemperature = MapConcentration(st.InitialSoilTemperature, st.Thickness, to,
			mathutil.LastValue(st.InitialSoilTemperature), false)
		st.Thickness = mathutil.Clone(to)
	}
	fillGaps(layerField{"InitialSoilTemperature", &st.InitialSoilTemperature, nil})
}

// setSampleThickness keeps chemistry missing below the sample so the overlay
// can tell unsampled depths from measured ones.
func (r *Remapper) setSampleThickness(p *SoilProfile, s *Sample, to []float64) error {
	if mathutil.AreEqual(to, s.Thickness) {
		return nil
	}
	r.logger.Debug("Mapping sample", zap.String("sample", s.Name))

	sw, err := MapSW(s.SW, s.Thickness, to, p)
	if err != nil {
		return err
	}
	s.SW = sw
	s.NH4 = MapConcentration(s.NH4, s.Thickness, to, 0.01, false)
	s.NO3 = MapConcentration(s.NO3, s.Thickness, to, 0.01, false)
	s.CL = mapAllowingMissing(s.CL, s.Thickness, to)
	s.EC = mapAllowingMissing(s.EC, s.Thickness, to)
	s.ESP = mapAllowingMissing(s.ESP, s.Thickness, to)
	s.OC = mapAllowingMissing(s.OC, s.Thickness, to)
	s.PH = mapAllowingMissing(s.PH, s.Thickness, to)
	s.Thickness = mathutil.Clone(to)
	return nil
}

func mapAllowingMissing(values, from, to []float64) []float64 {
	return MapConcentration(values, from, to, math.NaN(), true)
}

// fillGaps sets each missing cell of an array to its deepest value and tags
// it as estimated. Arrays without any value are left alone.
func fillGaps(f layerField) {
	values := *f.values
	if !mathutil.HasMissing(values) || !mathutil.HasValues(values) {
		return
	}
	last := mathutil.LastValue(values)
	out := mathutil.Clone(values)
	for i := range out {
		if mathutil.IsMissing(out[i]) {
			out[i] = last
			if f.metadata != nil {
				setProvenance(f.metadata, len(out), i, ProvenanceEstimated)
			}
		}
	}
	*f.values = out
}

// mapField maps one array with its last value as the below-profile default
// and marks the result as mapped.
func mapField(f layerField, from, to []float64) {
	if *f.values == nil {
		return
	}
	*f.values = MapConcentration(*f.values, from, to, mathutil.LastValue(*f.values), false)
	if f.metadata != nil {
		*f.metadata = provenanceArray(ProvenanceMapped, len(to))
	}
}
