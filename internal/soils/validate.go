package soils

import (
	"math"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// Validate checks the structural rules every stage relies on: a water
// component with layers, positive thicknesses and per-layer arrays that
// match their component's layer count. Crops without a thickness inherit the
// water layers.
func Validate(p *SoilProfile) error {
	if p == nil {
		return configErrorf("Validate", "Soil profile is empty")
	}
	if p.Water == nil || len(p.Water.Thickness) == 0 {
		return configErrorf("Validate", "Soil %q has no water component thickness", p.Name)
	}

	if err := checkThickness("Water", p.Water.Thickness); err != nil {
		return err
	}
	for _, f := range p.Water.fields() {
		if err := checkLength("Water."+f.name, *f.values, p.Water.Thickness); err != nil {
			return err
		}
	}
	for _, crop := range p.Water.Crops {
		if crop.Thickness == nil {
			crop.Thickness = mathutil.Clone(p.Water.Thickness)
		}
		if err := checkThickness("crop "+crop.Name, crop.Thickness); err != nil {
			return err
		}
		for _, f := range crop.fields() {
			if err := checkLength("crop "+crop.Name+"."+f.name, *f.values, crop.Thickness); err != nil {
				return err
			}
		}
	}

	if p.LayerStructure != nil && p.LayerStructure.Thickness != nil {
		if err := checkThickness("LayerStructure", p.LayerStructure.Thickness); err != nil {
			return err
		}
	}

	if sw := p.SoilWater; sw != nil {
		if err := checkComponent("SoilWater", sw.Thickness, map[string]Values{
			"SWCON": sw.SWCON, "MWCON": sw.MWCON, "KLAT": sw.KLAT,
		}); err != nil {
			return err
		}
	}
	if om := p.SoilOrganicMatter; om != nil {
		if err := checkComponent("SoilOrganicMatter", om.Thickness, map[string]Values{
			"OC": om.OC, "FBiom": om.FBiom, "FInert": om.FInert,
		}); err != nil {
			return err
		}
	}
	if a := p.Analysis; a != nil {
		values := make(map[string]Values)
		for _, f := range a.fields() {
			values[f.name] = *f.values
		}
		if err := checkComponent("Analysis", a.Thickness, values); err != nil {
			return err
		}
	}
	if n := p.Nitrogen; n != nil {
		if err := checkComponent("Nitrogen", n.Thickness, map[string]Values{
			"NO3": n.NO3, "NH4": n.NH4,
		}); err != nil {
			return err
		}
	}
	if ph := p.Phosphorus; ph != nil {
		if err := checkComponent("Phosphorus", ph.Thickness, map[string]Values{
			"LabileP": ph.LabileP, "BandedP": ph.BandedP, "RockP": ph.RockP, "Sorption": ph.Sorption,
		}); err != nil {
			return err
		}
	}
	if st := p.SoilTemperature; st != nil {
		if err := checkComponent("SoilTemperature", st.Thickness, map[string]Values{
			"InitialSoilTemperature": st.InitialSoilTemperature,
		}); err != nil {
			return err
		}
	}

	for i, s := range p.Samples {
		if s == nil {
			return configErrorf("Validate", "Sample %d is empty", i+1)
		}
		if err := checkThickness("sample "+s.Name, s.Thickness); err != nil {
			return err
		}
		// Samples may be shorter than their thickness; they are padded later.
		for _, f := range s.fields() {
			if len(*f.values) > len(s.Thickness) {
				return configErrorf("Validate", "Sample %s has more %s values than layers", s.Name, f.name)
			}
		}
	}
	return nil
}

func checkComponent(name string, thickness Values, values map[string]Values) error {
	if thickness == nil {
		for field, v := range values {
			if v != nil {
				return configErrorf("Validate", "%s.%s has values but the component has no thickness", name, field)
			}
		}
		return nil
	}
	if err := checkThickness(name, thickness); err != nil {
		return err
	}
	for field, v := range values {
		if err := checkLength(name+"."+field, v, thickness); err != nil {
			return err
		}
	}
	return nil
}

func checkThickness(name string, thickness Values) error {
	if len(thickness) == 0 {
		return configErrorf("Validate", "%s has no layers", name)
	}
	for i, th := range thickness {
		if math.IsNaN(th) || th <= 0 {
			return configErrorf("Validate", "%s layer %d has invalid thickness %v", name, i+1, th)
		}
	}
	return nil
}

func checkLength(name string, values, thickness Values) error {
	if values != nil && len(values) != len(thickness) {
		return configErrorf("Validate", "In %s, the number of values (%d) doesn't match the number of thicknesses (%d)",
			name, len(values), len(thickness))
	}
	return nil
}
