package soils

import (
	"math"

	"apsim-soils/soil-backend/pkg/mathutil"
)

// SW computes volumetric soil water on the water layers. Water is measured
// from the lower limit of the RelativeTo crop, or from LL15 when RelativeTo
// names no crop.
func (iw *InitialWater) SW(p *SoilProfile) ([]float64, error) {
	w := p.Water
	if w == nil || w.DUL == nil {
		return nil, configErrorf("InitialWater", "Cannot compute initial water: DUL is missing")
	}

	var ll, xf, pawc []float64
	crop := w.Crop(iw.RelativeTo)
	if iw.RelativeTo != "" && crop != nil && crop.LL != nil {
		ll = crop.LLMapped(w.Thickness)
		xf = mapWithLastValue(crop.XF, crop.Thickness, w.Thickness)
		pawc = PAWCCrop(p, crop)
	} else {
		if w.LL15 == nil {
			return nil, configErrorf("InitialWater", "Cannot compute initial water: LL15 is missing")
		}
		ll = w.LL15
		pawc = PAWC(p)
	}

	if iw.DepthWetSoil != nil {
		return swDepthWetSoil(*iw.DepthWetSoil, w.Thickness, ll, w.DUL), nil
	}
	if iw.PercentMethod == EvenlyDistributed {
		return swEvenlyDistributed(iw.FractionFull, ll, w.DUL), nil
	}
	return swFilledFromTop(iw.FractionFull, pawc, ll, w.DUL, xf), nil
}

func swFilledFromTop(fractionFull float64, pawc, ll, dul, xf []float64) []float64 {
	sw := make([]float64, len(ll))
	amount := mathutil.Sum(pawc) * fractionFull
	for i := range ll {
		switch {
		case amount >= 0 && i < len(xf) && xf[i] == 0:
			sw[i] = ll[i]
		case amount >= pawc[i]:
			sw[i] = dul[i]
			amount -= pawc[i]
		default:
			prop := 0.0
			if pawc[i] > 0 {
				prop = amount / pawc[i]
			}
			sw[i] = prop*(dul[i]-ll[i]) + ll[i]
			amount = 0
		}
	}
	return sw
}

func swEvenlyDistributed(fractionFull float64, ll, dul []float64) []float64 {
	sw := make([]float64, len(ll))
	for i := range ll {
		sw[i] = fractionFull*(dul[i]-ll[i]) + ll[i]
	}
	return sw
}

func swDepthWetSoil(depthWetSoil float64, thickness, ll, dul []float64) []float64 {
	sw := make([]float64, len(ll))
	depth := 0.0
	for i := range ll {
		if depthWetSoil > depth+thickness[i] {
			sw[i] = dul[i]
		} else {
			prop := math.Max(depthWetSoil-depth, 0) / thickness[i]
			sw[i] = prop*(dul[i]-ll[i]) + ll[i]
		}
		depth += thickness[i]
	}
	return sw
}

// PAWC is the plant available water capacity (mm) of each water layer
// relative to LL15.
func PAWC(p *SoilProfile) []float64 {
	w := p.Water
	return pawcmm(w.Thickness, w.LL15, w.DUL, nil)
}

// PAWCCrop is the plant available water capacity (mm) of each water layer
// for one crop. Layers the crop cannot explore hold none.
func PAWCCrop(p *SoilProfile, crop *SoilCrop) []float64 {
	w := p.Water
	ll := crop.LLMapped(w.Thickness)
	xf := mapWithLastValue(crop.XF, crop.Thickness, w.Thickness)
	return pawcmm(w.Thickness, ll, w.DUL, xf)
}

func pawcmm(thickness, ll, dul, xf []float64) []float64 {
	if ll == nil || dul == nil {
		return nil
	}
	out := make([]float64, len(thickness))
	for i := range thickness {
		if i >= len(ll) || i >= len(dul) {
			break
		}
		if i < len(xf) && xf[i] == 0 {
			continue
		}
		if v := (dul[i] - ll[i]) * thickness[i]; v > 0 {
			out[i] = v
		}
	}
	return out
}

// RemoveInitialWater folds the initial water into Water.SW. Initial water
// takes priority over sampled water, so sample SW is dropped.
func RemoveInitialWater(p *SoilProfile) error {
	if p.InitialWater != nil {
		sw, err := p.InitialWater.SW(p)
		if err != nil {
			return err
		}
		p.Water.SW = sw
		for _, s := range p.Samples {
			s.SW = nil
		}
	}
	p.InitialWater = nil
	return nil
}
