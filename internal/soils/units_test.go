package soils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOCTotalPercent(t *testing.T) {
	assert.InDeltaSlice(t, []float64{2.6}, OCTotalPercent([]float64{2.0}, CarbonWalkleyBlack), 1e-9)
	assert.Equal(t, []float64{2.0}, OCTotalPercent([]float64{2.0}, CarbonTotal))
	assert.Nil(t, OCTotalPercent(nil, CarbonWalkleyBlack))
}

func TestPHWaterEquivalent(t *testing.T) {
	out := PHWaterEquivalent([]float64{7.0, math.NaN()}, PHCaCl2)

	require.Len(t, out, 2)
	assert.InDelta(t, 7.0*1.1045-0.1375, out[0], 1e-9)
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, []float64{6.5}, PHWaterEquivalent([]float64{6.5}, PHWater))
}

func TestNitrogenPPMFromKgHa(t *testing.T) {
	out := NitrogenPPMFromKgHa([]float64{50, math.NaN()}, []float64{100, 100}, []float64{1.3, 1.3})

	require.Len(t, out, 2)
	assert.InDelta(t, 38.4615, out[0], 1e-4)
	assert.True(t, math.IsNaN(out[1]))
}

func TestUnitNormalizer_Normalize(t *testing.T) {
	p := &SoilProfile{
		Name: "units",
		Water: &Water{
			Thickness: Values{100, 200},
			BD:        Values{1.3, 1.4},
		},
		SoilOrganicMatter: &SoilOrganicMatter{
			Thickness: Values{100, 200},
			OC:        Values{2.0, 1.0},
			OCUnits:   CarbonWalkleyBlack,
		},
		Nitrogen: &Nitrogen{
			Thickness: Values{100, 200},
			NO3:       Values{50, 28},
			NO3Units:  NitrogenKgHa,
			NH4:       Values{1, 1},
		},
		Analysis: &Analysis{
			Thickness: Values{100, 200},
			PH:        Values{7.0, 8.0},
			PHUnits:   PHCaCl2,
		},
	}

	NewUnitNormalizer(nil).Normalize(p)

	assert.InDeltaSlice(t, []float64{2.6, 1.3}, p.SoilOrganicMatter.OC, 1e-9)
	assert.Equal(t, CarbonTotal, p.SoilOrganicMatter.OCUnits)

	assert.InDeltaSlice(t, []float64{50 * 100 / (1.3 * 100), 28 * 100 / (1.4 * 200)}, p.Nitrogen.NO3, 1e-9)
	assert.Equal(t, NitrogenPPM, p.Nitrogen.NO3Units)
	assert.Equal(t, Values{1, 1}, p.Nitrogen.NH4)
	assert.Equal(t, NitrogenPPM, p.Nitrogen.NH4Units)

	assert.InDeltaSlice(t, []float64{7.0*1.1045 - 0.1375, 8.0*1.1045 - 0.1375}, p.Analysis.PH, 1e-9)
	assert.Equal(t, PHWater, p.Analysis.PHUnits)
}

func TestUnitNormalizer_IsFixedPoint(t *testing.T) {
	p := &SoilProfile{
		Water: &Water{Thickness: Values{100}, BD: Values{1.3}},
		SoilOrganicMatter: &SoilOrganicMatter{
			Thickness: Values{100}, OC: Values{2.0}, OCUnits: CarbonWalkleyBlack,
		},
		Nitrogen: &Nitrogen{Thickness: Values{100}, NO3: Values{50}, NO3Units: NitrogenKgHa},
		Analysis: &Analysis{Thickness: Values{100}, PH: Values{7}, PHUnits: PHCaCl2},
		Samples: []*Sample{
			{Thickness: Values{100}, SW: Values{20}, SWUnits: WaterMM, PH: Values{6}, PHUnits: PHCaCl2},
		},
	}
	n := NewUnitNormalizer(nil)
	n.Normalize(p)

	once, err := p.Clone()
	require.NoError(t, err)
	n.Normalize(p)

	assert.Equal(t, once, p)
}

func TestUnitNormalizer_MissingBulkDensity(t *testing.T) {
	p := &SoilProfile{
		Water:    &Water{Thickness: Values{100}},
		Nitrogen: &Nitrogen{Thickness: Values{100}, NO3: Values{50}, NO3Units: NitrogenKgHa},
		Samples: []*Sample{
			{Name: "s1", Thickness: Values{100}, SW: Values{0.2}, SWUnits: WaterGravimetric},
		},
	}

	NewUnitNormalizer(nil).Normalize(p)

	assert.Equal(t, Values{50}, p.Nitrogen.NO3)
	assert.Equal(t, NitrogenKgHa, p.Nitrogen.NO3Units)
	assert.Equal(t, Values{0.2}, p.Samples[0].SW)
	assert.Equal(t, WaterGravimetric, p.Samples[0].SWUnits)
}

func TestUnitNormalizer_SampleWater(t *testing.T) {
	tests := []struct {
		name  string
		sw    Values
		units WaterUnits
		want  []float64
	}{
		{"volumetric", Values{0.3, 0.25}, WaterVolumetric, []float64{0.3, 0.25}},
		{"unset units", Values{0.3, 0.25}, "", []float64{0.3, 0.25}},
		{"gravimetric", Values{0.2, 0.2}, WaterGravimetric, []float64{0.2 * 1.2, 0.2 * 1.5}},
		{"mm", Values{30, 50}, WaterMM, []float64{0.3, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &SoilProfile{
				Water: &Water{Thickness: Values{100, 200}, BD: Values{1.2, 1.5}},
				Samples: []*Sample{
					{Thickness: Values{100, 200}, SW: tt.sw, SWUnits: tt.units},
				},
			}

			NewUnitNormalizer(nil).Normalize(p)

			assert.InDeltaSlice(t, tt.want, p.Samples[0].SW, 1e-9)
			assert.Equal(t, WaterVolumetric, p.Samples[0].SWUnits)
		})
	}
}

func TestUnitNormalizer_SampleChemistry(t *testing.T) {
	p := &SoilProfile{
		Water: &Water{Thickness: Values{100}, BD: Values{1.3}},
		Samples: []*Sample{
			{
				Thickness: Values{100},
				NO3:       Values{50},
				NO3Units:  NitrogenKgHa,
				OC:        Values{1.0},
				OCUnits:   CarbonWalkleyBlack,
				PH:        Values{7.0},
				PHUnits:   PHCaCl2,
			},
		},
	}

	NewUnitNormalizer(nil).Normalize(p)

	s := p.Samples[0]
	assert.InDeltaSlice(t, []float64{38.4615}, s.NO3, 1e-4)
	assert.Equal(t, NitrogenPPM, s.NO3Units)
	assert.Equal(t, NitrogenPPM, s.NH4Units)
	assert.InDeltaSlice(t, []float64{1.3}, s.OC, 1e-9)
	assert.Equal(t, CarbonTotal, s.OCUnits)
	assert.InDeltaSlice(t, []float64{7.594}, s.PH, 1e-9)
	assert.Equal(t, PHWater, s.PHUnits)
}
