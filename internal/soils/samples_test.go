package soils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFillValues(t *testing.T) {
	values, thickness := InFillValues(
		[]float64{1, 2, math.NaN()}, []float64{100, 100, 100},
		[]float64{5, 6, 7, 8}, []float64{150, 150, 300, 300},
	)

	assert.Equal(t, []float64{100, 100, 100, 300, 300}, thickness)
	assert.Equal(t, []float64{1, 2, 6, 7, 8}, values)
}

func TestInFillValues_KeepsMissingComponentValues(t *testing.T) {
	values, thickness := InFillValues(
		[]float64{1}, []float64{100},
		[]float64{5, math.NaN()}, []float64{100, 100},
	)

	assert.Equal(t, []float64{100, 100}, thickness)
	require.Len(t, values, 2)
	assert.Equal(t, 1.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
}

func TestInFillValues_NoComponent(t *testing.T) {
	values, thickness := InFillValues([]float64{1, 2}, []float64{100, 100}, nil, nil)

	assert.Equal(t, []float64{1, 2}, values)
	assert.Equal(t, []float64{100, 100}, thickness)
}

func TestOverlaySample(t *testing.T) {
	out, thickness, ok := OverlaySample(
		[]float64{8, math.NaN()}, []float64{100, 100},
		[]float64{6, 6.5, 7}, []float64{100, 100, 100},
		math.NaN(),
	)

	require.True(t, ok)
	assert.Equal(t, []float64{100, 100, 100}, thickness)
	assert.InDeltaSlice(t, []float64{8, 6.5, 7}, out, 1e-9)
}

func TestOverlaySample_RemapsOntoComponentLayers(t *testing.T) {
	out, thickness, ok := OverlaySample(
		[]float64{8, 6}, []float64{50, 50},
		[]float64{5, 5}, []float64{100, 100},
		6,
	)

	require.True(t, ok)
	assert.Equal(t, []float64{100, 100}, thickness)
	assert.InDeltaSlice(t, []float64{7, 5}, out, 1e-9)
}

func TestOverlaySample_NoValues(t *testing.T) {
	values := []float64{6, 6.5}
	thickness := []float64{100, 100}

	out, outThickness, ok := OverlaySample([]float64{math.NaN()}, []float64{100}, values, thickness, 0)

	assert.False(t, ok)
	assert.Equal(t, values, out)
	assert.Equal(t, thickness, outThickness)
}

func TestRemoveSamples_ThicknessMismatch(t *testing.T) {
	p := &SoilProfile{
		Water:   &Water{Thickness: Values{100, 100}},
		Samples: []*Sample{{Thickness: Values{100}}},
	}

	err := NewSampleOverlay(nil).RemoveSamples(p)

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Equal(t, "Cannot fold a sample into the Water component. Thicknesses are different.", err.Error())
}

func TestRemoveSamples(t *testing.T) {
	nan := math.NaN()
	p := &SoilProfile{
		Water: &Water{Thickness: Values{100, 100}, SW: Values{0.2, 0.2}},
		SoilOrganicMatter: &SoilOrganicMatter{
			Thickness:  Values{100, 100},
			OC:         Values{1.2, 0.8},
			OCMetadata: []Provenance{ProvenanceMapped, ProvenanceMapped},
		},
		Analysis: &Analysis{
			Thickness: Values{100, 100},
			PH:        Values{6, 6.5},
		},
		Samples: []*Sample{
			{
				Thickness: Values{100, 100},
				SW:        Values{0.3, 0.25},
				NO3:       Values{10, nan},
				NH4:       Values{1, 1},
				OC:        Values{2, nan},
				PH:        Values{8, nan},
				CL:        Values{nan, 3},
			},
		},
	}

	require.NoError(t, NewSampleOverlay(nil).RemoveSamples(p))

	assert.Nil(t, p.Samples)
	assert.Equal(t, Values{0.3, 0.25}, p.Water.SW)

	require.NotNil(t, p.Nitrogen)
	assert.Equal(t, Values{100, 100}, p.Nitrogen.Thickness)
	assert.Equal(t, Values{10, 0.01}, p.Nitrogen.NO3)
	assert.Equal(t, Values{1, 1}, p.Nitrogen.NH4)
	assert.Equal(t, NitrogenPPM, p.Nitrogen.NO3Units)

	assert.InDeltaSlice(t, []float64{2, 0.8}, p.SoilOrganicMatter.OC, 1e-9)
	assert.Equal(t, []Provenance{ProvenanceMeasured, ProvenanceMapped}, p.SoilOrganicMatter.OCMetadata)

	assert.InDeltaSlice(t, []float64{8, 6.5}, p.Analysis.PH, 1e-9)
	assert.Equal(t, []Provenance{ProvenanceMeasured, ProvenanceMeasured}, p.Analysis.PHMetadata)
	assert.InDeltaSlice(t, []float64{0, 3}, p.Analysis.CL, 1e-9)
	assert.Equal(t, []Provenance{ProvenanceEstimated, ProvenanceMeasured}, p.Analysis.CLMetadata)
}

func TestRemoveSamples_PartialSampleKeepsDeeperValues(t *testing.T) {
	nan := math.NaN()
	p := &SoilProfile{
		Water: &Water{Thickness: Values{150, 150}},
		Analysis: &Analysis{
			Thickness:  Values{150, 150},
			EC:         Values{0.2, 0.9},
			ECMetadata: []Provenance{ProvenanceMeasured, ProvenanceMapped},
		},
		Samples: []*Sample{
			{Thickness: Values{150, 150}, EC: Values{0.3, nan}, OC: Values{1.5, nan}},
		},
	}

	require.NoError(t, NewSampleOverlay(nil).RemoveSamples(p))

	assert.Equal(t, Values{0.3, 0.9}, p.Analysis.EC)
	assert.Equal(t, []Provenance{ProvenanceMeasured, ProvenanceMapped}, p.Analysis.ECMetadata)

	// No organic matter component to fall back on.
	require.NotNil(t, p.SoilOrganicMatter)
	assert.Equal(t, Values{150, 150}, p.SoilOrganicMatter.Thickness)
	assert.Equal(t, Values{1.5, defaultSampleOC}, p.SoilOrganicMatter.OC)
	assert.Equal(t, []Provenance{ProvenanceMeasured, ProvenanceEstimated}, p.SoilOrganicMatter.OCMetadata)
}

func TestRemoveSamples_LaterSamplesWin(t *testing.T) {
	p := &SoilProfile{
		Water: &Water{Thickness: Values{100}},
		Samples: []*Sample{
			{Thickness: Values{100}, NO3: Values{10}},
			{Thickness: Values{100}, NO3: Values{20}},
		},
	}

	require.NoError(t, NewSampleOverlay(nil).RemoveSamples(p))

	assert.Equal(t, Values{20}, p.Nitrogen.NO3)
}
