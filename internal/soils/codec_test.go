package soils

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues_JSON(t *testing.T) {
	data, err := json.Marshal(Values{1.5, math.NaN(), 3})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, 3]`, string(data))

	var v Values
	require.NoError(t, json.Unmarshal([]byte(`[null, 2]`), &v))
	require.Len(t, v, 2)
	assert.True(t, math.IsNaN(v[0]))
	assert.Equal(t, 2.0, v[1])

	var absent Values
	require.NoError(t, json.Unmarshal([]byte(`null`), &absent))
	assert.Nil(t, absent)
}

func TestDecodeProfile_YAML(t *testing.T) {
	src := `
name: Clay
soil_type: Grey Vertosol
water:
  thickness: [150, 150, 300]
  ll15: [0.2, ~, .nan]
  dul: [0.4, 0.42, 0.45]
samples:
  - name: spring
    thickness: [150]
    no3: [12]
    no3_units: kgha
`
	p, err := DecodeProfile(strings.NewReader(src), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Clay", p.Name)
	assert.Equal(t, "Grey Vertosol", p.SoilType)
	require.NotNil(t, p.Water)
	assert.Equal(t, Values{150, 150, 300}, p.Water.Thickness)
	require.Len(t, p.Water.LL15, 3)
	assert.Equal(t, 0.2, p.Water.LL15[0])
	assert.True(t, math.IsNaN(p.Water.LL15[1]))
	assert.True(t, math.IsNaN(p.Water.LL15[2]))
	assert.Nil(t, p.Water.SW)
	require.Len(t, p.Samples, 1)
	assert.Equal(t, NitrogenKgHa, p.Samples[0].NO3Units)
}

func TestEncodeProfile_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			p := &SoilProfile{
				Name: "Sand",
				Water: &Water{
					Thickness:   Values{100, 200},
					DUL:         Values{0.2, math.NaN()},
					DULMetadata: []Provenance{ProvenanceMeasured, ProvenanceEstimated},
				},
			}

			var buf bytes.Buffer
			require.NoError(t, EncodeProfile(&buf, p, format))

			out, err := DecodeProfile(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, "Sand", out.Name)
			assert.Equal(t, Values{100, 200}, out.Water.Thickness)
			assert.Equal(t, 0.2, out.Water.DUL[0])
			assert.True(t, math.IsNaN(out.Water.DUL[1]))
			assert.Equal(t, p.Water.DULMetadata, out.Water.DULMetadata)
		})
	}
}

func TestDecodeProfile_Invalid(t *testing.T) {
	_, err := DecodeProfile(strings.NewReader(`{"water": {"thickness": "deep"}}`), FormatJSON)
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("soils/clay.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("clay.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("clay.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("clay"))
}

func TestSoilProfile_Clone(t *testing.T) {
	p := fullProfile()

	c, err := p.Clone()
	require.NoError(t, err)

	c.Water.Thickness[0] = 999
	c.Water.Crops[0].Name = "Barley"
	assert.Equal(t, 100.0, p.Water.Thickness[0])
	assert.Equal(t, "Wheat", p.Water.Crops[0].Name)
}
