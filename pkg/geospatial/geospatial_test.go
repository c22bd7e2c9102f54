package geospatial

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitePoint(t *testing.T) {
	p, err := SitePoint(-27.18, 151.26)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{151.26, -27.18}, p)

	_, err = SitePoint(0, 0)
	assert.ErrorIs(t, err, ErrNoLocation)

	_, err = SitePoint(-95, 151)
	assert.Error(t, err)

	_, err = SitePoint(-27, 190)
	assert.Error(t, err)
}

func TestSiteFeature_RoundTrip(t *testing.T) {
	p, err := SitePoint(-27.18, 151.26)
	require.NoError(t, err)

	data, err := json.Marshal(SiteFeature(p, map[string]interface{}{"name": "Dalby"}))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Feature", raw["type"])
	assert.Equal(t, "Dalby", raw["properties"].(map[string]interface{})["name"])

	parsed, err := ParseSite(data)
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestParseSite_RejectsPolygons(t *testing.T) {
	_, err := ParseSite([]byte(`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{}}`))
	assert.Error(t, err)
}

func TestDistanceKm(t *testing.T) {
	dalby := orb.Point{151.26, -27.18}
	toowoomba := orb.Point{151.95, -27.56}

	assert.InDelta(t, 80, DistanceKm(dalby, toowoomba), 5)
	assert.InDelta(t, 0, DistanceKm(dalby, dalby), 1e-9)
}
