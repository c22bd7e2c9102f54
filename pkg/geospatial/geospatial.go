package geospatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// ErrNoLocation is returned for a site without coordinates.
var ErrNoLocation = errors.New("site has no location")

// SitePoint validates a latitude/longitude pair and returns it as a point.
// 0,0 is treated as an unset location.
func SitePoint(latitude, longitude float64) (orb.Point, error) {
	if math.IsNaN(latitude) || math.IsNaN(longitude) || (latitude == 0 && longitude == 0) {
		return orb.Point{}, ErrNoLocation
	}
	if latitude < -90 || latitude > 90 {
		return orb.Point{}, fmt.Errorf("latitude %v out of range", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return orb.Point{}, fmt.Errorf("longitude %v out of range", longitude)
	}
	return orb.Point{longitude, latitude}, nil
}

// SiteFeature renders a site as a GeoJSON point feature.
func SiteFeature(point orb.Point, properties map[string]interface{}) *geojson.Feature {
	feature := geojson.NewFeature(point)
	for k, v := range properties {
		feature.Properties[k] = v
	}
	return feature
}

// ParseSite reads a GeoJSON point feature
func ParseSite(data []byte) (orb.Point, error) {
	feature, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return orb.Point{}, err
	}
	if feature.Geometry == nil {
		return orb.Point{}, errors.New("invalid GeoJSON: no geometry")
	}
	point, ok := feature.Geometry.(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid GeoJSON: expected Point, got %s", feature.Geometry.GeoJSONType())
	}
	return SitePoint(point.Lat(), point.Lon())
}

// DistanceKm is the great-circle distance between two sites.
func DistanceKm(a, b orb.Point) float64 {
	return geo.Distance(a, b) / 1000
}
