// Package geoutil wraps the coordinate-conversion and distance
// libraries the gateway exposes through its station API: UTM/MGRS
// conversion via tzneal/coordconv (grounded on the prior Go port's
// cmd/samoyed-ll2utm and cmd/samoyed-utm2ll tools, adapted from
// one-shot CLI output into a library API) and great-circle distance
// via kellydunn/golang-geo.
package geoutil

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	geo "github.com/kellydunn/golang-geo"
	"github.com/tzneal/coordconv"
)

func degreesToRadians(d float64) float64 { return d * math.Pi / 180 }

// UTM is a Universal Transverse Mercator coordinate.
type UTM struct {
	Zone       int
	Hemisphere byte // 'N' or 'S'
	Easting    float64
	Northing   float64
}

// ToUTM converts a WGS-84 lat/lon to UTM, grounded on the prior Go port's
// cmd/samoyed-ll2utm.
func ToUTM(lat, lon float64) (UTM, error) {
	latlng := s2.LatLng{
		Lat: s1.Angle(degreesToRadians(lat)),
		Lng: s1.Angle(degreesToRadians(lon)),
	}
	coord, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(latlng, 0)
	if err != nil {
		return UTM{}, fmt.Errorf("geoutil: lat/lon to UTM: %w", err)
	}
	return UTM{
		Zone:       coord.Zone,
		Hemisphere: hemisphereToByte(coord.Hemisphere),
		Easting:    coord.Easting,
		Northing:   coord.Northing,
	}, nil
}

// MGRS renders the Military Grid Reference System string for a
// lat/lon at the given precision (1-5), grounded on the prior Go port's
// cmd/samoyed-ll2utm MGRS practice-run path.
func MGRS(lat, lon float64, precision int) (string, error) {
	latlng := s2.LatLng{
		Lat: s1.Angle(degreesToRadians(lat)),
		Lng: s1.Angle(degreesToRadians(lon)),
	}
	coord, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(latlng, precision)
	if err != nil {
		return "", fmt.Errorf("geoutil: lat/lon to MGRS: %w", err)
	}
	return fmt.Sprint(coord), nil
}

func hemisphereToByte(h coordconv.Hemisphere) byte {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	default:
		return '?'
	}
}

// DistanceKm returns the great-circle distance in kilometers between
// two lat/lon points, via kellydunn/golang-geo.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := geo.NewPoint(lat1, lon1)
	p2 := geo.NewPoint(lat2, lon2)
	return p1.GreatCircleDistance(p2)
}
