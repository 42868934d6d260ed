package aprs

import (
	"fmt"
	"strings"
)

// MaidenheadToLatLon decodes a 4 or 6-character Maidenhead grid square
// to its center coordinate, grounded on the prior Go port's
// latlong.go:ll_from_grid_square.
func MaidenheadToLatLon(grid string) (lat, lon float64, err error) {
	g := strings.ToUpper(strings.TrimSpace(grid))
	if len(g) != 4 && len(g) != 6 {
		return 0, 0, fmt.Errorf("aprs: grid square %q must be 4 or 6 characters", grid)
	}
	if g[0] < 'A' || g[0] > 'R' || g[1] < 'A' || g[1] > 'R' {
		return 0, 0, fmt.Errorf("aprs: grid square %q has invalid field letters", grid)
	}

	lon = float64(g[0]-'A')*20 - 180
	lat = float64(g[1]-'A')*10 - 90

	if g[2] < '0' || g[2] > '9' || g[3] < '0' || g[3] > '9' {
		return 0, 0, fmt.Errorf("aprs: grid square %q has invalid square digits", grid)
	}
	lon += float64(g[2]-'0') * 2
	lat += float64(g[3] - '0')

	if len(g) == 6 {
		if g[4] < 'A' || g[4] > 'X' || g[5] < 'A' || g[5] > 'X' {
			return 0, 0, fmt.Errorf("aprs: grid square %q has invalid subsquare letters", grid)
		}
		lon += float64(g[4]-'A') * (2.0 / 24.0)
		lat += float64(g[5]-'A') * (1.0 / 24.0)
		lon += 1.0 / 24.0 // center of subsquare
		lat += 0.5 / 24.0
	} else {
		lon += 1.0 // center of square
		lat += 0.5
	}

	return lat, lon, nil
}

// LatLonToMaidenhead computes the 6-character grid square containing
// (lat, lon).
func LatLonToMaidenhead(lat, lon float64) string {
	lon += 180
	lat += 90

	field := func(v float64, div float64, base byte) byte {
		return base + byte(v/div)
	}

	lonField := field(lon, 20, 'A')
	latField := field(lat, 10, 'A')
	lonRem := lon - float64(lonField-'A')*20
	latRem := lat - float64(latField-'A')*10

	lonSquare := byte('0') + byte(lonRem/2)
	latSquare := byte('0') + byte(latRem)
	lonRem -= float64(lonSquare-'0') * 2
	latRem -= float64(latSquare - '0')

	lonSub := field(lonRem, 2.0/24.0, 'a')
	latSub := field(latRem, 1.0/24.0, 'a')

	return string([]byte{lonField, latField, lonSquare, latSquare, lonSub, latSub})
}
