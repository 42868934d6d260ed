package geoutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToUTM(t *testing.T) {
	utm, err := ToUTM(42.662139, -71.365553)
	require.NoError(t, err)
	require.Equal(t, byte('N'), utm.Hemisphere)
	require.Greater(t, utm.Zone, 0)
}

func TestDistanceKm(t *testing.T) {
	d := DistanceKm(42.662139, -71.365553, 42.672139, -71.365553)
	require.Greater(t, d, 0.0)
	require.Less(t, d, 5.0)
}
