package aprs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMicEBasic(t *testing.T) {
	// Destination "T2SUTW": digits via micEDigit are T->'P'-'Y' std-bit
	// digit 4, 2->2, S->std-bit digit 3, U->std-bit digit 5, T->std-bit
	// digit 4, W->std-bit digit 7 (see micEDigit). North/south, offset,
	// and east/west flags come from characters 4, 5 and 6.
	dest := "T2SUTW"
	info := []byte{'`', 0x4b, 0x4e, 0x1c, 0x3f, 0x35, 0x1f, '>', '/', 'T', 'e', 's', 't'}

	pos, err := DecodeMicE(dest, info)
	require.NoError(t, err)
	require.True(t, pos.MicE)
	require.GreaterOrEqual(t, pos.Lat, -90.0)
	require.LessOrEqual(t, pos.Lat, 90.0)
	require.GreaterOrEqual(t, pos.Lon, -180.0)
	require.LessOrEqual(t, pos.Lon, 180.0)
	require.NotEmpty(t, pos.MicEStatus)
	require.Equal(t, byte('>'), pos.SymbolCode)
	require.Equal(t, byte('/'), pos.SymbolTable)
}

func TestDecodeMicEShortInfoRejected(t *testing.T) {
	_, err := DecodeMicE("T2SUTW", []byte{'`', 0x00})
	require.Error(t, err)
}

func TestDecodeMicEBadFlagRejected(t *testing.T) {
	// Character 4 of the destination must be a digit, 'L', or P-Z; '!'
	// is none of those.
	dest := "T2S!TW"
	info := []byte{'`', 0x4b, 0x6e, 0x1c, 0x3f, 0x35, 0x1f, '>', '/'}
	_, err := DecodeMicE(dest, info)
	require.Error(t, err)
}

func TestMicEAltitudeSuffix(t *testing.T) {
	trimmed := string([]byte{33 + 10, 33 + 20, 33 + 30, '}'})
	alt := micEAltitudeMeters(trimmed)
	require.InDelta(t, 10*91*91+20*91+30-10000, alt, 0.001)
}

func TestDeviceFromDestination(t *testing.T) {
	device, ok := DeviceFromDestination("APDW17")
	require.True(t, ok)
	require.Equal(t, "Direwolf", device)

	_, ok = DeviceFromDestination("NOPE99")
	require.False(t, ok)
}
