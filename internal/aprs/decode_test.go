package aprs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeUncompressedPosition(t *testing.T) {
	info := []byte("!4903.50N/07201.75W-Test comment")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindPosition, p.Kind)
	require.InDelta(t, 49.0583, p.Position.Lat, 0.001)
	require.InDelta(t, -72.0292, p.Position.Lon, 0.001)
	require.Equal(t, "Test comment", p.Position.Comment)
}

func TestDecodeMessage(t *testing.T) {
	info := []byte(":N0CALL   :Hello there{001")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindMessage, p.Kind)
	require.Equal(t, "N0CALL", p.Message.Addressee)
	require.Equal(t, "Hello there", p.Message.Body)
	require.Equal(t, "001", p.Message.MsgID)
}

func TestDecodeAck(t *testing.T) {
	info := []byte(":N0CALL   :ack001")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.True(t, p.Message.IsAck)
	require.Equal(t, "001", p.Message.MsgID)
}

func TestDecodeStatus(t *testing.T) {
	info := []byte(">Net control station")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindStatus, p.Kind)
	require.Equal(t, "Net control station", p.Status.Text)
}

func TestDecodeTelemetry(t *testing.T) {
	info := []byte("T#005,123,045,200,000,010,01101000")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindTelemetry, p.Kind)
	require.Equal(t, 5, p.Telemetry.Seq)
	require.Equal(t, 123.0, p.Telemetry.Analog[0])
	require.True(t, p.Telemetry.Digital[1])
	require.False(t, p.Telemetry.Digital[0])
}

func TestDecodeWeather(t *testing.T) {
	info := []byte("_10090556220/004g005t077r000p000P000h50b09900")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindWeather, p.Kind)
	require.NotNil(t, p.Weather.TempF)
	require.Equal(t, 77.0, *p.Weather.TempF)
	require.NotNil(t, p.Weather.DewPointF)
}

func TestDecodeObject(t *testing.T) {
	info := []byte(";LEADER   *111111z4903.50N/07201.75W-")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindObject, p.Kind)
	require.Equal(t, "LEADER", p.Object.Name)
	require.True(t, p.Object.Live)
}

func TestDecodeItem(t *testing.T) {
	info := []byte(")AID1!4903.50N/07201.75W-")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindItem, p.Kind)
	require.Equal(t, "AID1", p.Item.Name)
	require.True(t, p.Item.Live)
}

func TestDecodeThirdParty(t *testing.T) {
	info := []byte("}N0CALL>APRS,TCPIP*:!4903.50N/07201.75W-hi")
	p, err := Decode("APRS", info)
	require.NoError(t, err)
	require.Equal(t, KindThirdParty, p.Kind)
	require.Equal(t, "N0CALL>APRS,TCPIP*", p.ThirdParty.Header)
	require.NotNil(t, p.ThirdParty.Inner)
	require.Equal(t, KindPosition, p.ThirdParty.Inner.Kind)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode("APRS", []byte("?unknown"))
	require.Error(t, err)
}

func TestEncodeDecodeUncompressedRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lat := rapid.Float64Range(-89.9, 89.9).Draw(rt, "lat")
		lon := rapid.Float64Range(-179.9, 179.9).Draw(rt, "lon")
		if IsNullIsland(lat, lon) {
			return
		}
		p := &Position{Lat: lat, Lon: lon, SymbolTable: '/', SymbolCode: '-', Comment: "rt"}
		wire, err := Encode(&Payload{Kind: KindPosition, Position: p})
		require.NoError(rt, err)

		decoded, err := Decode("APRS", wire)
		require.NoError(rt, err)
		require.InDelta(rt, lat, decoded.Position.Lat, 0.01)
		require.InDelta(rt, lon, decoded.Position.Lon, 0.01)
	})
}

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	m := &Message{Addressee: "N0CALL", Body: "hello world", MsgID: "42"}
	wire := EncodeMessage(m)
	p, err := Decode("APRS", wire)
	require.NoError(t, err)
	require.Equal(t, m.Addressee, p.Message.Addressee)
	require.Equal(t, m.Body, p.Message.Body)
	require.Equal(t, m.MsgID, p.Message.MsgID)
}
