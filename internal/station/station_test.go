package station

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/callsign"
)

func TestIngestAndSnapshot(t *testing.T) {
	db := New()
	call := callsign.MustParse("N0CALL-5")
	now := time.Now().UTC()
	pos := &aprs.Position{Lat: 40, Lon: -105}

	db.Ingest(call, now, "0", 0, nil, pos, true, true, false, false)
	db.Ingest(call, now.Add(time.Minute), "0", 1, []string{"WIDE1-1"}, nil, true, false, false, false)

	snap, ok := db.Snapshot(call)
	require.True(t, ok)
	require.Equal(t, 2, snap.HeardCount)
	require.Len(t, snap.ReceptionHistory, 2)
	require.Len(t, snap.PositionHistory, 1)
	require.NotNil(t, snap.LastPosition)
	require.True(t, snap.HeardDirect)
	require.True(t, snap.HeardZeroHop)
	require.Len(t, snap.ObservedPaths, 2)
	_, directSeen := snap.ObservedPaths[""]
	require.True(t, directSeen)
	_, repeatedSeen := snap.ObservedPaths["WIDE1-1"]
	require.True(t, repeatedSeen)
}

func TestIngestBoundsHistory(t *testing.T) {
	db := New()
	call := callsign.MustParse("N0CALL")
	now := time.Now().UTC()

	for i := 0; i < MaxReceptionHistory+50; i++ {
		db.Ingest(call, now, "0", 0, nil, nil, true, true, false, false)
	}

	snap, ok := db.Snapshot(call)
	require.True(t, ok)
	require.Len(t, snap.ReceptionHistory, MaxReceptionHistory)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	db := New()
	call := callsign.MustParse("N0CALL-1")
	now := time.Now().UTC()
	pos := &aprs.Position{Lat: 40, Lon: -105, SymbolTable: '/', SymbolCode: '-'}
	db.Ingest(call, now, "0", 0, []string{"WIDE2-1"}, pos, true, false, false, true)
	db.IngestWeather(call, now, &aprs.Weather{TempF: floatPtr(72.5)})

	path := filepath.Join(t.TempDir(), "stations.json.gz")
	require.NoError(t, db.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	snap, ok := loaded.Snapshot(call)
	require.True(t, ok)
	require.True(t, snap.IsDigipeater)
	require.True(t, snap.HeardDirect)
	require.Len(t, snap.PositionHistory, 1)
	require.Len(t, snap.WeatherHistory, 1)
	require.NotNil(t, snap.LastWeather)
	_, seen := snap.ObservedPaths["WIDE2-1"]
	require.True(t, seen)
}

func floatPtr(f float64) *float64 { return &f }

func TestLoadMissingFileIsEmpty(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json.gz"))
	require.NoError(t, err)
	require.Equal(t, 0, db.Count())
}

func TestLoadCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip data"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
