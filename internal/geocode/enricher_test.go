package geocode

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/logging"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/workbook"
	"github.com/ppiankov/refmatch/internal/worker"
)

var known = map[string]Coordinates{
	"1 First Ave":  {Lat: 40.5, Lng: -73.25},
	"2 Second Ave": {Lat: 41, Lng: -74},
	"3 Third Ave":  {Lat: 42.125, Lng: -75.5},
}

func fakeGeocoder() Geocoder {
	return GeocoderFunc(func(_ context.Context, address string) (Coordinates, bool) {
		c, ok := known[address]
		return c, ok
	})
}

func noSleep(context.Context, time.Duration) error { return nil }

func testConfig() model.GeocodeConfig {
	cfg := model.DefaultConfig().Geocode
	cfg.ChunkSize = 2
	return cfg
}

func TestEnricher_PreservesOrder(t *testing.T) {
	tbl := table.New("Doctor_Matching",
		[]string{"Referring Physician", "Address"},
		[][]string{
			{"a", "3 Third Ave"},
			{"b", "unknown road"},
			{"c", ""},
			{"d", "1 First Ave"},
			{"e", "2 Second Ave"},
		})

	e := NewEnricher(fakeGeocoder(), testConfig(), logging.Nop(), worker.WithSleep(noSleep))
	out, stats, err := e.Enrich(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{"Referring Physician", "Address", "Latitude", "Longitude"}, out.Headers)
	assert.Equal(t, []string{"42.125", "", "", "40.5", "41"}, out.Column("Latitude"))
	assert.Equal(t, []string{"-75.5", "", "", "-73.25", "-74"}, out.Column("Longitude"))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out.Column("Referring Physician"))

	assert.Equal(t, Stats{Rows: 5, Resolved: 3, Failed: 1, Blank: 1, Duration: stats.Duration}, stats)
	assert.Len(t, tbl.Headers, 2, "input untouched")
}

func TestEnricher_ChunkPauses(t *testing.T) {
	var mu sync.Mutex
	var pauses []time.Duration

	rows := make([][]string, 5)
	for i := range rows {
		rows[i] = []string{"1 First Ave"}
	}
	tbl := table.New("Doctor_Matching", []string{"Address"}, rows)

	e := NewEnricher(fakeGeocoder(), testConfig(), logging.Nop(), worker.WithSleep(func(_ context.Context, d time.Duration) error {
		mu.Lock()
		pauses = append(pauses, d)
		mu.Unlock()
		return nil
	}))

	_, stats, err := e.Enrich(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Resolved)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, pauses)
}

func TestEnricher_MissingColumn(t *testing.T) {
	tbl := table.New("Doctor_Matching", []string{"Referring Physician"}, nil)

	e := NewEnricher(fakeGeocoder(), testConfig(), logging.Nop())
	_, _, err := e.Enrich(context.Background(), tbl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFatalInput))
}

func TestEnricher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tbl := table.New("s", []string{"Address"}, [][]string{{"1 First Ave"}, {"2 Second Ave"}})
	e := NewEnricher(fakeGeocoder(), testConfig(), logging.Nop(), worker.WithSleep(noSleep))

	out, stats, err := e.Enrich(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, out.Column("Latitude"))
	assert.Equal(t, 2, stats.Failed)
}

func TestEnricher_EnrichFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.xlsx")
	out := filepath.Join(dir, "out.xlsx")

	matching := table.New(model.SheetDoctorMatching, []string{"Referring Physician", "Address"},
		[][]string{{"Jane", "1 First Ave"}, {"Jon", "nowhere"}})
	procedures := table.New(model.SheetProcedurePriority, []string{"Procedure"}, [][]string{{"MRI"}})
	require.NoError(t, workbook.Save(in, matching, procedures))

	e := NewEnricher(fakeGeocoder(), testConfig(), logging.Nop(), worker.WithSleep(noSleep))
	stats, err := e.EnrichFile(context.Background(), in, out, model.SheetDoctorMatching)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)

	got, err := workbook.ReadSheet(out, model.SheetDoctorMatching)
	require.NoError(t, err)
	assert.Equal(t, "40.5", got.Get(0, "Latitude"))
	assert.Equal(t, "", got.Get(1, "Latitude"))

	proc, err := workbook.ReadSheet(out, model.SheetProcedurePriority)
	require.NoError(t, err)
	assert.Equal(t, "MRI", proc.Get(0, "Procedure"))

	_, err = e.EnrichFile(context.Background(), filepath.Join(dir, "missing.xlsx"), out, model.SheetDoctorMatching)
	assert.True(t, errors.Is(err, errors.ErrFatalInput))
}
