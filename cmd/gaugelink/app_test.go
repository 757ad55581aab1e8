package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/export"
	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/restapi"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const segmentsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": 1, "next_down": 2},
     "geometry": {"type": "LineString", "coordinates": [[600000, 4800000], [601000, 4800000]]}},
    {"type": "Feature", "properties": {"id": 2, "next_down": 0},
     "geometry": {"type": "LineString", "coordinates": [[601000, 4800000], [602000, 4800000]]}}
  ]
}`

func lonLat(t *testing.T, p orb.Point) orb.Point {
	t.Helper()
	proj, err := geo.NewUTMProjector(17, true)
	require.NoError(t, err)
	ll, err := proj.Inverse(p)
	require.NoError(t, err)
	return ll
}

// createHydat writes a minimal HYDAT archive holding one station on segment 1.
func createHydat(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	h := lonLat(t, orb.Point{600400, 4799990})
	for _, stmt := range []string{
		`CREATE TABLE STATIONS (STATION_NUMBER TEXT PRIMARY KEY, STATION_NAME TEXT, PROV_TERR_STATE_LOC TEXT,
			HYD_STATUS TEXT, LATITUDE REAL, LONGITUDE REAL, DRAINAGE_AREA_GROSS REAL)`,
		`CREATE TABLE DLY_FLOWS (STATION_NUMBER TEXT, YEAR INTEGER, MONTH INTEGER, NO_DAYS INTEGER)`,
		fmt.Sprintf(`INSERT INTO STATIONS VALUES ('02HA001', 'TEST CREEK NEAR HOME', 'ON', 'A', %.8f, %.8f, 12.5)`, h.Lat(), h.Lon()),
		`INSERT INTO DLY_FLOWS VALUES ('02HA001', 2010, 1, 31)`,
		`INSERT INTO DLY_FLOWS VALUES ('02HA001', 2010, 12, 31)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func testRunConfig(t *testing.T) *appconf.RunConfig {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	p := lonLat(t, orb.Point{601500, 4800020})
	hydatPath := filepath.Join(dir, "Hydat.sqlite3")
	createHydat(t, hydatPath)

	cfg := &appconf.RunConfig{
		Env:      "test",
		Segments: appconf.SegmentsConfig{Path: write("segments.geojson", segmentsGeoJSON)},
		UTM:      appconf.UTMConfig{Zone: 17, Northern: true},
		Hydat:    appconf.HydatConfig{Path: hydatPath, Driver: "sqlite"},
		Pwqmn: appconf.PwqmnConfig{
			Stations: write("stations.csv", fmt.Sprintf("STATION,NAME,LATITUDE,LONGITUDE\nP1,Creek,%.8f,%.8f\n", p.Lat(), p.Lon())),
			Samples:  write("samples.csv", "STATION,DATE\nP1,2010-06-01\nP1,2011-06-01\n"),
		},
		Matching: appconf.MatchingConfig{SnapMaxDistance: 500, Workers: 1},
		Output: appconf.OutputConfig{
			CSV:     filepath.Join(dir, "matches.csv"),
			GeoJSON: filepath.Join(dir, "matches.geojson"),
			WGS84:   true,
		},
		Server: appconf.ServerConfig{Port: 8080},
	}
	cfg.Matching.OriginPrefix = "hydat"
	cfg.Matching.CandidatePrefix = "pwqmn"
	cfg.Matching.OnSegmentThreshold = -1
	cfg.Matching.IntegrityThreshold = 0.95
	cfg.Server.RateLimit = 100
	cfg.Server.CacheSize = 16
	return cfg
}

func TestApplyFlagOverrides(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		verbose bool
		serve   bool
		port    int
		workers int
		check   func(t *testing.T, c *appconf.RunConfig)
	}{
		{
			name: "No flags keep file values",
			check: func(t *testing.T, c *appconf.RunConfig) {
				assert.Equal(t, "test", c.Env)
				assert.False(t, c.Verbose)
				assert.False(t, c.Server.Enabled)
				assert.Equal(t, 8080, c.Server.Port)
				assert.Equal(t, 1, c.Matching.Workers)
			},
		},
		{
			name: "Environment",
			env:  "production",
			check: func(t *testing.T, c *appconf.RunConfig) {
				assert.Equal(t, "production", c.Env)
			},
		},
		{
			name: "Unknown environment falls back to development",
			env:  "staging",
			check: func(t *testing.T, c *appconf.RunConfig) {
				assert.Equal(t, "development", c.Env)
			},
		},
		{
			name:    "Serve, port and workers",
			serve:   true,
			verbose: true,
			port:    9090,
			workers: 6,
			check: func(t *testing.T, c *appconf.RunConfig) {
				assert.True(t, c.Verbose)
				assert.True(t, c.Server.Enabled)
				assert.Equal(t, 9090, c.Server.Port)
				assert.Equal(t, 6, c.Matching.Workers)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testRunConfig(t)
			applyFlagOverrides(cfg, tt.env, tt.verbose, tt.serve, tt.port, tt.workers)
			tt.check(t, cfg)
		})
	}
}

func TestBuildApplication(t *testing.T) {
	cfg := testRunConfig(t)
	coreApp := BuildApplication(cfg)

	assert.NotNil(t, coreApp.Logger, "Logger should be initialized")
	assert.NotNil(t, coreApp.Metrics, "Metrics should be initialized")
	assert.Equal(t, cfg.ToAppConfig(), coreApp.Config, "Config should match input")
	assert.Same(t, cfg, coreApp.RunConfig)
	assert.False(t, coreApp.Ready())
}

func TestExecuteAndWriteOutputs(t *testing.T) {
	cfg := testRunConfig(t)
	coreApp := BuildApplication(cfg)

	res, err := Execute(context.Background(), coreApp, false)
	require.NoError(t, err)
	assert.Same(t, res, coreApp.Result())

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, "02HA001", m.OriginID)
	assert.Equal(t, "P1", m.CandidateID)
	assert.Equal(t, models.Down, m.Pos)
	require.NotNil(t, m.OriginTotalRecords)
	assert.Equal(t, 62, *m.OriginTotalRecords)
	require.NotNil(t, m.CandidateTotalRecords)
	assert.Equal(t, 2, *m.CandidateTotalRecords)
	require.NotNil(t, m.DataOverlapDays)
	assert.Equal(t, 214, *m.DataOverlapDays)

	require.NoError(t, WriteOutputs(res, cfg, coreApp.Logger))

	f, err := os.Open(cfg.Output.CSV)
	require.NoError(t, err)
	defer f.Close()
	rows, err := export.ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "02HA001", rows[0].OriginID)
	assert.InDelta(t, m.Distance, rows[0].Distance, 0.001)

	body, err := os.ReadFile(cfg.Output.GeoJSON)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(body)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	line := fc.Features[0].Geometry.(orb.LineString)
	for _, p := range line {
		assert.InDelta(t, -79.7, p.Lon(), 0.5)
		assert.InDelta(t, 43.3, p.Lat(), 0.5)
	}
}

func TestExecuteMissingHydat(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Hydat.Path = filepath.Join(t.TempDir(), "absent.sqlite3")

	_, err := Execute(context.Background(), BuildApplication(cfg), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat HYDAT database")
}

func TestWriteOutputsSkipsUnconfigured(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Output = appconf.OutputConfig{}

	coreApp := BuildApplication(cfg)
	require.NoError(t, WriteOutputs(nil, cfg, coreApp.Logger))
}

func TestCreateServer(t *testing.T) {
	cfg := testRunConfig(t)
	coreApp := BuildApplication(cfg)
	api := restapi.NewRestAPI(coreApp)
	defer api.Shutdown()

	srv := CreateServer(coreApp, api)

	assert.NotNil(t, srv, "Server should not be nil")
	assert.Equal(t, ":8080", srv.Addr, "Server address should match port")
	assert.NotNil(t, srv.Handler, "Server handler should be set")
	assert.Equal(t, time.Minute, srv.IdleTimeout, "IdleTimeout should be 1 minute")
	assert.Equal(t, 5*time.Second, srv.ReadTimeout, "ReadTimeout should be 5 seconds")
	assert.Equal(t, 10*time.Second, srv.WriteTimeout, "WriteTimeout should be 10 seconds")
}

func TestCreateServerHandlerResponds(t *testing.T) {
	cfg := testRunConfig(t)
	coreApp := BuildApplication(cfg)
	api := restapi.NewRestAPI(coreApp)
	defer api.Shutdown()

	srv := CreateServer(coreApp, api)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	index := httptest.NewRecorder()
	srv.Handler.ServeHTTP(index, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Body.String(), "No completed matching run.")
}

func TestRunWithPortZeroAndContextCancel(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Server.Port = 0
	coreApp := BuildApplication(cfg)
	api := restapi.NewRestAPI(coreApp)
	srv := CreateServer(coreApp, api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, srv, api, coreApp.Logger)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "Server should shutdown cleanly")
	case <-time.After(10 * time.Second):
		t.Fatal("Test timeout - server did not shutdown")
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(models.NewInputError("match", "bad prefix")))
	assert.Equal(t, 2, exitCode(fmt.Errorf("failed to build network: %w", models.NewInputError("network.build", "empty"))))
	assert.Equal(t, 1, exitCode(errors.New("disk full")))
}
