package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gaugelink.hydrology.org/hydatdb"
	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/ingest"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
)

// HydatSource is the part of a HYDAT archive a run reads.
type HydatSource interface {
	Stations(ctx context.Context, filter hydatdb.StationFilter) ([]models.Station, error)
	FlowDateRanges(ctx context.Context) ([]models.DateRange, error)
}

// Inputs are the projected datasets of one run. HYDAT stations are the
// origins and PWQMN stations the candidates.
type Inputs struct {
	Segments        []models.Segment
	Origins         []models.Station
	Candidates      []models.Station
	OriginRanges    []models.DateRange
	CandidateRanges []models.DateRange
	// Dropped lists stations that fell outside the configured UTM zone.
	Dropped []string
}

// OpenHydat opens the archive named by cfg.
func OpenHydat(cfg *appconf.RunConfig) (*hydatdb.Client, error) {
	dbCfg := hydatdb.NewConfig(cfg.Hydat.Path, appconf.EnvFlagToEnvironment(cfg.Env), cfg.Verbose).
		WithDriver(cfg.Hydat.Driver)
	return hydatdb.NewClient(dbCfg)
}

// Load reads the segment layer, the HYDAT stations and flow ranges from src,
// and the PWQMN tables, projecting every station into the configured UTM
// zone. HYDAT stations are restricted to the segment layer's extent.
func Load(ctx context.Context, cfg *appconf.RunConfig, src HydatSource, logger *slog.Logger, m *metrics.Metrics) (*Inputs, error) {
	logger = logging.ForComponent(logger, "pipeline")
	start := time.Now()
	defer m.ObserveStage("load", start)

	proj, err := geo.NewUTMProjector(cfg.UTM.Zone, cfg.UTM.Northern)
	if err != nil {
		return nil, fmt.Errorf("invalid projection: %w", err)
	}

	segments, err := ingest.LoadSegments(cfg.Segments.Path, ingest.SegmentOptions{
		IDProperty:       cfg.Segments.IDProperty,
		NextDownProperty: cfg.Segments.NextDownProperty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}

	filter := hydatdb.StationFilter{
		Province:   cfg.Hydat.Province,
		ActiveOnly: cfg.Hydat.ActiveOnly,
	}
	if b, ok := geographicExtent(segments, proj, cfg.Matching.SnapMaxDistance); ok {
		filter.Bound = &b
	}

	hydat, err := src.Stations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read HYDAT stations: %w", err)
	}
	hydatRanges, err := src.FlowDateRanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read HYDAT flow ranges: %w", err)
	}

	pwqmn, err := ingest.LoadStations(cfg.Pwqmn.Stations, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load PWQMN stations: %w", err)
	}
	var pwqmnRanges []models.DateRange
	if cfg.Pwqmn.Samples != "" {
		period, err := ingest.ParsePeriod(cfg.Pwqmn.PeriodStart, cfg.Pwqmn.PeriodEnd)
		if err != nil {
			return nil, err
		}
		if pwqmnRanges, err = ingest.LoadSamples(cfg.Pwqmn.Samples, period); err != nil {
			return nil, fmt.Errorf("failed to load PWQMN samples: %w", err)
		}
	}

	hydat, droppedHydat, err := ingest.ProjectStations(hydat, proj, logger)
	if err != nil {
		return nil, err
	}
	pwqmn, droppedPwqmn, err := ingest.ProjectStations(pwqmn, proj, logger)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		Segments:        segments,
		Dropped:         append(droppedHydat, droppedPwqmn...),
		OriginRanges:    hydatRanges,
		CandidateRanges: pwqmnRanges,
		Origins:         hydat,
		Candidates:      pwqmn,
	}

	logging.LogOperation(logger, "inputs_loaded",
		slog.Int("segments", len(in.Segments)),
		slog.Int("hydat_stations", len(hydat)),
		slog.Int("pwqmn_stations", len(pwqmn)),
		slog.Int("dropped", len(in.Dropped)),
		slog.Duration("elapsed", time.Since(start)))
	return in, nil
}

// extentMargin widens the geographic window to cover the rotation between the
// UTM grid and the graticule.
const extentMargin = 0.01

// geographicExtent converts the projected bound of segments, padded by the
// snap distance, to a longitude/latitude window. Without a finite snap
// distance every station may attach, so no window is returned.
func geographicExtent(segments []models.Segment, proj geo.UTMProjector, pad float64) (orb.Bound, bool) {
	if len(segments) == 0 || !(pad > 0) || !geo.IsFinite(pad) {
		return orb.Bound{}, false
	}
	b := segments[0].Geometry.Bound()
	for _, s := range segments[1:] {
		b = b.Union(s.Geometry.Bound())
	}
	b = b.Pad(pad)

	var ll orb.Bound
	corners := []orb.Point{b.Min, {b.Min[0], b.Max[1]}, b.Max, {b.Max[0], b.Min[1]}}
	for i, c := range corners {
		p, err := proj.Inverse(c)
		if err != nil {
			return orb.Bound{}, false
		}
		if i == 0 {
			ll = p.Bound()
			continue
		}
		ll = ll.Extend(p)
	}
	return ll.Pad(extentMargin), true
}
