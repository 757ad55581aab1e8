// Package pipeline runs the matching stages in order: snap and assign both
// station sets, build the network, check its integrity, match, and annotate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gaugelink.hydrology.org/internal/annotate"
	"gaugelink.hydrology.org/internal/appconf"
	"gaugelink.hydrology.org/internal/assign"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/match"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/network"
	"gaugelink.hydrology.org/internal/snap"

	"github.com/google/uuid"
)

// Options configures a run.
type Options struct {
	Matching  appconf.MatchingConfig
	Precision float64
	Progress  func(done, total int)
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// OptionsFromConfig copies the run settings out of cfg.
func OptionsFromConfig(cfg *appconf.RunConfig) Options {
	return Options{
		Matching:  cfg.Matching,
		Precision: cfg.Segments.Precision,
	}
}

// Result is everything a completed run produced.
type Result struct {
	RunID           string
	Finished        time.Time
	OriginPrefix    string
	CandidatePrefix string
	Network         *network.Network
	Integrity       network.IntegrityReport
	Assignments     []assign.Report
	Matches         []models.Match
	Dropped         []string
}

// Run executes the stages over in. The integrity report is advisory: a low
// score is logged and recorded but does not stop the run.
func Run(ctx context.Context, in *Inputs, opts Options) (*Result, error) {
	runID := uuid.NewString()
	logger := logging.ForComponent(opts.Logger, "pipeline").With(slog.String("run_id", runID))
	m := opts.Metrics
	cfg := opts.Matching

	if in == nil || len(in.Segments) == 0 {
		return nil, models.NewInputError("pipeline", "segment set is empty")
	}

	start := time.Now()
	snapper := snap.NewSnapper(in.Segments, logger)
	segments, originReport, err := assign.Assign(in.Segments, in.Origins, assign.Options{
		Prefix:      cfg.OriginPrefix,
		MaxDistance: cfg.SnapMaxDistance,
		Snapper:     snapper,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign %s stations: %w", cfg.OriginPrefix, err)
	}
	// The assigned copy keeps segment order and geometry, so one index serves
	// both passes.
	segments, candidateReport, err := assign.Assign(segments, in.Candidates, assign.Options{
		Prefix:      cfg.CandidatePrefix,
		MaxDistance: cfg.SnapMaxDistance,
		Snapper:     snapper,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign %s stations: %w", cfg.CandidatePrefix, err)
	}
	m.ObserveStage("assign", start)

	start = time.Now()
	net, err := network.Build(segments, network.Options{
		Precision: opts.Precision,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}
	m.ObserveStage("network", start)

	report := network.CheckIntegrity(net, cfg.IntegrityThreshold, logger, m)

	matches, err := match.Match(ctx, net, match.Options{
		OriginPrefix:       cfg.OriginPrefix,
		CandidatePrefix:    cfg.CandidatePrefix,
		MaxDistance:        cfg.MaxDistance,
		MaxDepth:           cfg.MaxDepth,
		OnSegmentThreshold: cfg.OnSegmentThreshold,
		Workers:            cfg.Workers,
		Progress:           opts.Progress,
		Logger:             logger,
		Metrics:            m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match stations: %w", err)
	}

	start = time.Now()
	matches = annotate.Annotate(matches,
		annotate.IndexRanges(in.OriginRanges),
		annotate.IndexRanges(in.CandidateRanges))
	m.ObserveStage("annotate", start)

	res := &Result{
		RunID:           runID,
		Finished:        time.Now(),
		OriginPrefix:    cfg.OriginPrefix,
		CandidatePrefix: cfg.CandidatePrefix,
		Network:         net,
		Integrity:       report,
		Assignments:     []assign.Report{originReport, candidateReport},
		Matches:         matches,
		Dropped:         in.Dropped,
	}

	logging.LogOperation(logger, "run_completed",
		slog.Int("matches", len(matches)),
		slog.Int("origins_assigned", originReport.Assigned),
		slog.Int("candidates_assigned", candidateReport.Assigned),
		slog.Float64("integrity_score", report.Score))
	return res, nil
}

// HasOrigin reports whether originID was attached to the network.
func (r *Result) HasOrigin(originID string) bool {
	if r.Network == nil {
		return false
	}
	for _, s := range r.Network.Stations(r.OriginPrefix) {
		if s.StationID == originID {
			return true
		}
	}
	return false
}

// MatchesFor returns the matches whose origin is originID, in result order.
func (r *Result) MatchesFor(originID string) []models.Match {
	var out []models.Match
	for _, m := range r.Matches {
		if m.OriginID == originID {
			out = append(out, m)
		}
	}
	return out
}
