package match

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/network"
)

// Options configures a matching run.
type Options struct {
	OriginPrefix    string
	CandidatePrefix string
	// MaxDistance bounds the network distance between origin and candidate.
	// Zero, negative or +Inf means unbounded.
	MaxDistance float64
	// MaxDepth bounds the number of edges entered beyond the origin's host.
	// Zero or negative means unbounded.
	MaxDepth int
	// OnSegmentThreshold reports same-segment candidates within this distance
	// even past MaxDistance. Negative means MaxDistance.
	OnSegmentThreshold float64
	// Workers is the number of origins traversed concurrently. Zero means
	// runtime.NumCPU().
	Workers int
	// Progress, when set, is called from the collecting goroutine after each
	// origin completes.
	Progress func(done, total int)
	// SkipPaths leaves Match.Path empty.
	SkipPaths bool
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// bounds are the normalised limits of a run.
type bounds struct {
	maxDistance float64
	maxDepth    int
	onThreshold float64
}

func (o Options) bounds() bounds {
	b := bounds{
		maxDistance: o.MaxDistance,
		maxDepth:    o.MaxDepth,
		onThreshold: o.OnSegmentThreshold,
	}
	if !(b.maxDistance > 0) || math.IsInf(b.maxDistance, 1) || math.IsNaN(b.maxDistance) {
		b.maxDistance = math.Inf(1)
	}
	if b.maxDepth <= 0 {
		b.maxDepth = math.MaxInt
	}
	if b.onThreshold < 0 || math.IsNaN(b.onThreshold) {
		b.onThreshold = b.maxDistance
	}
	return b
}

func (o Options) validate() error {
	const op = "match"
	if o.OriginPrefix == "" || o.CandidatePrefix == "" {
		return models.NewInputError(op, "origin and candidate prefixes must not be empty")
	}
	if o.OriginPrefix == o.CandidatePrefix {
		return models.NewInputError(op, "origin and candidate prefixes must differ, both are %q", o.OriginPrefix)
	}
	return nil
}

// Match enumerates, for every station attached under OriginPrefix, the
// stations attached under CandidatePrefix that are reachable along the network
// within the configured bounds. Results are ordered by origin id, candidate
// id, position class and distance.
func Match(ctx context.Context, net *network.Network, opts Options) ([]models.Match, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if net == nil {
		return nil, models.NewInputError("match", "network is nil")
	}

	start := time.Now()
	logger := logging.ForComponent(opts.Logger, "matcher")

	origins := net.Stations(opts.OriginPrefix)
	tr := newTraversal(net, opts.CandidatePrefix, opts.bounds())

	logging.LogOperation(logger, "matching_started",
		slog.Int("origins", len(origins)),
		slog.String("origin_prefix", opts.OriginPrefix),
		slog.String("candidate_prefix", opts.CandidatePrefix))

	results, err := run(ctx, tr, origins, opts, logger)
	if err != nil {
		return nil, err
	}

	var matches []models.Match
	for _, r := range results {
		for _, h := range r.hits {
			m := h.record(net, r.origin.StationID)
			if !opts.SkipPaths {
				m.Path = BuildPath(net, h.edges, h.pos, r.origin.Position, h.position)
			}
			matches = append(matches, m)
		}
	}
	SortMatches(matches)

	counts := map[models.Position]int{}
	for _, m := range matches {
		counts[m.Pos]++
	}
	for _, pos := range []models.Position{models.On, models.Down, models.Up} {
		opts.Metrics.Emitted(pos.String(), counts[pos])
	}
	opts.Metrics.ObserveStage("match", start)

	logging.LogOperation(logger, "matching_completed",
		slog.Int("matches", len(matches)),
		slog.Int("on", counts[models.On]),
		slog.Int("down", counts[models.Down]),
		slog.Int("up", counts[models.Up]),
		slog.Duration("duration", time.Since(start)))

	return matches, nil
}

// SortMatches orders matches by origin id, candidate id, position class
// (On, Down, Up) and distance.
func SortMatches(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.OriginID != b.OriginID {
			return a.OriginID < b.OriginID
		}
		if a.CandidateID != b.CandidateID {
			return a.CandidateID < b.CandidateID
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		return a.Distance < b.Distance
	})
}
