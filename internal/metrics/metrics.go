package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gaugelink"

// Metrics holds the pipeline instruments. A nil *Metrics is valid and records
// nothing, so library code can be used without a registry.
type Metrics struct {
	StationsSnapped   *prometheus.CounterVec
	StationsUnsnapped *prometheus.CounterVec
	SegmentsSkipped   prometheus.Counter
	IntegrityScore    prometheus.Gauge
	OriginsProcessed  prometheus.Counter
	EdgesTraversed    prometheus.Counter
	MatchesEmitted    *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StationsSnapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_snapped_total",
			Help:      "Stations attached to a river segment, by prefix.",
		}, []string{"prefix"}),
		StationsUnsnapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_unsnapped_total",
			Help:      "Stations farther than the snap distance from every segment, by prefix.",
		}, []string{"prefix"}),
		SegmentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_skipped_total",
			Help:      "Self-loop segments dropped while building the network.",
		}),
		IntegrityScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_integrity_score",
			Help:      "Fraction of edges whose next_down agrees with the network topology.",
		}),
		OriginsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origins_processed_total",
			Help:      "Origin stations traversed by the matcher.",
		}),
		EdgesTraversed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_traversed_total",
			Help:      "Edges entered by the matcher's depth-first traversals.",
		}),
		MatchesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_emitted_total",
			Help:      "Match records emitted, by position class.",
		}, []string{"pos"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.StationsSnapped,
			m.StationsUnsnapped,
			m.SegmentsSkipped,
			m.IntegrityScore,
			m.OriginsProcessed,
			m.EdgesTraversed,
			m.MatchesEmitted,
			m.StageDuration,
		)
	}
	return m
}

func (m *Metrics) Snapped(prefix string, n int) {
	if m == nil {
		return
	}
	m.StationsSnapped.WithLabelValues(prefix).Add(float64(n))
}

func (m *Metrics) Unsnapped(prefix string, n int) {
	if m == nil {
		return
	}
	m.StationsUnsnapped.WithLabelValues(prefix).Add(float64(n))
}

func (m *Metrics) SkippedSegments(n int) {
	if m == nil {
		return
	}
	m.SegmentsSkipped.Add(float64(n))
}

func (m *Metrics) SetIntegrity(score float64) {
	if m == nil {
		return
	}
	m.IntegrityScore.Set(score)
}

// OriginDone records one finished origin traversal.
func (m *Metrics) OriginDone(edges int) {
	if m == nil {
		return
	}
	m.OriginsProcessed.Inc()
	m.EdgesTraversed.Add(float64(edges))
}

func (m *Metrics) Emitted(pos string, n int) {
	if m == nil {
		return
	}
	m.MatchesEmitted.WithLabelValues(pos).Add(float64(n))
}

// ObserveStage records the time elapsed since start for a pipeline stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
