package network

import (
	"log/slog"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/models"
)

// DefaultIntegrityThreshold is the score below which a network is reported as
// directionally suspect.
const DefaultIntegrityThreshold = 0.95

// IntegrityReport is the directional consistency of a network's next_down
// attributes.
type IntegrityReport struct {
	Total        int                `json:"total"`
	Consistent   int                `json:"consistent"`
	Score        float64            `json:"score"`
	Threshold    float64            `json:"threshold"`
	Inconsistent []models.SegmentID `json:"inconsistent"`
}

// Passed reports whether the score reaches the threshold.
func (r IntegrityReport) Passed() bool {
	return r.Score >= r.Threshold
}

// CheckIntegrity compares every edge's next_down with the edges leaving its
// downstream vertex. An edge is consistent when next_down is one of those
// edges, or when next_down is the sentinel and the vertex has no outgoing
// edges. A score below threshold is logged as a warning.
func CheckIntegrity(n *Network, threshold float64, logger *slog.Logger, m *metrics.Metrics) IntegrityReport {
	logger = logging.ForComponent(logger, "integrity")

	report := IntegrityReport{Total: len(n.Edges), Threshold: threshold}
	for _, edge := range n.Edges {
		if edgeConsistent(n, edge) {
			report.Consistent++
		} else {
			report.Inconsistent = append(report.Inconsistent, edge.Segment.ID)
		}
	}

	if report.Total > 0 {
		report.Score = float64(report.Consistent) / float64(report.Total)
	}
	m.SetIntegrity(report.Score)

	if !report.Passed() {
		logger.Warn("network directional consistency below threshold",
			slog.Float64("score", report.Score),
			slog.Float64("threshold", threshold),
			slog.Int("inconsistent", len(report.Inconsistent)))
	} else {
		logging.LogOperation(logger, "network_integrity_checked", slog.Float64("score", report.Score))
	}
	return report
}

func edgeConsistent(n *Network, edge Edge) bool {
	out := n.Nodes[edge.To].Out
	if edge.Segment.NextDown == models.NoDownstream {
		return len(out) == 0
	}
	for _, e := range out {
		if n.Edges[e].Segment.ID == edge.Segment.NextDown {
			return true
		}
	}
	return false
}
