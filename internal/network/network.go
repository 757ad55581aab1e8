package network

import (
	"log/slog"
	"sort"

	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/metrics"
	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
)

// Node is a distinct (quantised) vertex coordinate.
type Node struct {
	Key   geo.NodeKey
	Point orb.Point
	Out   []int // edge indices leaving the node, ordered by segment id
	In    []int // edge indices entering the node, ordered by segment id
}

// Edge is a segment directed from its upstream to its downstream vertex.
type Edge struct {
	From    int
	To      int
	Segment *models.Segment
}

// Network is a directed multigraph over river segments. It is read-only after
// Build returns.
type Network struct {
	Nodes     []Node
	Edges     []Edge
	Skipped   []models.SegmentID
	Precision float64

	segments []models.Segment
	byID     map[models.SegmentID]int
}

// Options controls network construction.
type Options struct {
	// Precision is the vertex rounding in CRS units; zero means geo.DefaultPrecision.
	Precision float64
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Build creates one node per distinct vertex coordinate and one directed edge
// per segment. Segments whose upstream and downstream vertices coincide are
// skipped with a warning. The segments are not modified.
func Build(segments []models.Segment, opts Options) (*Network, error) {
	const op = "network.build"

	if len(segments) == 0 {
		return nil, models.NewInputError(op, "segment set is empty")
	}

	precision := opts.Precision
	if precision <= 0 {
		precision = geo.DefaultPrecision
	}
	logger := logging.ForComponent(opts.Logger, "network")

	n := &Network{
		Precision: precision,
		segments:  make([]models.Segment, len(segments)),
		byID:      make(map[models.SegmentID]int, len(segments)),
	}
	copy(n.segments, segments)

	seen := make(map[models.SegmentID]bool, len(segments))
	for i := range n.segments {
		seg := &n.segments[i]
		if seen[seg.ID] {
			return nil, models.NewInputError(op, "duplicate segment id %d", seg.ID)
		}
		seen[seg.ID] = true
		if len(seg.Geometry) < 2 {
			return nil, models.NewInputError(op, "segment %d has %d vertices, need at least 2", seg.ID, len(seg.Geometry))
		}
		if !(seg.Length > 0) {
			return nil, models.NewInputError(op, "segment %d has non-positive length %g", seg.ID, seg.Length)
		}
	}

	nodeIndex := make(map[geo.NodeKey]int)
	nodeFor := func(p orb.Point) int {
		key := geo.Quantize(p, precision)
		if idx, ok := nodeIndex[key]; ok {
			return idx
		}
		idx := len(n.Nodes)
		nodeIndex[key] = idx
		n.Nodes = append(n.Nodes, Node{Key: key, Point: p})
		return idx
	}

	order := make([]int, len(n.segments))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return n.segments[order[a]].ID < n.segments[order[b]].ID
	})

	for _, i := range order {
		seg := &n.segments[i]
		if geo.Quantize(seg.Start(), precision) == geo.Quantize(seg.End(), precision) {
			logger.Warn("skipping self-loop segment", slog.Int64("segment_id", int64(seg.ID)))
			n.Skipped = append(n.Skipped, seg.ID)
			continue
		}
		from := nodeFor(seg.Start())
		to := nodeFor(seg.End())

		edge := len(n.Edges)
		n.Edges = append(n.Edges, Edge{From: from, To: to, Segment: seg})
		n.byID[seg.ID] = edge
		n.Nodes[from].Out = append(n.Nodes[from].Out, edge)
		n.Nodes[to].In = append(n.Nodes[to].In, edge)
	}

	if len(n.Skipped) > 0 {
		opts.Metrics.SkippedSegments(len(n.Skipped))
	}
	logging.LogOperation(logger, "network_built",
		slog.Int("nodes", len(n.Nodes)),
		slog.Int("edges", len(n.Edges)),
		slog.Int("skipped", len(n.Skipped)))

	return n, nil
}

// EdgeByID returns the index of the edge carrying the segment with the given id.
func (n *Network) EdgeByID(id models.SegmentID) (int, bool) {
	idx, ok := n.byID[id]
	return idx, ok
}

// Segments returns the network's copy of the segment collection.
func (n *Network) Segments() []models.Segment {
	return n.segments
}

// StationLocation is where a station sits on the network.
type StationLocation struct {
	StationID string
	Edge      int
	Position  float64
}

// Stations lists the stations attached under prefix, ordered by station id.
// Stations on skipped segments are not reachable and are left out.
func (n *Network) Stations(prefix string) []StationLocation {
	var out []StationLocation
	for e := range n.Edges {
		for _, a := range n.Edges[e].Segment.Attached[prefix] {
			out = append(out, StationLocation{StationID: a.StationID, Edge: e, Position: a.Position})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StationID < out[j].StationID
	})
	return out
}
