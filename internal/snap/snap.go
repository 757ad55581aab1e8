package snap

import (
	"log/slog"
	"math"

	"gaugelink.hydrology.org/internal/logging"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/spatial"

	"github.com/paulmach/orb"
)

// Point is a station location to be snapped, keyed by the caller's chosen id.
type Point struct {
	ID       string
	Location orb.Point
}

// Snap records where a point lands on its nearest segment.
type Snap struct {
	StationID    string
	SegmentIndex int
	SegmentID    models.SegmentID
	Projected    orb.Point
	Position     float64 // linear distance from the segment's upstream end
	Offset       float64 // distance from the original point to Projected
	Connector    orb.LineString
}

// Snapper projects points onto the nearest segment of a fixed collection.
type Snapper struct {
	index    *spatial.SegmentIndex
	segments []models.Segment
	logger   *slog.Logger
}

// NewSnapper indexes segments for nearest queries. The snapper refers to
// segments by position in the slice.
func NewSnapper(segments []models.Segment, logger *slog.Logger) *Snapper {
	return &Snapper{
		index:    spatial.NewSegmentIndex(segments),
		segments: segments,
		logger:   logging.ForComponent(logger, "snapper"),
	}
}

// Segments returns the collection the snapper was built over.
func (s *Snapper) Segments() []models.Segment {
	return s.segments
}

// Snap assigns each point to its nearest segment. Points farther than
// maxDistance (when finite and positive) are left out of the result and their
// ids are returned as unsnapped, in input order.
func (s *Snapper) Snap(points []Point, maxDistance float64) (snaps []Snap, unsnapped []string) {
	snaps = make([]Snap, 0, len(points))
	for _, p := range points {
		hit, ok := s.index.Nearest(p.Location, maxDistance)
		if !ok {
			s.logger.Debug("station beyond snap distance",
				slog.String("station_id", p.ID),
				slog.Float64("max_distance", maxDistance))
			unsnapped = append(unsnapped, p.ID)
			continue
		}

		pos := math.Min(math.Max(hit.Projection.Position, 0), hit.Segment.Length)
		snaps = append(snaps, Snap{
			StationID:    p.ID,
			SegmentIndex: hit.Index,
			SegmentID:    hit.Segment.ID,
			Projected:    hit.Projection.Point,
			Position:     pos,
			Offset:       hit.Projection.Distance,
			Connector:    orb.LineString{p.Location, hit.Projection.Point},
		})
	}
	return snaps, unsnapped
}

// SnapPoints is a one-shot convenience over NewSnapper(...).Snap.
func SnapPoints(points []Point, segments []models.Segment, maxDistance float64) ([]Snap, []string) {
	return NewSnapper(segments, nil).Snap(points, maxDistance)
}
