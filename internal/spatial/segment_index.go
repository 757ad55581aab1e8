package spatial

import (
	"math"

	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// tieTolerance is the distance difference below which two segments are
// considered equally near.
const tieTolerance = 1e-9

// SegmentIndex is an R-tree over segment bounding boxes.
type SegmentIndex struct {
	tree     *rtree.RTree
	segments []models.Segment
	bounds   orb.Bound
}

// Hit is a segment found by a nearest query, with the projection of the query
// point onto it.
type Hit struct {
	Index      int
	Segment    *models.Segment
	Projection geo.Projection
}

// NewSegmentIndex creates an R-tree from the segments' bounding boxes. The
// index refers to segments by position, so the slice must not be reordered
// while the index is in use.
func NewSegmentIndex(segments []models.Segment) *SegmentIndex {
	tree := &rtree.RTree{}

	var bounds orb.Bound
	for i := range segments {
		b := segments[i].Geometry.Bound()
		if i == 0 {
			bounds = b
		} else {
			bounds = bounds.Union(b)
		}
		tree.Insert(
			[2]float64{b.Min[0], b.Min[1]},
			[2]float64{b.Max[0], b.Max[1]},
			i,
		)
	}

	return &SegmentIndex{
		tree:     tree,
		segments: segments,
		bounds:   bounds,
	}
}

// Len returns the number of indexed segments.
func (idx *SegmentIndex) Len() int {
	return len(idx.segments)
}

// Bounds returns the union of all segment bounding boxes.
func (idx *SegmentIndex) Bounds() orb.Bound {
	return idx.bounds
}

// SearchBound returns the indices of segments whose bounding box intersects b.
func (idx *SegmentIndex) SearchBound(b orb.Bound) []int {
	var results []int
	idx.tree.Search(
		[2]float64{b.Min[0], b.Min[1]},
		[2]float64{b.Max[0], b.Max[1]},
		func(min, max [2]float64, data interface{}) bool {
			if i, ok := data.(int); ok {
				results = append(results, i)
			}
			return true
		},
	)
	return results
}

// Nearest returns the segment closest to p. With a finite maxDistance, only
// segments within that distance are considered. Equally near segments are
// ordered by: projection at the segment's downstream end first (the segment
// flows into the shared vertex), then lowest segment id.
func (idx *SegmentIndex) Nearest(p orb.Point, maxDistance float64) (Hit, bool) {
	if len(idx.segments) == 0 {
		return Hit{}, false
	}

	bounded := maxDistance > 0 && geo.IsFinite(maxDistance)
	if bounded {
		hit, ok := idx.nearestWithin(p, maxDistance)
		if !ok || hit.Projection.Distance > maxDistance {
			return Hit{}, false
		}
		return hit, true
	}

	// Grow a square window until the best hit inside it is provably the
	// nearest: any segment at distance d has a bounding box that intersects
	// the square of half-size d.
	reach := geo.FarthestCornerDistance(p, idx.bounds)
	r := initialRadius(idx.bounds)
	for {
		hit, ok := idx.nearestWithin(p, r)
		if ok && hit.Projection.Distance <= r {
			return hit, true
		}
		if r >= reach {
			return hit, ok
		}
		r *= 2
	}
}

func (idx *SegmentIndex) nearestWithin(p orb.Point, r float64) (Hit, bool) {
	var best Hit
	found := false
	for _, i := range idx.SearchBound(geo.SquareAround(p, r)) {
		seg := &idx.segments[i]
		candidate := Hit{Index: i, Segment: seg, Projection: geo.Project(seg.Geometry, p)}
		if !found || better(candidate, best) {
			best = candidate
			found = true
		}
	}
	return best, found
}

func better(a, b Hit) bool {
	da, db := a.Projection.Distance, b.Projection.Distance
	if math.Abs(da-db) > tieTolerance {
		return da < db
	}
	aEnd := atDownstreamEnd(a)
	bEnd := atDownstreamEnd(b)
	if aEnd != bEnd {
		return aEnd
	}
	return a.Segment.ID < b.Segment.ID
}

func atDownstreamEnd(h Hit) bool {
	return math.Abs(h.Segment.Length-h.Projection.Position) <= tieTolerance
}

func initialRadius(b orb.Bound) float64 {
	extent := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	r := extent / 256
	if r < 1 {
		r = 1
	}
	return r
}
