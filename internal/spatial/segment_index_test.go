package spatial

import (
	"math"
	"testing"

	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSegments() []models.Segment {
	return []models.Segment{
		models.NewSegment(30, 10, orb.LineString{{0, 0}, {1000, 0}}),
		models.NewSegment(10, 0, orb.LineString{{1000, 0}, {2000, 0}}),
		models.NewSegment(20, 10, orb.LineString{{1000, 1000}, {1000, 0}}),
		models.NewSegment(40, 0, orb.LineString{{5000, 5000}, {6000, 5000}}),
	}
}

func TestNearest(t *testing.T) {
	idx := NewSegmentIndex(testSegments())
	require.Equal(t, 4, idx.Len())

	tests := []struct {
		name        string
		point       orb.Point
		maxDistance float64
		expectedID  models.SegmentID
		expectedPos float64
		expectFound bool
	}{
		{
			name:        "Point just above the first segment",
			point:       orb.Point{400, 15},
			maxDistance: math.Inf(1),
			expectedID:  30,
			expectedPos: 400,
			expectFound: true,
		},
		{
			name:        "Point near the far segment, unbounded search",
			point:       orb.Point{5500, 4000},
			maxDistance: math.Inf(1),
			expectedID:  40,
			expectedPos: 500,
			expectFound: true,
		},
		{
			name:        "Bounded search finds nothing",
			point:       orb.Point{3000, 3000},
			maxDistance: 100,
			expectFound: false,
		},
		{
			name:        "Bounded search within reach",
			point:       orb.Point{1500, 80},
			maxDistance: 100,
			expectedID:  10,
			expectedPos: 500,
			expectFound: true,
		},
		{
			name:        "Point far outside every bound still resolves",
			point:       orb.Point{-90000, -90000},
			maxDistance: 0,
			expectedID:  30,
			expectedPos: 0,
			expectFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := idx.Nearest(tt.point, tt.maxDistance)
			assert.Equal(t, tt.expectFound, ok)
			if tt.expectFound {
				assert.Equal(t, tt.expectedID, hit.Segment.ID)
				assert.InDelta(t, tt.expectedPos, hit.Projection.Position, 1e-9)
			}
		})
	}
}

func TestNearestOnConfluenceVertexPrefersIncomingLowestID(t *testing.T) {
	idx := NewSegmentIndex(testSegments())

	// (1000,0) is the end of 30 and 20 and the start of 10.
	hit, ok := idx.Nearest(orb.Point{1000, 0}, math.Inf(1))
	require.True(t, ok)
	assert.Equal(t, models.SegmentID(20), hit.Segment.ID)
	assert.InDelta(t, hit.Segment.Length, hit.Projection.Position, 1e-9)
}

func TestNearestIsIdempotent(t *testing.T) {
	idx := NewSegmentIndex(testSegments())
	first, ok := idx.Nearest(orb.Point{1000, 0}, 50)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := idx.Nearest(orb.Point{1000, 0}, 50)
		require.True(t, ok)
		assert.Equal(t, first.Segment.ID, again.Segment.ID)
	}
}

func TestSearchBound(t *testing.T) {
	idx := NewSegmentIndex(testSegments())
	found := idx.SearchBound(orb.Bound{Min: orb.Point{4000, 4000}, Max: orb.Point{7000, 7000}})
	assert.Equal(t, []int{3}, found)

	empty := NewSegmentIndex(nil)
	_, ok := empty.Nearest(orb.Point{0, 0}, math.Inf(1))
	assert.False(t, ok)
}
