package assign

import (
	"errors"
	"math"
	"testing"

	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() []models.Segment {
	return []models.Segment{
		models.NewSegment(1, 2, orb.LineString{{0, 0}, {1000, 0}}),
		models.NewSegment(2, 3, orb.LineString{{1000, 0}, {1500, 0}}),
		models.NewSegment(3, 0, orb.LineString{{1500, 0}, {2500, 0}}),
	}
}

func TestAssignSortsByPositionThenID(t *testing.T) {
	stations := []models.Station{
		{ID: "c", Point: orb.Point{350, 10}},
		{ID: "a", Point: orb.Point{100, -10}},
		{ID: "b", Point: orb.Point{350, -10}},
		{ID: "d", Point: orb.Point{1900, 5}},
	}

	out, report, err := Assign(chain(), stations, Options{Prefix: "pwqmn"})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Assigned)
	assert.Empty(t, report.Unassigned)

	assert.Equal(t, []models.Attachment{
		{StationID: "a", Position: 100},
		{StationID: "b", Position: 350},
		{StationID: "c", Position: 350},
	}, out[0].Attached["pwqmn"])
	assert.Empty(t, out[1].Attached["pwqmn"])
	assert.Equal(t, []models.Attachment{{StationID: "d", Position: 400}}, out[2].Attached["pwqmn"])
}

func TestAssignDoesNotMutateInput(t *testing.T) {
	segments := chain()
	_, _, err := Assign(segments, []models.Station{{ID: "a", Point: orb.Point{10, 0}}}, Options{Prefix: "hydat"})
	require.NoError(t, err)
	for _, seg := range segments {
		assert.Empty(t, seg.Attached)
	}
}

func TestAssignPrefixesCompose(t *testing.T) {
	origins := []models.Station{{ID: "02HA003", Point: orb.Point{800, 0}}}
	candidates := []models.Station{{ID: "02HA003", Point: orb.Point{2000, 0}}}

	withOrigins, _, err := Assign(chain(), origins, Options{Prefix: "hydat"})
	require.NoError(t, err)
	both, _, err := Assign(withOrigins, candidates, Options{Prefix: "pwqmn"})
	require.NoError(t, err)

	assert.Equal(t, []models.Attachment{{StationID: "02HA003", Position: 800}}, both[0].Attached["hydat"])
	assert.Equal(t, []models.Attachment{{StationID: "02HA003", Position: 500}}, both[2].Attached["pwqmn"])
	assert.NotContains(t, both[2].Attached, "hydat")
}

func TestAssignIsIdempotent(t *testing.T) {
	stations := []models.Station{
		{ID: "x", Point: orb.Point{1000, 0}},
		{ID: "y", Point: orb.Point{1200, 3}},
	}
	once, _, err := Assign(chain(), stations, Options{Prefix: "p"})
	require.NoError(t, err)
	twice, _, err := Assign(once, stations, Options{Prefix: "p"})
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	// A station on a shared vertex lands on the incoming segment.
	assert.Equal(t, []models.Attachment{{StationID: "x", Position: 1000}}, once[0].Attached["p"])
}

func TestAssignInvariants(t *testing.T) {
	stations := []models.Station{
		{ID: "s1", Point: orb.Point{-50, 0}},
		{ID: "s2", Point: orb.Point{999.9999, 40}},
		{ID: "s3", Point: orb.Point{3000, 0}},
		{ID: "s4", Point: orb.Point{1250, -70}},
	}
	out, _, err := Assign(chain(), stations, Options{Prefix: "p", MaxDistance: math.Inf(1)})
	require.NoError(t, err)

	seen := map[string]int{}
	for _, seg := range out {
		for _, a := range seg.Attached["p"] {
			assert.GreaterOrEqual(t, a.Position, 0.0)
			assert.LessOrEqual(t, a.Position, seg.Length)
			seen[a.StationID]++
		}
	}
	for _, st := range stations {
		assert.Equal(t, 1, seen[st.ID], st.ID)
	}
}

func TestAssignMaxDistance(t *testing.T) {
	stations := []models.Station{
		{ID: "near", Point: orb.Point{500, 20}},
		{ID: "far", Point: orb.Point{500, 10000}},
	}
	out, report, err := Assign(chain(), stations, Options{Prefix: "p", MaxDistance: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Assigned)
	assert.Equal(t, []string{"far"}, report.Unassigned)

	locs := Locate(out, "p")
	require.Contains(t, locs, "near")
	assert.NotContains(t, locs, "far")
	assert.Equal(t, models.SegmentID(1), locs["near"].SegmentID)
}

func TestAssignIDField(t *testing.T) {
	stations := []models.Station{
		{ID: "row-1", Point: orb.Point{10, 0}, Metadata: map[string]string{"STATION": "04001305802"}},
	}
	out, _, err := Assign(chain(), stations, Options{Prefix: "pwqmn", IDField: "STATION"})
	require.NoError(t, err)
	assert.Equal(t, "04001305802", out[0].Attached["pwqmn"][0].StationID)
}

func TestAssignInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		segments []models.Segment
		stations []models.Station
		opts     Options
	}{
		{
			name:     "Empty prefix",
			segments: chain(),
			opts:     Options{},
		},
		{
			name: "Empty segment set",
			opts: Options{Prefix: "p"},
		},
		{
			name:     "Duplicate station ids",
			segments: chain(),
			stations: []models.Station{{ID: "a"}, {ID: "a", Point: orb.Point{5, 5}}},
			opts:     Options{Prefix: "p"},
		},
		{
			name:     "Missing id field",
			segments: chain(),
			stations: []models.Station{{ID: "a"}},
			opts:     Options{Prefix: "p", IDField: "STATION"},
		},
		{
			name:     "Empty station id",
			segments: chain(),
			stations: []models.Station{{ID: ""}},
			opts:     Options{Prefix: "p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Assign(tt.segments, tt.stations, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
		})
	}
}
