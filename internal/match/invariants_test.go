package match

import (
	"context"
	"fmt"
	"testing"

	"gaugelink.hydrology.org/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// basin is a small dendritic network:
//
//	21 ─┐
//	    ├─ 30 ── 40 ── 50
//	22 ─┘        │
//	       41 ───┘
func basin() *fixture {
	return newFixture(
		seg(21, 30, orb.Point{0, 400}, orb.Point{300, 400}, orb.Point{500, 200}),
		seg(22, 30, orb.Point{0, 0}, orb.Point{500, 200}),
		seg(30, 40, orb.Point{500, 200}, orb.Point{1100, 200}),
		seg(41, 40, orb.Point{1100, -500}, orb.Point{1100, 200}),
		seg(40, 50, orb.Point{1100, 200}, orb.Point{1600, 200}, orb.Point{1900, 600}),
		seg(50, 0, orb.Point{1900, 600}, orb.Point{2900, 600}),
	).
		attach(origins, 21, "HA001", 120).
		attach(origins, 30, "HA002", 450).
		attach(origins, 41, "HA003", 60).
		attach(origins, 50, "HA004", 700).
		attach(candidates, 22, "P01", 90).
		attach(candidates, 30, "P02", 100).
		attach(candidates, 30, "P03", 580).
		attach(candidates, 40, "P04", 610).
		attach(candidates, 41, "P05", 500).
		attach(candidates, 50, "P06", 20)
}

func TestMatchInvariants(t *testing.T) {
	n := basin().network(t)
	got, err := Match(context.Background(), n, opts(0))
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, m := range got {
		assert.GreaterOrEqual(t, m.Distance, 0.0)
		if m.Pos == models.On {
			assert.Equal(t, 0, m.SegmentsApart)
		} else {
			assert.Equal(t, len(m.Edges)-1, m.SegmentsApart)
		}
		assert.InDelta(t, m.Distance, planar.Length(m.Path), 1e-6, "%s -> %s", m.OriginID, m.CandidateID)
	}
}

func TestMatchSymmetry(t *testing.T) {
	forward, err := Match(context.Background(), basin().network(t), opts(0))
	require.NoError(t, err)

	// Swap the roles by swapping prefixes.
	swapped := opts(0)
	swapped.OriginPrefix, swapped.CandidatePrefix = candidates, origins
	backward, err := Match(context.Background(), basin().network(t), swapped)
	require.NoError(t, err)

	index := map[string]models.Match{}
	for _, m := range backward {
		index[fmt.Sprintf("%s|%s|%s", m.OriginID, m.CandidateID, m.Pos)] = m
	}

	checked := 0
	for _, m := range forward {
		var want models.Position
		switch m.Pos {
		case models.Down:
			want = models.Up
		case models.Up:
			want = models.Down
		default:
			want = models.On
		}
		r, ok := index[fmt.Sprintf("%s|%s|%s", m.CandidateID, m.OriginID, want)]
		require.True(t, ok, "%s %s of %s has no mirror", m.CandidateID, m.Pos, m.OriginID)
		assert.InDelta(t, m.Distance, r.Distance, 1e-9)
		assert.Equal(t, m.SegmentsApart, r.SegmentsApart)
		checked++
	}
	assert.Equal(t, len(backward), checked)
}

func TestMatchMonotonicInMaxDistance(t *testing.T) {
	n := basin().network(t)

	key := func(m models.Match) string {
		return fmt.Sprintf("%s|%s|%s", m.OriginID, m.CandidateID, m.Pos)
	}

	var previous []models.Match
	for _, maxDistance := range []float64{100, 400, 900, 1500, 3000, 0} {
		got, err := Match(context.Background(), n, opts(maxDistance))
		require.NoError(t, err)

		current := map[string]models.Match{}
		for _, m := range got {
			current[key(m)] = m
		}
		for _, m := range previous {
			c, ok := current[key(m)]
			require.True(t, ok, "match %s lost at max distance %g", key(m), maxDistance)
			assert.Equal(t, m, c)
		}
		assert.GreaterOrEqual(t, len(got), len(previous))
		previous = got
	}
}

func TestMatchDeterministic(t *testing.T) {
	n := basin().network(t)

	serial := opts(0)
	first, err := Match(context.Background(), n, serial)
	require.NoError(t, err)
	second, err := Match(context.Background(), n, serial)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parallel := opts(0)
	parallel.Workers = 4
	third, err := Match(context.Background(), n, parallel)
	require.NoError(t, err)
	assert.Equal(t, first, third)

	for i := 1; i < len(first); i++ {
		a, b := first[i-1], first[i]
		assert.True(t, a.OriginID < b.OriginID ||
			(a.OriginID == b.OriginID && a.CandidateID <= b.CandidateID))
	}
}

func TestMatchBasinExpectations(t *testing.T) {
	got, err := Match(context.Background(), basin().network(t), opts(0))
	require.NoError(t, err)

	type row struct {
		candidate string
		pos       models.Position
		apart     int
	}
	var rows []row
	for _, m := range got {
		if m.OriginID == "HA002" {
			rows = append(rows, row{m.CandidateID, m.Pos, m.SegmentsApart})
		}
	}

	// HA002 sits on 30 at 450 m. Its upstream tributaries are 21 and 22;
	// downstream lie 40 then 50. 41 joins below HA002 and is not reachable
	// in either direction.
	assert.Equal(t, []row{
		{"P01", models.Up, 1},
		{"P02", models.On, 0},
		{"P03", models.On, 0},
		{"P04", models.Down, 1},
		{"P06", models.Down, 2},
	}, rows)
}
