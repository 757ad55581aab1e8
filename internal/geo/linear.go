package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Projection is the result of projecting a point onto a polyline.
type Projection struct {
	Point    orb.Point // foot of the perpendicular on the polyline
	Position float64   // arc length from the first vertex to Point
	Distance float64   // planar distance from the query point to Point
	Index    int       // index of the sub-segment holding Point
}

// projectOntoSegment projects p onto the segment a-b. It returns the distance
// from p to the closest point, the clamped ratio t ∈ [0,1] and that point.
func projectOntoSegment(p, a, b orb.Point) (distance, ratio float64, foot orb.Point) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]

	if dx == 0 && dy == 0 {
		return planar.Distance(p, a), 0, a
	}

	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	foot = orb.Point{a[0] + t*dx, a[1] + t*dy}
	return planar.Distance(p, foot), t, foot
}

// CumulativeLengths returns, for each vertex, the arc length from the first vertex.
func CumulativeLengths(ls orb.LineString) []float64 {
	if len(ls) == 0 {
		return nil
	}
	cum := make([]float64, len(ls))
	for i := 1; i < len(ls); i++ {
		cum[i] = cum[i-1] + planar.Distance(ls[i-1], ls[i])
	}
	return cum
}

// Project finds the point on ls closest to p. Ties between sub-segments are
// resolved in favour of the earliest one.
func Project(ls orb.LineString, p orb.Point) Projection {
	if len(ls) == 0 {
		return Projection{Distance: math.Inf(1)}
	}
	if len(ls) == 1 {
		return Projection{Point: ls[0], Distance: planar.Distance(p, ls[0])}
	}

	best := Projection{Distance: math.Inf(1)}
	cum := 0.0
	for i := 0; i < len(ls)-1; i++ {
		subLength := planar.Distance(ls[i], ls[i+1])
		d, t, foot := projectOntoSegment(p, ls[i], ls[i+1])
		if d < best.Distance {
			best = Projection{
				Point:    foot,
				Position: cum + t*subLength,
				Distance: d,
				Index:    i,
			}
		}
		cum += subLength
	}

	if best.Position > cum {
		best.Position = cum
	}
	return best
}

// Interpolate returns the point at arc length d along ls. d is clamped to the
// polyline's extent.
func Interpolate(ls orb.LineString, d float64) orb.Point {
	if len(ls) == 0 {
		return orb.Point{}
	}
	if d <= 0 {
		return ls[0]
	}

	cum := 0.0
	for i := 0; i < len(ls)-1; i++ {
		subLength := planar.Distance(ls[i], ls[i+1])
		if cum+subLength >= d {
			if subLength == 0 {
				return ls[i]
			}
			return lerp(ls[i], ls[i+1], (d-cum)/subLength)
		}
		cum += subLength
	}
	return ls[len(ls)-1]
}

// SubLine returns the part of ls between arc lengths from and to (from <= to).
// The result always has at least two points; a zero-length range yields a
// degenerate two-point line.
func SubLine(ls orb.LineString, from, to float64) orb.LineString {
	if len(ls) == 0 {
		return nil
	}
	if from > to {
		from, to = to, from
	}

	out := orb.LineString{Interpolate(ls, from)}
	cum := 0.0
	for i := 0; i < len(ls)-1; i++ {
		cum += planar.Distance(ls[i], ls[i+1])
		if cum > from && cum < to {
			out = append(out, ls[i+1])
		}
	}
	out = append(out, Interpolate(ls, to))
	return out
}

// Reversed returns a reversed copy of ls.
func Reversed(ls orb.LineString) orb.LineString {
	out := ls.Clone()
	out.Reverse()
	return out
}

// Stitch concatenates parts into a single polyline. A joint point is dropped
// when it lies within tolerance of the previous part's last point.
func Stitch(tolerance float64, parts ...orb.LineString) orb.LineString {
	var out orb.LineString
	for _, part := range parts {
		for _, pt := range part {
			if len(out) > 0 && planar.Distance(out[len(out)-1], pt) <= tolerance {
				continue
			}
			out = append(out, pt)
		}
	}
	if len(out) == 1 {
		out = append(out, out[0])
	}
	return out
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}
