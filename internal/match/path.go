package match

import (
	"gaugelink.hydrology.org/internal/geo"
	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/network"

	"github.com/paulmach/orb"
)

// BuildPath reconstructs the polyline travelled from an origin at
// originPos on edges[0] to a candidate at candidatePos on the last edge.
// Downstream paths follow segment direction; upstream paths run against it.
// The result is a single connected line whose planar length equals the match
// distance up to the network's vertex precision.
func BuildPath(net *network.Network, edges []int, pos models.Position, originPos, candidatePos float64) orb.LineString {
	if len(edges) == 0 {
		return nil
	}
	geom := func(e int) orb.LineString {
		return net.Edges[e].Segment.Geometry
	}
	length := func(e int) float64 {
		return net.Edges[e].Segment.Length
	}

	host := edges[0]
	if pos == models.On {
		part := geo.SubLine(geom(host), originPos, candidatePos)
		if candidatePos < originPos {
			part = geo.Reversed(part)
		}
		return part
	}

	last := edges[len(edges)-1]
	parts := make([]orb.LineString, 0, len(edges))
	switch pos {
	case models.Down:
		parts = append(parts, geo.SubLine(geom(host), originPos, length(host)))
		for _, e := range edges[1 : len(edges)-1] {
			parts = append(parts, geom(e))
		}
		parts = append(parts, geo.SubLine(geom(last), 0, candidatePos))
	case models.Up:
		parts = append(parts, geo.Reversed(geo.SubLine(geom(host), 0, originPos)))
		for _, e := range edges[1 : len(edges)-1] {
			parts = append(parts, geo.Reversed(geom(e)))
		}
		parts = append(parts, geo.Reversed(geo.SubLine(geom(last), candidatePos, length(last))))
	}
	return geo.Stitch(net.Precision, parts...)
}
