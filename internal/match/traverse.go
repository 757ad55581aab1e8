package match

import (
	"math"

	"gaugelink.hydrology.org/internal/models"
	"gaugelink.hydrology.org/internal/network"
)

// hit is a candidate reached from one origin.
type hit struct {
	candidateID string
	pos         models.Position
	distance    float64
	depth       int
	position    float64 // candidate's linear position on its host edge
	edges       []int   // origin host first, candidate host last
}

func (h hit) record(net *network.Network, originID string) models.Match {
	ids := make([]models.SegmentID, len(h.edges))
	for i, e := range h.edges {
		ids[i] = net.Edges[e].Segment.ID
	}
	return models.Match{
		OriginID:      originID,
		CandidateID:   h.candidateID,
		Distance:      h.distance,
		Pos:           h.pos,
		SegmentsApart: h.depth,
		Edges:         ids,
	}
}

// preferred reports whether a should replace b for the same
// (candidate, position class).
func preferred(net *network.Network, a, b hit) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if a.depth != b.depth {
		return a.depth < b.depth
	}
	for i := 0; i < len(a.edges) && i < len(b.edges); i++ {
		ia, ib := net.Edges[a.edges[i]].Segment.ID, net.Edges[b.edges[i]].Segment.ID
		if ia != ib {
			return ia < ib
		}
	}
	return len(a.edges) < len(b.edges)
}

// traversal holds the read-only state shared by every origin of a run.
type traversal struct {
	net        *network.Network
	candidates [][]models.Attachment // per edge, ascending position
	bounds     bounds
}

func newTraversal(net *network.Network, candidatePrefix string, b bounds) *traversal {
	t := &traversal{
		net:        net,
		candidates: make([][]models.Attachment, len(net.Edges)),
		bounds:     b,
	}
	for i, e := range net.Edges {
		t.candidates[i] = e.Segment.Attached[candidatePrefix]
	}
	return t
}

// frame is one level of an explicit depth-first descent.
type frame struct {
	node  int
	next  int     // index of the next adjacent edge to try
	depth int     // edges entered beyond the host to reach node
	dist  float64 // distance from the origin to node
	via   int     // edge used to reach node, -1 at the root
}

// walker carries the per-origin scratch state.
type walker struct {
	t       *traversal
	visited []bool
	path    []int
	hits    map[hitKey]hit
	entered int
}

type hitKey struct {
	candidateID string
	pos         models.Position
}

// origin runs the On, Down and Up traversals for one origin and returns its
// de-duplicated hits together with the number of edges entered.
func (t *traversal) origin(o network.StationLocation) ([]hit, int) {
	w := &walker{
		t:       t,
		visited: make([]bool, len(t.net.Edges)),
		hits:    make(map[hitKey]hit),
	}

	w.onSegment(o)
	w.descend(o, models.Down)
	w.descend(o, models.Up)

	out := make([]hit, 0, len(w.hits))
	for _, h := range w.hits {
		out = append(out, h)
	}
	return out, w.entered
}

func (w *walker) emit(h hit) {
	key := hitKey{candidateID: h.candidateID, pos: h.pos}
	if prev, ok := w.hits[key]; ok && !preferred(w.t.net, h, prev) {
		return
	}
	w.hits[key] = h
}

func (w *walker) onSegment(o network.StationLocation) {
	b := w.t.bounds
	for _, c := range w.t.candidates[o.Edge] {
		d := math.Abs(c.Position - o.Position)
		if d <= b.onThreshold || !(d > b.maxDistance) {
			w.emit(hit{
				candidateID: c.StationID,
				pos:         models.On,
				distance:    d,
				position:    c.Position,
				edges:       []int{o.Edge},
			})
		}
	}
}

// descend walks downstream over outgoing edges (Down) or upstream over
// incoming edges (Up) from the origin's host segment.
func (w *walker) descend(o network.StationLocation, dir models.Position) {
	net := w.t.net
	b := w.t.bounds
	host := net.Edges[o.Edge]

	start, d0 := host.To, host.Segment.Length-o.Position
	if dir == models.Up {
		start, d0 = host.From, o.Position
	}
	if d0 > b.maxDistance || b.maxDepth < 1 {
		return
	}

	w.visited[o.Edge] = true
	w.path = append(w.path[:0], o.Edge)
	stack := []frame{{node: start, dist: d0, via: -1}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		adjacent := net.Nodes[f.node].Out
		if dir == models.Up {
			adjacent = net.Nodes[f.node].In
		}

		if f.next >= len(adjacent) {
			if f.via >= 0 {
				w.visited[f.via] = false
				w.path = w.path[:len(w.path)-1]
			}
			stack = stack[:len(stack)-1]
			continue
		}

		e := adjacent[f.next]
		f.next++
		if w.visited[e] {
			continue
		}

		depth := f.depth + 1
		dist := f.dist
		w.entered++
		w.path = append(w.path, e)
		w.visitCandidates(e, dir, dist, depth)

		edge := net.Edges[e]
		next := dist + edge.Segment.Length
		if next > b.maxDistance || depth >= b.maxDepth {
			w.path = w.path[:len(w.path)-1]
			continue
		}

		w.visited[e] = true
		node := edge.To
		if dir == models.Up {
			node = edge.From
		}
		stack = append(stack, frame{node: node, depth: depth, dist: next, via: e})
	}

	w.visited[o.Edge] = false
}

// visitCandidates emits the candidates on edge e in travel order, stopping at
// the first one past the distance bound. dist is the distance from the origin
// to the point where the walk enters e.
func (w *walker) visitCandidates(e int, dir models.Position, dist float64, depth int) {
	cands := w.t.candidates[e]
	length := w.t.net.Edges[e].Segment.Length
	maxDistance := w.t.bounds.maxDistance

	for i := range cands {
		var c models.Attachment
		var d float64
		if dir == models.Up {
			c = cands[len(cands)-1-i]
			d = dist + (length - c.Position)
		} else {
			c = cands[i]
			d = dist + c.Position
		}
		if d > maxDistance {
			break
		}
		w.emit(hit{
			candidateID: c.StationID,
			pos:         dir,
			distance:    d,
			depth:       depth,
			position:    c.Position,
			edges:       append([]int(nil), w.path...),
		})
	}
}
