package network

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

// Summary holds degree statistics used when debugging a loaded network.
type Summary struct {
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges"`
	Skipped     int     `json:"skipped"`
	Sources     int     `json:"sources"`      // nodes with no incoming edges
	Outlets     int     `json:"outlets"`      // nodes with no outgoing edges
	Confluences int     `json:"confluences"`  // nodes with in-degree >= 2
	Bifurcation int     `json:"bifurcations"` // nodes with out-degree >= 2
	TotalLength float64 `json:"totalLength"`
}

// Summarize computes degree statistics over the network.
func (n *Network) Summarize() Summary {
	s := Summary{Nodes: len(n.Nodes), Edges: len(n.Edges), Skipped: len(n.Skipped)}
	for _, node := range n.Nodes {
		if len(node.In) == 0 {
			s.Sources++
		}
		if len(node.Out) == 0 {
			s.Outlets++
		}
		if len(node.In) >= 2 {
			s.Confluences++
		}
		if len(node.Out) >= 2 {
			s.Bifurcation++
		}
	}
	for _, e := range n.Edges {
		s.TotalLength += e.Segment.Length
	}
	return s
}

// Dump writes the summary and, when verbose, every node's adjacency to w.
func (n *Network) Dump(w io.Writer, verbose bool) {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	cfg.Fdump(w, n.Summarize())
	if verbose {
		cfg.Fdump(w, n.Nodes)
	}
}
