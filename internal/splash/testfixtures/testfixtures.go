// Package testfixtures provides small, deterministic graphs for exercising
// the splash scheduler in tests, mirroring the reference codebase's habit
// of centralising fixture builders rather than constructing ad hoc structs
// in every test file.
package testfixtures

import "github.com/splashsched/scheduler/internal/graph"

// IsolatedVertices returns a graph of n vertices with no edges.
func IsolatedVertices(n int) *graph.Adjacency {
	return graph.NewAdjacency(n, nil)
}

// Path returns a graph 0 -> 1 -> ... -> n-1.
func Path(n int) *graph.Adjacency {
	edges := make([]graph.Edge, 0, n-1)
	for v := 0; v < n-1; v++ {
		edges = append(edges, graph.Edge{From: v, To: v + 1})
	}
	return graph.NewAdjacency(n, edges)
}

// Star returns a graph with n leaves, each with an edge leaf -> centre
// (centre is vertex 0), matching the "many in-neighbours of one root"
// shape splash growth is designed around.
func Star(leaves int) *graph.Adjacency {
	n := leaves + 1
	edges := make([]graph.Edge, 0, leaves)
	for v := 1; v < n; v++ {
		edges = append(edges, graph.Edge{From: v, To: 0})
	}
	return graph.NewAdjacency(n, edges)
}

// Ring returns a graph 0 -> 1 -> ... -> n-1 -> 0.
func Ring(n int) *graph.Adjacency {
	edges := make([]graph.Edge, 0, n)
	for v := 0; v < n; v++ {
		edges = append(edges, graph.Edge{From: v, To: (v + 1) % n})
	}
	return graph.NewAdjacency(n, edges)
}
