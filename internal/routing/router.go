package routing

import (
	"container/heap"
	"sync"

	"github.com/citybus/citybus_core/internal/graph"
)

// RouteID identifies a built route held by the Router, for edge-by-edge
// retrieval.
type RouteID int

// Route is the result of a shortest-path query: the accumulated weight and a
// handle to the edge sequence.
type Route[W any] struct {
	ID        RouteID
	Weight    W
	EdgeCount int
}

// Router answers single-source shortest-path queries over a non-negatively
// weighted graph with Dijkstra relaxation, and retains every built route so
// its edges can be read back later. Safe for concurrent use.
type Router[W graph.Weight[W]] struct {
	g *graph.Directed[W]

	mu     sync.Mutex
	routes [][]graph.EdgeID
}

// NewRouter creates a router over a finished graph. The graph must not be
// mutated afterwards.
func NewRouter[W graph.Weight[W]](g *graph.Directed[W]) *Router[W] {
	return &Router[W]{g: g}
}

// BuildRoute computes a minimum-weight path from one vertex to another. The
// second return is false when no path exists. A vertex trivially reaches
// itself with the zero weight and an empty edge sequence.
func (r *Router[W]) BuildRoute(from, to graph.VertexID) (Route[W], bool) {
	best := make([]W, r.g.VertexCount())
	reached := make([]bool, r.g.VertexCount())
	prevEdge := make([]graph.EdgeID, r.g.VertexCount())
	for i := range prevEdge {
		prevEdge[i] = -1
	}

	var zero W
	open := &vertexQueue[W]{{vertex: from, weight: zero}}
	heap.Init(open)
	best[from] = zero
	reached[from] = true

	for open.Len() > 0 {
		current := heap.Pop(open).(queueEntry[W])

		// Skip entries made stale by a better relaxation.
		if best[current.vertex].Less(current.weight) {
			continue
		}
		if current.vertex == to {
			break
		}

		for _, edgeID := range r.g.IncidentEdges(current.vertex) {
			edge := r.g.Edge(edgeID)
			tentative := current.weight.Add(edge.Weight)
			if reached[edge.To] && !tentative.Less(best[edge.To]) {
				continue
			}
			best[edge.To] = tentative
			reached[edge.To] = true
			prevEdge[edge.To] = edgeID
			heap.Push(open, queueEntry[W]{vertex: edge.To, weight: tentative})
		}
	}

	if !reached[to] {
		return Route[W]{}, false
	}

	// Walk predecessors back to the source, then reverse.
	var edges []graph.EdgeID
	for v := to; v != from; {
		edgeID := prevEdge[v]
		edges = append(edges, edgeID)
		v = r.g.Edge(edgeID).From
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	r.mu.Lock()
	id := RouteID(len(r.routes))
	r.routes = append(r.routes, edges)
	r.mu.Unlock()

	return Route[W]{ID: id, Weight: best[to], EdgeCount: len(edges)}, true
}

// RouteEdge returns the k-th edge id of a built route.
func (r *Router[W]) RouteEdge(id RouteID, k int) graph.EdgeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routes[id][k]
}

// queueEntry is one open-set element of the Dijkstra relaxation.
type queueEntry[W any] struct {
	vertex graph.VertexID
	weight W
}

// vertexQueue implements heap.Interface ordered by weight.
type vertexQueue[W graph.Weight[W]] []queueEntry[W]

func (q vertexQueue[W]) Len() int { return len(q) }

func (q vertexQueue[W]) Less(i, j int) bool {
	return q[i].weight.Less(q[j].weight)
}

func (q vertexQueue[W]) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *vertexQueue[W]) Push(x interface{}) {
	*q = append(*q, x.(queueEntry[W]))
}

func (q *vertexQueue[W]) Pop() interface{} {
	old := *q
	n := len(old)
	entry := old[n-1]
	*q = old[:n-1]
	return entry
}
