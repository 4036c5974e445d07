// Package graph provides the dense-vertex weighted directed multigraph the
// routing layer is built on. Vertices are integers 0..V-1 assigned by the
// caller; edges are append-only and identified by insertion index.
package graph

// VertexID identifies a vertex. Vertices are dense: every id below the graph's
// vertex count is valid.
type VertexID = int

// EdgeID identifies an edge by insertion order.
type EdgeID = int

// Weight is the algebra edge weights must satisfy: an associative Add whose
// identity is the type's zero value, and a strict ordering used by shortest
// path relaxation.
type Weight[W any] interface {
	Add(W) W
	Less(W) bool
}

// Edge is a directed weighted connection between two vertices.
type Edge[W any] struct {
	From   VertexID
	To     VertexID
	Weight W
}

// Directed is an adjacency structure over a fixed vertex set. Self loops and
// parallel edges are permitted. Not safe for concurrent mutation; read-only
// after build.
type Directed[W Weight[W]] struct {
	edges     []Edge[W]
	incidence [][]EdgeID // vertex -> outgoing edge ids
}

// NewDirected returns a graph over vertices 0..vertexCount-1 with no edges.
func NewDirected[W Weight[W]](vertexCount int) *Directed[W] {
	return &Directed[W]{
		incidence: make([][]EdgeID, vertexCount),
	}
}

// VertexCount returns the size of the vertex set.
func (g *Directed[W]) VertexCount() int { return len(g.incidence) }

// EdgeCount returns the number of edges added so far.
func (g *Directed[W]) EdgeCount() int { return len(g.edges) }

// AddEdge appends an edge and returns its id.
func (g *Directed[W]) AddEdge(from, to VertexID, weight W) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge[W]{From: from, To: to, Weight: weight})
	g.incidence[from] = append(g.incidence[from], id)
	return id
}

// Edge returns the edge with the given id.
func (g *Directed[W]) Edge(id EdgeID) Edge[W] { return g.edges[id] }

// IncidentEdges returns the ids of edges leaving the vertex, in insertion
// order. The returned slice is owned by the graph.
func (g *Directed[W]) IncidentEdges(v VertexID) []EdgeID { return g.incidence[v] }
