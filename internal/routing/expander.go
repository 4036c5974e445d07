package routing

import (
	"log"

	"github.com/citybus/citybus_core/internal/catalog"
	"github.com/citybus/citybus_core/internal/graph"
	"github.com/citybus/citybus_core/internal/models"
)

// VertexKind tags the two routing vertices paired with each stop.
type VertexKind int

const (
	// VertexWait models standing at the stop.
	VertexWait VertexKind = iota
	// VertexBus models being about to ride from the stop.
	VertexBus
)

// StopVertex names a routing vertex by its stop and kind.
type StopVertex struct {
	Stop string
	Kind VertexKind
}

// RouteGraph is the expanded routing graph over a sealed catalog, together
// with the stop↔vertex indexes needed to query and interpret it.
type RouteGraph struct {
	graph   *graph.Directed[RideWeight]
	index   map[StopVertex]graph.VertexID
	reverse []StopVertex
}

// Build expands the catalog into the routing graph. Every stop gets a Wait
// and a Bus vertex, ids assigned in catalog insertion order (Wait first).
// For each line, one boarding edge Wait(s)→Bus(s) is added per stop
// occurrence, and one ride edge Bus(sᵢ)→Wait(sⱼ) per ordered stop pair of the
// traversal; Linear lines are expanded again over the reversed sequence, so
// opposite directions keep their own, possibly asymmetric, ride times.
func Build(cat *catalog.Catalog, settings models.Settings) *RouteGraph {
	rg := &RouteGraph{
		index: make(map[StopVertex]graph.VertexID, cat.StopCount()*2),
	}

	for _, name := range cat.StopNames() {
		for _, kind := range []VertexKind{VertexWait, VertexBus} {
			vertex := StopVertex{Stop: name, Kind: kind}
			rg.index[vertex] = graph.VertexID(len(rg.reverse))
			rg.reverse = append(rg.reverse, vertex)
		}
	}

	rg.graph = graph.NewDirected[RideWeight](len(rg.reverse))

	velocity := settings.MetersPerMinute()
	for _, lineName := range cat.LineNames() {
		line, _ := cat.Line(lineName)
		stops := line.Stops()

		for _, stop := range stops {
			rg.graph.AddEdge(
				rg.index[StopVertex{Stop: stop.Name(), Kind: VertexWait}],
				rg.index[StopVertex{Stop: stop.Name(), Kind: VertexBus}],
				RideWeight{Time: settings.WaitTimeMin},
			)
		}

		rg.addRideEdges(stops, line.Name(), velocity)
		if line.Kind() == catalog.Linear {
			reversed := make([]*catalog.Stop, len(stops))
			for i, stop := range stops {
				reversed[len(stops)-1-i] = stop
			}
			rg.addRideEdges(reversed, line.Name(), velocity)
		}
	}

	log.Printf("Routing graph built: %d vertices, %d edges over %d stops and %d lines",
		rg.graph.VertexCount(), rg.graph.EdgeCount(), cat.StopCount(), cat.LineCount())

	return rg
}

// addRideEdges adds one Bus(sᵢ)→Wait(sⱼ) edge per pair i<j of the traversal,
// with time taken from prefix sums of effective road distances over the
// velocity and span j-i.
func (rg *RouteGraph) addRideEdges(stops []*catalog.Stop, lineName string, velocity float64) {
	if len(stops) < 2 {
		return
	}

	prefix := make([]float64, len(stops))
	for i := 1; i < len(stops); i++ {
		prefix[i] = prefix[i-1] + catalog.EffectiveDistance(stops[i-1], stops[i])/velocity
	}

	for i := 0; i < len(stops); i++ {
		from := rg.index[StopVertex{Stop: stops[i].Name(), Kind: VertexBus}]
		for j := i + 1; j < len(stops); j++ {
			to := rg.index[StopVertex{Stop: stops[j].Name(), Kind: VertexWait}]
			rg.graph.AddEdge(from, to, RideWeight{
				Time: prefix[j] - prefix[i],
				Span: j - i,
				Line: lineName,
			})
		}
	}
}

// Graph returns the underlying multigraph.
func (rg *RouteGraph) Graph() *graph.Directed[RideWeight] { return rg.graph }

// VertexID resolves a stop name and kind to its vertex id.
func (rg *RouteGraph) VertexID(stop string, kind VertexKind) (graph.VertexID, bool) {
	id, ok := rg.index[StopVertex{Stop: stop, Kind: kind}]
	return id, ok
}

// VertexInfo resolves a vertex id back to its stop name and kind.
func (rg *RouteGraph) VertexInfo(id graph.VertexID) StopVertex {
	return rg.reverse[id]
}
