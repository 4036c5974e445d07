package routing

import (
	"github.com/citybus/citybus_core/internal/models"
)

// Interpreter converts built routes into user-facing itineraries.
type Interpreter struct {
	rg     *RouteGraph
	router *Router[RideWeight]
}

// NewInterpreter creates an interpreter over a route graph and its router.
func NewInterpreter(rg *RouteGraph, router *Router[RideWeight]) *Interpreter {
	return &Interpreter{rg: rg, router: router}
}

// Interpret renders a route as alternating Wait and Bus items. An edge whose
// tail is a Wait vertex is a boarding; an edge whose tail is a Bus vertex is a
// ride on the line its weight names.
func (it *Interpreter) Interpret(route Route[RideWeight]) models.RouteInfo {
	items := make([]models.RouteItem, 0, route.EdgeCount)

	for k := 0; k < route.EdgeCount; k++ {
		edge := it.rg.Graph().Edge(it.router.RouteEdge(route.ID, k))
		tail := it.rg.VertexInfo(edge.From)

		if tail.Kind == VertexWait {
			items = append(items, models.RouteItem{
				Type:     models.ItemWait,
				StopName: tail.Stop,
				Time:     edge.Weight.Time,
			})
		} else {
			items = append(items, models.RouteItem{
				Type:      models.ItemBus,
				Bus:       edge.Weight.Line,
				Time:      edge.Weight.Time,
				SpanCount: edge.Weight.Span,
			})
		}
	}

	return models.RouteInfo{
		TotalTime: route.Weight.Time,
		Items:     items,
	}
}
