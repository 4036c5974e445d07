// Package engine wires the catalog, the routing graph and the solver behind a
// single query facade with a memoised route cache.
package engine

import (
	"errors"
	"sync"

	"github.com/citybus/citybus_core/internal/catalog"
	"github.com/citybus/citybus_core/internal/geo"
	"github.com/citybus/citybus_core/internal/models"
	"github.com/citybus/citybus_core/internal/routing"
)

var (
	// ErrNotFound is returned for any queried name that does not exist and for
	// route queries with no connecting path. It maps to the wire message
	// "not found".
	ErrNotFound = errors.New("not found")

	// ErrNetworkSealed is returned for mutations after the router has been
	// initialised. This is a programming error on the caller's side.
	ErrNetworkSealed = errors.New("network is sealed: router already initialised")
)

type routeKey struct {
	from string
	to   string
}

type cachedRoute struct {
	info  models.RouteInfo
	found bool
}

// Engine answers line, stop and route queries over a bus network. Mutations
// must all happen before the first route query; the first route query seals
// the catalog, expands the routing graph and constructs the solver.
type Engine struct {
	settings models.Settings
	catalog  *catalog.Catalog

	mu          sync.Mutex
	sealed      bool
	routeGraph  *routing.RouteGraph
	router      *routing.Router[routing.RideWeight]
	interpreter *routing.Interpreter
	routeCache  map[routeKey]cachedRoute
}

// New creates an engine with the given routing settings and an empty network.
func New(settings models.Settings) *Engine {
	return &Engine{
		settings:   settings,
		catalog:    catalog.New(),
		routeCache: make(map[routeKey]cachedRoute),
	}
}

// Catalog exposes the underlying catalog for read-only inspection.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Settings returns the routing settings the engine was created with.
func (e *Engine) Settings() models.Settings { return e.settings }

// AddStop registers a stop with coordinates and road distances to neighbours.
func (e *Engine) AddStop(name string, place geo.Coordinates, distances map[string]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return ErrNetworkSealed
	}
	e.catalog.AddStop(name, place, distances)
	return nil
}

// AddLine registers a line over the named stops.
func (e *Engine) AddLine(name string, stops []string, kind catalog.LineKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return ErrNetworkSealed
	}
	e.catalog.AddLine(name, stops, kind)
	return nil
}

// InitRouter seals the catalog, expands the routing graph and constructs the
// solver. It runs at most once; route queries call it implicitly.
func (e *Engine) InitRouter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initRouterLocked()
}

func (e *Engine) initRouterLocked() {
	if e.sealed {
		return
	}
	e.routeGraph = routing.Build(e.catalog, e.settings)
	e.router = routing.NewRouter(e.routeGraph.Graph())
	e.interpreter = routing.NewInterpreter(e.routeGraph, e.router)
	e.sealed = true
}

// RouteGraph returns the expanded routing graph, initialising the router if
// needed.
func (e *Engine) RouteGraph() *routing.RouteGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initRouterLocked()
	return e.routeGraph
}

// InfoForLine returns the descriptive scalars of a line.
func (e *Engine) InfoForLine(name string) (models.LineInfo, error) {
	line, ok := e.catalog.Line(name)
	if !ok {
		return models.LineInfo{}, ErrNotFound
	}

	info := models.LineInfo{
		StopCount:       line.StopsOnRoute(),
		UniqueStopCount: line.UniqueStops(),
		RouteLength:     line.RouteLength(),
	}
	if geom := line.GeometricLength(); geom > 0 {
		info.Curvature = info.RouteLength / geom
	}
	return info, nil
}

// InfoForStop returns the sorted names of lines serving a stop.
func (e *Engine) InfoForStop(name string) (models.StopInfo, error) {
	stop, ok := e.catalog.Stop(name)
	if !ok {
		return models.StopInfo{}, ErrNotFound
	}
	return models.StopInfo{Buses: stop.Lines()}, nil
}

// InfoForRoute returns a fastest itinerary between two stops. Results,
// including "no path", are memoised per (from, to) pair for the lifetime of
// the engine.
func (e *Engine) InfoForRoute(from, to string) (models.RouteInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initRouterLocked()

	key := routeKey{from: from, to: to}
	if cached, ok := e.routeCache[key]; ok {
		if !cached.found {
			return models.RouteInfo{}, ErrNotFound
		}
		return cached.info, nil
	}

	fromVertex, okFrom := e.routeGraph.VertexID(from, routing.VertexWait)
	toVertex, okTo := e.routeGraph.VertexID(to, routing.VertexWait)
	if !okFrom || !okTo {
		return models.RouteInfo{}, ErrNotFound
	}

	route, ok := e.router.BuildRoute(fromVertex, toVertex)
	if !ok {
		e.routeCache[key] = cachedRoute{}
		return models.RouteInfo{}, ErrNotFound
	}

	info := e.interpreter.Interpret(route)
	e.routeCache[key] = cachedRoute{info: info, found: true}
	return info, nil
}
