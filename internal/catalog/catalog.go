package catalog

import (
	"sort"

	"github.com/citybus/citybus_core/internal/geo"
)

// LineKind distinguishes the two traversal shapes of a line.
type LineKind int

const (
	// Circular lines are traversed forward only; the registered sequence ends
	// where it starts.
	Circular LineKind = iota
	// Linear lines are traversed forward and then back along the same stops.
	Linear
)

// Stop is a named boarding point. A stop may be referenced by a line or a
// road-distance declaration before its own AddStop arrives; until then it has
// no coordinates and is not initialized.
type Stop struct {
	name        string
	place       geo.Coordinates
	initialized bool
	lines       map[string]struct{}
	distances   map[string]float64 // road distance to a neighbour stop, meters
}

func newStop(name string) *Stop {
	return &Stop{
		name:      name,
		lines:     make(map[string]struct{}),
		distances: make(map[string]float64),
	}
}

// Name returns the stop's unique name.
func (s *Stop) Name() string { return s.name }

// Place returns the stop's coordinates.
func (s *Stop) Place() geo.Coordinates { return s.place }

// Initialized reports whether coordinates have been assigned yet.
func (s *Stop) Initialized() bool { return s.initialized }

func (s *Stop) setPlace(place geo.Coordinates) {
	s.place = place
	s.initialized = true
}

func (s *Stop) addLine(name string) {
	s.lines[name] = struct{}{}
}

// Lines returns the names of lines serving this stop, sorted ascending.
func (s *Stop) Lines() []string {
	names := make([]string, 0, len(s.lines))
	for name := range s.lines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Stop) setDistance(to string, meters float64) {
	s.distances[to] = meters
}

func (s *Stop) setDistanceIfAbsent(to string, meters float64) {
	if _, ok := s.distances[to]; !ok {
		s.distances[to] = meters
	}
}

// Distance returns the declared road distance from this stop to the named
// stop, if any.
func (s *Stop) Distance(to string) (float64, bool) {
	d, ok := s.distances[to]
	return d, ok
}

// Line is a named ordered sequence of stops. The sequence is stored exactly as
// registered; for Circular lines that includes the terminal duplicate of the
// first stop.
type Line struct {
	name  string
	stops []*Stop
	kind  LineKind
}

// Name returns the line's unique name.
func (l *Line) Name() string { return l.name }

// Kind returns the line's traversal shape.
func (l *Line) Kind() LineKind { return l.kind }

// Stops returns the registered stop sequence.
func (l *Line) Stops() []*Stop { return l.stops }

// UniqueStops counts distinct stops on the line.
func (l *Line) UniqueStops() int {
	seen := make(map[*Stop]struct{}, len(l.stops))
	for _, s := range l.stops {
		seen[s] = struct{}{}
	}
	return len(seen)
}

// StopsOnRoute counts the stops actually traversed: the registered sequence
// length for Circular lines, 2n-1 for Linear lines (out and back).
func (l *Line) StopsOnRoute() int {
	if l.kind == Circular {
		return len(l.stops)
	}
	if len(l.stops) == 0 {
		return 0
	}
	return len(l.stops)*2 - 1
}

// GeometricLength is the great-circle length of the traversal in meters,
// doubled for Linear lines.
func (l *Line) GeometricLength() float64 {
	var length float64
	for i := 1; i < len(l.stops); i++ {
		length += geo.Haversine(l.stops[i-1].place, l.stops[i].place)
	}
	if l.kind == Linear {
		length *= 2
	}
	return length
}

// RouteLength is the road length of the traversal in meters. Linear lines add
// the reverse traversal separately because road distances may be asymmetric.
func (l *Line) RouteLength() float64 {
	var length float64
	for i := 1; i < len(l.stops); i++ {
		length += EffectiveDistance(l.stops[i-1], l.stops[i])
	}
	if l.kind == Linear {
		for i := len(l.stops) - 1; i > 0; i-- {
			length += EffectiveDistance(l.stops[i], l.stops[i-1])
		}
	}
	return length
}

// EffectiveDistance is the road distance used for ride times: the declared
// from→to distance, else the declared to→from distance, else great-circle.
func EffectiveDistance(from, to *Stop) float64 {
	if d, ok := from.Distance(to.name); ok {
		return d
	}
	if d, ok := to.Distance(from.name); ok {
		return d
	}
	return geo.Haversine(from.place, to.place)
}

// Catalog stores the stop and line records of a bus network. It owns the
// canonical name strings; every other structure refers to stops and lines by
// those names or by the *Stop pointers handed out here.
type Catalog struct {
	stops     map[string]*Stop
	lines     map[string]*Line
	stopOrder []string // insertion order, fixes vertex numbering downstream
	lineOrder []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		stops: make(map[string]*Stop),
		lines: make(map[string]*Line),
	}
}

func (c *Catalog) getOrCreateStop(name string) *Stop {
	if s, ok := c.stops[name]; ok {
		return s
	}
	s := newStop(name)
	c.stops[name] = s
	c.stopOrder = append(c.stopOrder, name)
	return s
}

// AddStop creates or completes the named stop: assigns its coordinates and
// records road distances to the declared neighbours. A declared distance
// overwrites this stop's own entry and backfills the neighbour's reverse entry
// only if the neighbour has not declared it itself (first declaration wins).
// Neighbours are created uninitialized when absent.
func (c *Catalog) AddStop(name string, place geo.Coordinates, distances map[string]float64) {
	stop := c.getOrCreateStop(name)
	stop.setPlace(place)

	for neighbour, meters := range distances {
		other := c.getOrCreateStop(neighbour)
		stop.setDistance(neighbour, meters)
		other.setDistanceIfAbsent(name, meters)
	}
}

// AddLine registers a line over the named stops, creating uninitialized stops
// as needed, and records the line on every stop it serves.
func (c *Catalog) AddLine(name string, stopNames []string, kind LineKind) {
	line := &Line{name: name, kind: kind, stops: make([]*Stop, 0, len(stopNames))}
	for _, stopName := range stopNames {
		stop := c.getOrCreateStop(stopName)
		stop.addLine(name)
		line.stops = append(line.stops, stop)
	}
	c.lines[name] = line
	c.lineOrder = append(c.lineOrder, name)
}

// Stop looks up a stop by name.
func (c *Catalog) Stop(name string) (*Stop, bool) {
	s, ok := c.stops[name]
	return s, ok
}

// Line looks up a line by name.
func (c *Catalog) Line(name string) (*Line, bool) {
	l, ok := c.lines[name]
	return l, ok
}

// StopNames returns all stop names in insertion order.
func (c *Catalog) StopNames() []string { return c.stopOrder }

// LineNames returns all line names in insertion order.
func (c *Catalog) LineNames() []string { return c.lineOrder }

// StopCount returns the number of stops, including uninitialized ones.
func (c *Catalog) StopCount() int { return len(c.stops) }

// LineCount returns the number of lines.
func (c *Catalog) LineCount() int { return len(c.lines) }
