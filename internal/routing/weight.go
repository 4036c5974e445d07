package routing

// RideWeight is the routing edge weight: travel time in minutes, the number
// of consecutive stops the edge spans, and the line ridden. Boarding edges
// carry an empty Line and zero Span. The zero value is the additive identity.
type RideWeight struct {
	Time float64
	Span int
	Line string
}

// Add sums times and spans. The line of the right operand wins when set, so an
// accumulated weight carries the most recent ride's line; the interpreter
// reads each edge independently and does not depend on this choice.
func (w RideWeight) Add(other RideWeight) RideWeight {
	line := other.Line
	if line == "" {
		line = w.Line
	}
	return RideWeight{
		Time: w.Time + other.Time,
		Span: w.Span + other.Span,
		Line: line,
	}
}

// Less orders weights by time alone.
func (w RideWeight) Less(other RideWeight) bool {
	return w.Time < other.Time
}
