package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citybus/citybus_core/internal/geo"
)

func TestAddStop(t *testing.T) {
	t.Run("Lookup after add", func(t *testing.T) {
		cat := New()
		cat.AddStop("Central", geo.Coordinates{Lat: 1, Lon: 1}, nil)

		stop, ok := cat.Stop("Central")
		require.True(t, ok)
		assert.Equal(t, "Central", stop.Name())
		assert.True(t, stop.Initialized())
		assert.Equal(t, geo.Coordinates{Lat: 1, Lon: 1}, stop.Place())
	})

	t.Run("Missing stop", func(t *testing.T) {
		cat := New()
		_, ok := cat.Stop("Nowhere")
		assert.False(t, ok)
	})

	t.Run("Neighbour created uninitialized", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{}, map[string]float64{"B": 500})

		b, ok := cat.Stop("B")
		require.True(t, ok)
		assert.False(t, b.Initialized())

		d, ok := b.Distance("A")
		require.True(t, ok)
		assert.Equal(t, 500.0, d)
	})

	t.Run("First declaration wins on the reverse direction", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{}, map[string]float64{"B": 100})
		cat.AddStop("B", geo.Coordinates{}, map[string]float64{"A": 50})

		a, _ := cat.Stop("A")
		b, _ := cat.Stop("B")

		// B's own declaration overwrites the inherited B→A entry...
		dBA, _ := b.Distance("A")
		assert.Equal(t, 50.0, dBA)

		// ...but A's declared A→B entry is kept.
		dAB, _ := a.Distance("B")
		assert.Equal(t, 100.0, dAB)
	})
}

func TestAddLine(t *testing.T) {
	cat := New()
	cat.AddStop("A", geo.Coordinates{Lat: 1, Lon: 1}, nil)
	cat.AddLine("101", []string{"A", "B"}, Linear)

	t.Run("Line lookup", func(t *testing.T) {
		line, ok := cat.Line("101")
		require.True(t, ok)
		assert.Equal(t, "101", line.Name())
		assert.Equal(t, Linear, line.Kind())
		assert.Len(t, line.Stops(), 2)
	})

	t.Run("Stops created on demand", func(t *testing.T) {
		b, ok := cat.Stop("B")
		require.True(t, ok)
		assert.False(t, b.Initialized())
	})

	t.Run("Serving lines recorded", func(t *testing.T) {
		a, _ := cat.Stop("A")
		assert.Equal(t, []string{"101"}, a.Lines())
	})

	t.Run("Serving lines sorted", func(t *testing.T) {
		cat := New()
		cat.AddLine("9", []string{"X"}, Linear)
		cat.AddLine("10", []string{"X"}, Linear)

		x, _ := cat.Stop("X")
		assert.Equal(t, []string{"10", "9"}, x.Lines())
	})
}

func TestEffectiveDistance(t *testing.T) {
	t.Run("Declared forward wins", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{}, map[string]float64{"B": 100})
		cat.AddStop("B", geo.Coordinates{}, map[string]float64{"A": 50})

		a, _ := cat.Stop("A")
		b, _ := cat.Stop("B")
		assert.Equal(t, 100.0, EffectiveDistance(a, b))
		assert.Equal(t, 50.0, EffectiveDistance(b, a))
	})

	t.Run("Reverse declaration inherited", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{}, map[string]float64{"B": 100})
		cat.AddStop("B", geo.Coordinates{}, nil)

		a, _ := cat.Stop("A")
		b, _ := cat.Stop("B")
		assert.Equal(t, 100.0, EffectiveDistance(b, a))
	})

	t.Run("Haversine fallback", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, nil)
		cat.AddStop("B", geo.Coordinates{Lat: 0, Lon: 0.01}, nil)

		a, _ := cat.Stop("A")
		b, _ := cat.Stop("B")
		expected := geo.Haversine(a.Place(), b.Place())
		assert.Equal(t, expected, EffectiveDistance(a, b))
		assert.Greater(t, expected, 0.0)
	})
}

func TestLineStats(t *testing.T) {
	t.Run("Linear two stops", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, map[string]float64{"B": 1000})
		cat.AddStop("B", geo.Coordinates{Lat: 0, Lon: 0.01}, nil)
		cat.AddLine("L", []string{"A", "B"}, Linear)

		line, _ := cat.Line("L")
		assert.Equal(t, 3, line.StopsOnRoute())
		assert.Equal(t, 2, line.UniqueStops())
		assert.Equal(t, 2000.0, line.RouteLength())

		a, _ := cat.Stop("A")
		b, _ := cat.Stop("B")
		oneWay := geo.Haversine(a.Place(), b.Place())
		assert.InDelta(t, oneWay*2, line.GeometricLength(), 1e-9)
	})

	t.Run("Circular keeps the registered sequence length", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, map[string]float64{"B": 1000})
		cat.AddStop("B", geo.Coordinates{Lat: 0, Lon: 0.01}, map[string]float64{"C": 1000})
		cat.AddStop("C", geo.Coordinates{Lat: 0.01, Lon: 0}, map[string]float64{"A": 1000})
		cat.AddLine("ring", []string{"A", "B", "C", "A"}, Circular)

		line, _ := cat.Line("ring")
		assert.Equal(t, 4, line.StopsOnRoute())
		assert.Equal(t, 3, line.UniqueStops())
		assert.Equal(t, 3000.0, line.RouteLength())
	})

	t.Run("Single-stop line", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, nil)
		cat.AddLine("stub", []string{"A"}, Linear)

		line, _ := cat.Line("stub")
		assert.Equal(t, 1, line.StopsOnRoute())
		assert.Equal(t, 0.0, line.GeometricLength())
		assert.Equal(t, 0.0, line.RouteLength())
	})

	t.Run("Asymmetric road distances double differently", func(t *testing.T) {
		cat := New()
		cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, map[string]float64{"B": 1000})
		cat.AddStop("B", geo.Coordinates{Lat: 0, Lon: 0.01}, map[string]float64{"A": 1500})
		cat.AddLine("L", []string{"A", "B"}, Linear)

		line, _ := cat.Line("L")
		assert.Equal(t, 2500.0, line.RouteLength())
	})
}

func TestInsertionOrder(t *testing.T) {
	cat := New()
	cat.AddStop("C", geo.Coordinates{}, nil)
	cat.AddStop("A", geo.Coordinates{}, map[string]float64{"D": 1})
	cat.AddLine("7", []string{"B"}, Linear)

	assert.Equal(t, []string{"C", "A", "D", "B"}, cat.StopNames())
	assert.Equal(t, []string{"7"}, cat.LineNames())
}
