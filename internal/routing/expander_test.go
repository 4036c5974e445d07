package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citybus/citybus_core/internal/catalog"
	"github.com/citybus/citybus_core/internal/geo"
	"github.com/citybus/citybus_core/internal/models"
)

// settings60 gives 1000 m/min, so distances in meters read directly as
// milli-minutes.
var settings60 = models.Settings{VelocityKMH: 60, WaitTimeMin: 2}

func threeStopNetwork() *catalog.Catalog {
	cat := catalog.New()
	cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, map[string]float64{"B": 1000})
	cat.AddStop("B", geo.Coordinates{Lat: 0, Lon: 0.01}, map[string]float64{"C": 2000})
	cat.AddStop("C", geo.Coordinates{Lat: 0, Lon: 0.03}, nil)
	return cat
}

func TestBuildVertices(t *testing.T) {
	cat := threeStopNetwork()
	cat.AddLine("L", []string{"A", "B", "C"}, catalog.Linear)
	rg := Build(cat, settings60)

	t.Run("Two vertices per stop in insertion order", func(t *testing.T) {
		assert.Equal(t, 6, rg.Graph().VertexCount())

		for i, name := range cat.StopNames() {
			waitID, ok := rg.VertexID(name, VertexWait)
			require.True(t, ok)
			busID, ok := rg.VertexID(name, VertexBus)
			require.True(t, ok)
			assert.Equal(t, 2*i, waitID)
			assert.Equal(t, 2*i+1, busID)
		}
	})

	t.Run("Reverse index round-trips", func(t *testing.T) {
		id, _ := rg.VertexID("B", VertexBus)
		assert.Equal(t, StopVertex{Stop: "B", Kind: VertexBus}, rg.VertexInfo(id))
	})

	t.Run("Unknown stop has no vertex", func(t *testing.T) {
		_, ok := rg.VertexID("Nowhere", VertexWait)
		assert.False(t, ok)
	})
}

func TestBuildEdges(t *testing.T) {
	t.Run("Linear line edge count", func(t *testing.T) {
		cat := threeStopNetwork()
		cat.AddLine("L", []string{"A", "B", "C"}, catalog.Linear)
		rg := Build(cat, settings60)

		// 3 boarding edges + 3 rides forward + 3 rides backward.
		assert.Equal(t, 9, rg.Graph().EdgeCount())
	})

	t.Run("Circular line edge count", func(t *testing.T) {
		cat := threeStopNetwork()
		cat.AddLine("ring", []string{"A", "B", "C", "A"}, catalog.Circular)
		rg := Build(cat, settings60)

		// 4 boarding edges (per occurrence, A twice) + C(4,2) rides.
		assert.Equal(t, 4+6, rg.Graph().EdgeCount())
	})

	t.Run("Ride weights follow prefix sums", func(t *testing.T) {
		cat := threeStopNetwork()
		cat.AddLine("L", []string{"A", "B", "C"}, catalog.Linear)
		rg := Build(cat, settings60)

		busA, _ := rg.VertexID("A", VertexBus)
		waitC, _ := rg.VertexID("C", VertexWait)

		var found bool
		for _, edgeID := range rg.Graph().IncidentEdges(busA) {
			edge := rg.Graph().Edge(edgeID)
			if edge.To == waitC {
				found = true
				assert.InDelta(t, 3.0, edge.Weight.Time, 1e-9) // (1000+2000)m at 1000 m/min
				assert.Equal(t, 2, edge.Weight.Span)
				assert.Equal(t, "L", edge.Weight.Line)
			}
		}
		require.True(t, found, "expected a direct A→C ride edge")
	})

	t.Run("Boarding edges carry the wait time and no line", func(t *testing.T) {
		cat := threeStopNetwork()
		cat.AddLine("L", []string{"A", "B", "C"}, catalog.Linear)
		rg := Build(cat, settings60)

		waitA, _ := rg.VertexID("A", VertexWait)
		busA, _ := rg.VertexID("A", VertexBus)

		edges := rg.Graph().IncidentEdges(waitA)
		require.Len(t, edges, 1)
		edge := rg.Graph().Edge(edges[0])
		assert.Equal(t, busA, edge.To)
		assert.Equal(t, RideWeight{Time: 2}, edge.Weight)
	})

	t.Run("Linear reverse rides use asymmetric distances", func(t *testing.T) {
		cat := catalog.New()
		cat.AddStop("A", geo.Coordinates{Lat: 0, Lon: 0}, map[string]float64{"B": 1000})
		cat.AddStop("B", geo.Coordinates{Lat: 0, Lon: 0.01}, map[string]float64{"A": 3000})
		cat.AddLine("L", []string{"A", "B"}, catalog.Linear)
		rg := Build(cat, settings60)

		busA, _ := rg.VertexID("A", VertexBus)
		busB, _ := rg.VertexID("B", VertexBus)
		waitA, _ := rg.VertexID("A", VertexWait)
		waitB, _ := rg.VertexID("B", VertexWait)

		for _, edgeID := range rg.Graph().IncidentEdges(busA) {
			edge := rg.Graph().Edge(edgeID)
			if edge.To == waitB {
				assert.InDelta(t, 1.0, edge.Weight.Time, 1e-9)
			}
		}
		for _, edgeID := range rg.Graph().IncidentEdges(busB) {
			edge := rg.Graph().Edge(edgeID)
			if edge.To == waitA {
				assert.InDelta(t, 3.0, edge.Weight.Time, 1e-9)
			}
		}
	})
}
