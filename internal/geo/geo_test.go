package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	t.Run("Zero for identical points", func(t *testing.T) {
		p := Coordinates{Lat: 55.611087, Lon: 37.20829}
		assert.InDelta(t, 0, Haversine(p, p), 1e-9)
	})

	t.Run("Symmetric", func(t *testing.T) {
		p := Coordinates{Lat: 55.611087, Lon: 37.20829}
		q := Coordinates{Lat: 55.595884, Lon: 37.209755}
		assert.InDelta(t, Haversine(p, q), Haversine(q, p), 1e-9)
	})

	t.Run("Known chain length", func(t *testing.T) {
		stops := []Coordinates{
			{Lat: 55.611087, Lon: 37.20829},
			{Lat: 55.595884, Lon: 37.209755},
			{Lat: 55.632761, Lon: 37.333324},
		}

		var length float64
		for i := 1; i < len(stops); i++ {
			length += Haversine(stops[i-1], stops[i])
		}

		assert.InDelta(t, 20939.5, length*2, 0.1)
	})

	t.Run("Small longitude offset at the equator", func(t *testing.T) {
		// 0.01 degrees of longitude on the equator is about 1.11 km.
		d := Haversine(Coordinates{Lat: 0, Lon: 0}, Coordinates{Lat: 0, Lon: 0.01})
		assert.InDelta(t, 1112, d, 1)
	})
}

func TestDegToRad(t *testing.T) {
	assert.InDelta(t, 3.14159265, DegToRad(180), 1e-8)
	assert.Equal(t, 0.0, DegToRad(0))
}
