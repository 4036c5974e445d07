package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRideWeight(t *testing.T) {
	t.Run("Zero value is the additive identity", func(t *testing.T) {
		var zero RideWeight
		w := RideWeight{Time: 3.5, Span: 2, Line: "14"}

		assert.Equal(t, w, zero.Add(w))
		assert.Equal(t, w, w.Add(zero))
	})

	t.Run("Add sums time and span", func(t *testing.T) {
		sum := RideWeight{Time: 2, Span: 1, Line: "a"}.Add(RideWeight{Time: 3, Span: 4, Line: "b"})
		assert.Equal(t, 5.0, sum.Time)
		assert.Equal(t, 5, sum.Span)
	})

	t.Run("Right operand's line wins when set", func(t *testing.T) {
		sum := RideWeight{Line: "a"}.Add(RideWeight{Line: "b"})
		assert.Equal(t, "b", sum.Line)
	})

	t.Run("Left operand's line kept over a boarding edge", func(t *testing.T) {
		sum := RideWeight{Line: "a"}.Add(RideWeight{Time: 2})
		assert.Equal(t, "a", sum.Line)
	})

	t.Run("Ordering is by time alone", func(t *testing.T) {
		slow := RideWeight{Time: 10, Span: 1}
		fast := RideWeight{Time: 2, Span: 9}

		assert.True(t, fast.Less(slow))
		assert.False(t, slow.Less(fast))
		assert.False(t, fast.Less(fast))
	})
}
