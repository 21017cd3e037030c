package costmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cargorouter/routeengine/internal/graph"
)

func TestCostUnconstrained(t *testing.T) {
	m := New(Constraints{})
	e := graph.Edge{Length: 80, TravelTime: 10, TempRisk: 0.5, SecurityRisk: 0.5}
	assert.Equal(t, 10.0, m.Cost(e))
}

func TestCostDefaultsWhenMissing(t *testing.T) {
	m := New(Constraints{ColdChain: true})
	e := graph.Edge{Length: 80} // TravelTime and TempRisk both zero
	got := m.Cost(e)
	// travel_time = 80/8 = 10, temp_risk defaults to 0.3, penalty = 0.3
	assert.InDelta(t, 13.0, got, 1e-9)
}

func TestCostMonotonicInConstraints(t *testing.T) {
	e := graph.Edge{Length: 80, TravelTime: 10, TempRisk: 0.4, SecurityRisk: 0.6}

	none := New(Constraints{}).Cost(e)
	cold := New(Constraints{ColdChain: true}).Cost(e)
	all := New(Constraints{ColdChain: true, HighValue: true, SecurityConditions: true}).Cost(e)

	assert.LessOrEqual(t, none, cold)
	assert.LessOrEqual(t, cold, all)
}

func TestCostSecurityConditionsFactor(t *testing.T) {
	e := graph.Edge{TravelTime: 10, SecurityRisk: 0.5}
	m := New(Constraints{SecurityConditions: true})
	// penalty = 0.5 * 0.8 = 0.4 -> cost = 10 * 1.4
	assert.InDelta(t, 14.0, m.Cost(e), 1e-9)
}

func TestBaseTravelTime(t *testing.T) {
	t.Run("uses travel time when present", func(t *testing.T) {
		assert.Equal(t, 10.0, BaseTravelTime(graph.Edge{Length: 999, TravelTime: 10}))
	})

	t.Run("derives from length when travel time absent", func(t *testing.T) {
		assert.Equal(t, 10.0, BaseTravelTime(graph.Edge{Length: 80}))
	})
}
