// Package costmodel turns a shipment's constraints into an edge weight
// function, grounded on passbi_core/internal/routing.Strategy's
// EdgeCost method shape, generalized from a fixed set of named
// strategies to one constraint-parameterized formula (the original
// prototype's route_engine/app/main.py:build_weight_func).
package costmodel

import "github.com/cargorouter/routeengine/internal/graph"

// defaultRisk is substituted for temp_risk/security_risk when an edge
// does not carry one, matching the original prototype's defaults.
const defaultRisk = 0.3

// securityConditionsFactor scales the security risk penalty applied
// when the shipment requires escorted/monitored transit, per spec.md §4.C.
const securityConditionsFactor = 0.8

// Constraints describes the shipment-specific requirements that bias
// edge cost away from plain travel time.
type Constraints struct {
	ColdChain          bool `json:"cold_chain"`
	HighValue          bool `json:"high_value"`
	SecurityConditions bool `json:"security_conditions"`
}

// Model computes the cost of traversing an edge for a fixed set of
// constraints. It is a small value type rather than a closure so it
// can be passed by value into the search package without allocating
// per edge.
type Model struct {
	Constraints Constraints
}

// New returns a Model for the given constraints.
func New(c Constraints) Model {
	return Model{Constraints: c}
}

// Cost implements:
//
//	travel_time = edge.TravelTime, defaulting to Length/8.0 if zero
//	temp_risk, security_risk default to 0.3 if zero
//	penalty = cold_chain*temp_risk + high_value*security_risk +
//	          security_conditions*security_risk*0.8
//	cost = travel_time * (1 + penalty)
func (m Model) Cost(e graph.Edge) float64 {
	travelTime := e.TravelTime
	if travelTime == 0 {
		travelTime = e.Length / 8.0
	}

	tempRisk := e.TempRisk
	if tempRisk == 0 {
		tempRisk = defaultRisk
	}
	securityRisk := e.SecurityRisk
	if securityRisk == 0 {
		securityRisk = defaultRisk
	}

	penalty := 0.0
	if m.Constraints.ColdChain {
		penalty += tempRisk
	}
	if m.Constraints.HighValue {
		penalty += securityRisk
	}
	if m.Constraints.SecurityConditions {
		penalty += securityRisk * securityConditionsFactor
	}

	return travelTime * (1 + penalty)
}

// BaseTravelTime returns the unconstrained travel time component of
// an edge, used by the fallback search (which optimizes plain travel
// time) and by degraded-cost bookkeeping.
func BaseTravelTime(e graph.Edge) float64 {
	if e.TravelTime != 0 {
		return e.TravelTime
	}
	return e.Length / 8.0
}
