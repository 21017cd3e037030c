package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGridNodeCount(t *testing.T) {
	nodes, _ := buildGrid(3, 0, 0)
	assert.Len(t, nodes, 9)
}

func TestBuildGridEdgesAreBidirectional(t *testing.T) {
	_, edges := buildGrid(2, 0, 0)

	seen := make(map[[2]int64]bool)
	for _, e := range edges {
		seen[[2]int64{e.U, e.V}] = true
	}
	for _, e := range edges {
		assert.Truef(t, seen[[2]int64{e.V, e.U}], "missing reverse edge for %d -> %d", e.U, e.V)
	}
}

func TestTempRiskFallsBackToDefault(t *testing.T) {
	assert.Equal(t, defaultTempRisk, tempRisk("unknown_highway_type"))
	assert.Equal(t, 0.0, tempRisk("motorway"))
}

func TestSecurityRiskLitArterialIsSafest(t *testing.T) {
	assert.Equal(t, 0.1, securityRisk("primary", true))
	assert.Equal(t, 0.7, securityRisk("primary", false))
	assert.Equal(t, 0.3, securityRisk("tertiary", false))
}
