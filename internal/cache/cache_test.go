package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testConstraints struct {
	ColdChain          bool `json:"cold_chain"`
	HighValue          bool `json:"high_value"`
	SecurityConditions bool `json:"security_conditions"`
}

func TestFingerprintIsDeterministic(t *testing.T) {
	c := testConstraints{ColdChain: true}
	k1 := Fingerprint("bogota", [2]float64{4.65, -74.1}, [2]float64{4.70, -74.05}, c)
	k2 := Fingerprint("bogota", [2]float64{4.65, -74.1}, [2]float64{4.70, -74.05}, c)
	assert.Equal(t, k1, k2)
}

func TestFingerprintHasRoutePrefix(t *testing.T) {
	k := Fingerprint("bogota", [2]float64{0, 0}, [2]float64{1, 1}, testConstraints{})
	assert.Contains(t, k, "route:")
	assert.True(t, len(k) > len("route:"))
}

func TestFingerprintDiffersOnCity(t *testing.T) {
	src := [2]float64{4.65, -74.1}
	dst := [2]float64{4.70, -74.05}
	c := testConstraints{}
	assert.NotEqual(t, Fingerprint("bogota", src, dst, c), Fingerprint("medellin", src, dst, c))
}

func TestFingerprintDiffersOnConstraints(t *testing.T) {
	src := [2]float64{4.65, -74.1}
	dst := [2]float64{4.70, -74.05}
	plain := Fingerprint("bogota", src, dst, testConstraints{})
	coldChain := Fingerprint("bogota", src, dst, testConstraints{ColdChain: true})
	assert.NotEqual(t, plain, coldChain)
}

func TestFingerprintDiffersOnCoordinates(t *testing.T) {
	c := testConstraints{}
	k1 := Fingerprint("bogota", [2]float64{4.65, -74.1}, [2]float64{4.70, -74.05}, c)
	k2 := Fingerprint("bogota", [2]float64{4.66, -74.1}, [2]float64{4.70, -74.05}, c)
	assert.NotEqual(t, k1, k2)
}
