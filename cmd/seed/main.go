// Command seed populates a synthetic city's nodes and edges for local
// testing. It is explicitly not the real OSM ingest pipeline (out of
// scope per spec.md §1) — it generates a small grid network and
// assigns risk attributes using the same highway/lit lookup table the
// original prototype's ingest/ingest_bogota.py:risk_from_tags uses,
// so a locally seeded city behaves like a real one for cost-model
// purposes.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/cargorouter/routeengine/internal/config"
	"github.com/cargorouter/routeengine/internal/store"
)

// highwayTypes cycles through OSM highway classifications in
// decreasing order of importance, matching the keys
// risk_from_tags maps explicitly.
var highwayTypes = []string{
	"motorway", "trunk", "primary", "secondary", "tertiary",
	"unclassified", "residential", "service", "track",
}

// tempRiskByHighway mirrors ingest/ingest_bogota.py:risk_from_tags's temp_map.
var tempRiskByHighway = map[string]float64{
	"motorway":     0.0,
	"trunk":        0.1,
	"primary":      0.2,
	"secondary":    0.35,
	"tertiary":     0.5,
	"unclassified": 0.6,
	"residential":  0.7,
	"service":      0.8,
	"track":        0.9,
}

// defaultTempRisk is used for any highway value absent from the map.
const defaultTempRisk = 0.5

// securityRisk mirrors risk_from_tags's security_risk branches:
// well-lit arterials are safest, secondary/tertiary roads are medium
// risk, everything else is high risk.
func securityRisk(highway string, lit bool) float64 {
	switch highway {
	case "motorway", "trunk", "primary":
		if lit {
			return 0.1
		}
		return 0.7
	case "secondary", "tertiary":
		return 0.3
	default:
		return 0.7
	}
}

func tempRisk(highway string) float64 {
	if r, ok := tempRiskByHighway[highway]; ok {
		return r
	}
	return defaultTempRisk
}

// gridSpacingDegrees sets how far apart seeded nodes are, small enough
// to keep the whole grid within a few kilometres.
const gridSpacingDegrees = 0.002

// travelSpeedMetersPerSecond mirrors builder.go's walkingSpeed
// constant, reused here as the synthetic grid's travel speed.
const travelSpeedMetersPerSecond = 8.0

func main() {
	city := flag.String("city", "seedville", "city name to seed")
	size := flag.Int("size", 10, "grid side length (size*size nodes)")
	originLat := flag.Float64("lat", 4.65, "grid origin latitude")
	originLon := flag.Float64("lon", -74.1, "grid origin longitude")
	flag.Parse()

	storeCfg := config.LoadStoreConfigFromEnv()
	backend, err := store.New(storeCfg)
	if err != nil {
		log.Fatalf("seed: failed to connect to store: %v", err)
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cityID, err := backend.EnsureCity(ctx, *city)
	if err != nil {
		log.Fatalf("seed: failed to ensure city %q: %v", *city, err)
	}

	nodes, edges := buildGrid(*size, *originLat, *originLon)

	if err := backend.InsertNodes(ctx, cityID, nodes); err != nil {
		log.Fatalf("seed: failed to insert nodes: %v", err)
	}
	if err := backend.InsertEdges(ctx, cityID, edges); err != nil {
		log.Fatalf("seed: failed to insert edges: %v", err)
	}

	log.Printf("seed: inserted %d nodes and %d edges for city %q (id=%d)", len(nodes), len(edges), *city, cityID)
}

// buildGrid generates a size x size lattice of nodes connected to
// their four-connected neighbours with bidirectional edges, assigning
// highway/lit/risk attributes deterministically from each node's
// position so runs are reproducible.
func buildGrid(size int, originLat, originLon float64) ([]store.NodeRow, []store.EdgeRow) {
	osmid := func(row, col int) int64 {
		return int64(row*size + col + 1)
	}

	nodes := make([]store.NodeRow, 0, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			nodes = append(nodes, store.NodeRow{
				OSMID: osmid(row, col),
				Y:     originLat + float64(row)*gridSpacingDegrees,
				X:     originLon + float64(col)*gridSpacingDegrees,
			})
		}
	}

	var edges []store.EdgeRow
	addEdge := func(row1, col1, row2, col2, idx int) {
		u := osmid(row1, col1)
		v := osmid(row2, col2)
		highway := highwayTypes[idx%len(highwayTypes)]
		lit := idx%3 != 0
		length := gridSpacingDegrees * 111000 // degrees to metres at the equator, adequate for seeding
		travelTime := length / travelSpeedMetersPerSecond

		edges = append(edges,
			store.EdgeRow{U: u, V: v, Length: length, TravelTime: travelTime, Highway: highway, Lit: lit, TempRisk: tempRisk(highway), SecurityRisk: securityRisk(highway, lit)},
			store.EdgeRow{U: v, V: u, Length: length, TravelTime: travelTime, Highway: highway, Lit: lit, TempRisk: tempRisk(highway), SecurityRisk: securityRisk(highway, lit)},
		)
	}

	idx := 0
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if col+1 < size {
				addEdge(row, col, row, col+1, idx)
				idx++
			}
			if row+1 < size {
				addEdge(row, col, row+1, col, idx)
				idx++
			}
		}
	}

	return nodes, edges
}
