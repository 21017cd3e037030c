// Package graph holds the in-memory road network bundle used by the
// search package, and the per-city store that loads and caches it.
//
// A Bundle is immutable once published: it is only handed out after a
// complete, successful load from the store, generalizing
// passbi_core/internal/graph.InMemoryGraph's single global
// sync.Once-guarded graph into a map keyed by city, one bundle per
// city, loaded at most once concurrently via singleflight.
package graph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cargorouter/routeengine/internal/store"
)

// Node is a single intersection/vertex of the road network.
type Node struct {
	OSMID int64
	Lat   float64
	Lon   float64
}

// Edge is a single directed arc of the road network, carrying the
// attributes the cost model needs.
type Edge struct {
	To           int
	Length       float64
	TravelTime   float64
	Highway      string
	Lit          bool
	TempRisk     float64
	SecurityRisk float64
}

// Bundle is a fully loaded, read-only road network for one city.
// Nodes are addressed by a dense index (0..len(NodeIDs)-1); OSMIDs and
// coordinates are kept in parallel slices so search code can work
// with plain integer indices, and the API layer can translate back to
// OSM ids and coordinates for the response.
type Bundle struct {
	City     string
	NodeIDs  []int64
	Coords   [][2]float64 // parallel to NodeIDs, (lat, lon)
	Adjacent [][]Edge     // Adjacent[i] is the list of outbound edges from node i
	index    map[int64]int
}

// IndexOf returns the dense index for an OSM node id, or -1 if absent.
func (b *Bundle) IndexOf(osmid int64) int {
	if i, ok := b.index[osmid]; ok {
		return i
	}
	return -1
}

// Store lazily loads and caches one Bundle per city, coalescing
// concurrent loads of the same city into a single store round-trip
// via singleflight.Group, grounded on IvanBrykalov-shardcache's
// internal/singleflight leader/follower pattern (here using the
// equivalent golang.org/x/sync/singleflight implementation).
type Store struct {
	backend *store.Store
	group   singleflight.Group

	mu      sync.RWMutex
	bundles map[string]*Bundle
}

// NewStore wraps a store.Store with per-city bundle caching.
func NewStore(backend *store.Store) *Store {
	return &Store{
		backend: backend,
		bundles: make(map[string]*Bundle),
	}
}

// Get returns the cached bundle for city if present, loading it
// (exactly once even under concurrent callers) otherwise.
func (s *Store) Get(ctx context.Context, city string) (*Bundle, error) {
	s.mu.RLock()
	b, ok := s.bundles[city]
	s.mu.RUnlock()
	if ok {
		return b, nil
	}

	v, err, _ := s.group.Do(city, func() (interface{}, error) {
		s.mu.RLock()
		if existing, ok := s.bundles[city]; ok {
			s.mu.RUnlock()
			return existing, nil
		}
		s.mu.RUnlock()

		bundle, err := s.load(ctx, city)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.bundles[city] = bundle
		s.mu.Unlock()

		return bundle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

func (s *Store) load(ctx context.Context, city string) (*Bundle, error) {
	cityID, err := s.backend.CityID(ctx, city)
	if err != nil {
		return nil, err
	}

	nodeRows, err := s.backend.LoadNodes(ctx, cityID)
	if err != nil {
		return nil, err
	}
	edgeRows, err := s.backend.LoadEdges(ctx, cityID)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		City:     city,
		NodeIDs:  make([]int64, len(nodeRows)),
		Coords:   make([][2]float64, len(nodeRows)),
		Adjacent: make([][]Edge, len(nodeRows)),
		index:    make(map[int64]int, len(nodeRows)),
	}

	for i, n := range nodeRows {
		b.NodeIDs[i] = n.OSMID
		b.Coords[i] = [2]float64{n.Y, n.X} // row's y is lat, x is lon
		b.index[n.OSMID] = i
	}

	for _, e := range edgeRows {
		u, uok := b.index[e.U]
		v, vok := b.index[e.V]
		if !uok || !vok {
			continue
		}
		b.Adjacent[u] = append(b.Adjacent[u], Edge{
			To:           v,
			Length:       e.Length,
			TravelTime:   e.TravelTime,
			Highway:      e.Highway,
			Lit:          e.Lit,
			TempRisk:     e.TempRisk,
			SecurityRisk: e.SecurityRisk,
		})
	}

	if len(b.NodeIDs) == 0 {
		return nil, fmt.Errorf("%w: %s has no nodes", store.ErrCityUnknown, city)
	}

	return b, nil
}

// Invalidate drops a cached bundle, forcing the next Get to reload it.
// Not currently exercised by any request path (spec.md leaves graph
// reload undefined), but kept so an operator can force a refresh
// between city data updates without restarting the process.
func (s *Store) Invalidate(city string) {
	s.mu.Lock()
	delete(s.bundles, city)
	s.mu.Unlock()
}
