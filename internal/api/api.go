// Package api implements the HTTP surface: GET /healthz and POST
// /route. The handler shape — cache lookup, lock/wait-for-lock
// coalescing, compute, cache store — is grounded on
// passbi_core/internal/api/handlers.go's RouteSearch/computeRoute.
// The route/request/response contract and the full orchestration
// sequence are grounded on the original prototype's
// route_engine/app/main.py's POST /route handler.
package api

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cargorouter/routeengine/internal/cache"
	"github.com/cargorouter/routeengine/internal/config"
	"github.com/cargorouter/routeengine/internal/costmodel"
	"github.com/cargorouter/routeengine/internal/geometry"
	"github.com/cargorouter/routeengine/internal/graph"
	"github.com/cargorouter/routeengine/internal/metrics"
	"github.com/cargorouter/routeengine/internal/search"
	"github.com/cargorouter/routeengine/internal/store"
)

// freeFlowSpeedMetersPerSecond is the speed the A* heuristic assumes
// is never exceeded (60 km/h), matching spec.md §4.D.
const freeFlowSpeedMetersPerSecond = 16.6667

// minDeadlineSeconds is the floor applied to the request deadline,
// per spec.md §4.G step 6.
const minDeadlineSeconds = 0.05

// waitForLockTimeout bounds how long a follower request waits for a
// concurrent leader request to populate the cache before falling back
// to computing the route itself.
const waitForLockTimeout = 2 * time.Second

// LatLon is a (lat, lon) coordinate pair as used on the wire.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteRequest is the POST /route request body, per spec.md §6.
type RouteRequest struct {
	City        string                `json:"city"`
	Source      LatLon                `json:"source"`
	Target      LatLon                `json:"target"`
	Constraints costmodel.Constraints `json:"constraints"`
	DeadlineMs  int                   `json:"deadline_ms"`
}

// RouteResponse is the POST /route success response body, matching
// the cached-result shape from spec.md §3.
type RouteResponse struct {
	City             string                `json:"city"`
	SourceNode       int64                 `json:"source_node"`
	TargetNode       int64                 `json:"target_node"`
	Constraints      costmodel.Constraints `json:"constraints"`
	Degraded         bool                  `json:"degraded"`
	Reason           string                `json:"reason"`
	TravelTimeSecEst float64               `json:"travel_time_sec_est"`
	Nodes            []int64               `json:"nodes"`
	Geometry         []LatLon              `json:"geometry"`
	ExpandedNodes    int                   `json:"expanded_nodes"`
}

// errorResponse is the JSON body for any non-2xx response, per spec.md §6/§7.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// graphLoader is the subset of *graph.Store the orchestrator needs,
// narrowed to an interface so tests can substitute an in-memory fake
// instead of a real Postgres-backed store.
type graphLoader interface {
	Get(ctx context.Context, city string) (*graph.Bundle, error)
}

// resultCache is the subset of *cache.Cache the orchestrator needs.
type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	AcquireLock(ctx context.Context, key string) bool
	ReleaseLock(ctx context.Context, key string)
	WaitForLock(ctx context.Context, key string, dest interface{}, maxWait time.Duration) bool
}

// Server wires together the graph store, cost model, cache, and
// metrics behind the HTTP surface.
type Server struct {
	graphs  graphLoader
	cache   resultCache
	metrics *metrics.Metrics
	cfg     *config.APIConfig
}

// New builds a Server from its collaborators.
func New(graphs *graph.Store, c *cache.Cache, m *metrics.Metrics, cfg *config.APIConfig) *Server {
	return &Server{graphs: graphs, cache: c, metrics: m, cfg: cfg}
}

// Register attaches the service's routes to a Fiber app.
func (s *Server) Register(app *fiber.App) {
	app.Get("/healthz", s.handleHealthz)
	app.Post("/route", s.handleRoute)
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleRoute(c *fiber.Ctx) error {
	var req RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if !validCoord(req.Source) || !validCoord(req.Target) {
		return badRequest(c, "source and target must be finite coordinates")
	}

	city := strings.ToLower(req.City)
	if city == "" {
		city = s.cfg.DefaultCity
	}
	deadlineMs := req.DeadlineMs
	if deadlineMs <= 0 {
		deadlineMs = s.cfg.RouteDeadlineMs
	}

	// Per spec.md §5, a client disconnect must not interrupt an
	// in-flight search, so the search and its cache write run against
	// an independent background context, not the request's.
	ctx := context.Background()
	start := time.Now()

	key := cache.Fingerprint(city, [2]float64{req.Source.Lat, req.Source.Lon}, [2]float64{req.Target.Lat, req.Target.Lon}, req.Constraints)

	var cached RouteResponse
	if s.cache.Get(ctx, key, &cached) {
		s.metrics.ObserveRequest(city, cached.Degraded, true, time.Since(start).Seconds())
		return c.JSON(cached)
	}

	var resp RouteResponse
	var kind string
	var err error

	if s.cache.AcquireLock(ctx, key) {
		resp, kind, err = s.compute(ctx, city, req.Source, req.Target, req.Constraints, deadlineMs)
		s.cache.ReleaseLock(ctx, key)
		if err == nil {
			s.cache.Set(ctx, key, resp)
		}
	} else {
		var follower RouteResponse
		if s.cache.WaitForLock(ctx, key, &follower, waitForLockTimeout) {
			resp = follower
		} else {
			resp, kind, err = s.compute(ctx, city, req.Source, req.Target, req.Constraints, deadlineMs)
			if err == nil {
				s.cache.Set(ctx, key, resp)
			}
		}
	}

	if err != nil {
		s.metrics.ObserveFailure(city, failureReason(kind))
		return respondError(c, kind, err)
	}

	s.metrics.ObserveRequest(city, resp.Degraded, false, time.Since(start).Seconds())
	return c.JSON(resp)
}

// compute runs the full route-finding pipeline for a single request:
// load the city graph, snap both endpoints, run the deadline-bounded
// A*, fall back to Dijkstra on no_path, and translate the result back
// to wire coordinates, per spec.md §4.G steps 3-9.
func (s *Server) compute(ctx context.Context, city string, source, target LatLon, constraints costmodel.Constraints, deadlineMs int) (RouteResponse, string, error) {
	bundle, err := s.graphs.Get(ctx, city)
	if err != nil {
		if errors.Is(err, store.ErrCityUnknown) {
			return RouteResponse{}, "city_unknown", err
		}
		return RouteResponse{}, "store_unavailable", err
	}

	sourceIdx := geometry.NearestNode(bundle.Coords, source.Lat, source.Lon)
	targetIdx := geometry.NearestNode(bundle.Coords, target.Lat, target.Lon)

	model := costmodel.New(constraints)
	weight := model.Cost
	heuristic := func(i int) float64 {
		c := bundle.Coords[i]
		t := bundle.Coords[targetIdx]
		return geometry.Haversine(c[0], c[1], t[0], t[1]) / freeFlowSpeedMetersPerSecond
	}

	deadlineSec := float64(deadlineMs) / 1000.0
	if deadlineSec < minDeadlineSeconds {
		deadlineSec = minDeadlineSeconds
	}
	deadline := time.Duration(deadlineSec * float64(time.Second))

	searchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	result := search.AStar(searchCtx, bundle, sourceIdx, targetIdx, heuristic, weight, deadline)
	expanded := result.Expanded

	if result.Reason == search.ReasonNoPath {
		fallback := search.Dijkstra(searchCtx, bundle, sourceIdx, targetIdx, costmodel.BaseTravelTime, deadline)
		expanded += fallback.Expanded
		if fallback.Reason == search.ReasonNoPath || len(fallback.Path) == 0 {
			s.metrics.ObserveExpanded(expanded)
			return RouteResponse{}, "no_path", errors.New("no path between source and destination")
		}
		result = fallback
		result.Reason = "fallback_dijkstra"
		result.Degraded = true
	}
	s.metrics.ObserveExpanded(expanded)

	if len(result.Path) == 0 {
		return RouteResponse{}, "no_path", errors.New("no path between source and destination")
	}

	nodes := make([]int64, len(result.Path))
	geom := make([]LatLon, len(result.Path))
	for i, idx := range result.Path {
		nodes[i] = bundle.NodeIDs[idx]
		c := bundle.Coords[idx]
		geom[i] = LatLon{Lat: c[0], Lon: c[1]}
	}

	return RouteResponse{
		City:             city,
		SourceNode:       bundle.NodeIDs[sourceIdx],
		TargetNode:       bundle.NodeIDs[targetIdx],
		Constraints:      constraints,
		Degraded:         result.Degraded,
		Reason:           result.Reason,
		TravelTimeSecEst: result.Cost,
		Nodes:            nodes,
		Geometry:         geom,
		ExpandedNodes:    expanded,
	}, "", nil
}

// failureReason maps an internal error kind to the metrics "reason"
// label. no_path is reported as "unreachable" per spec.md §8 scenario
// S4, distinct from the HTTP error body's "no_path" kind string.
func failureReason(kind string) string {
	if kind == "no_path" {
		return "unreachable"
	}
	return kind
}

func validCoord(c LatLon) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "bad_request", Detail: detail})
}

func respondError(c *fiber.Ctx, kind string, err error) error {
	switch kind {
	case "city_unknown":
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{Error: "city_unknown", Detail: err.Error()})
	case "no_path":
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{Error: "no_path", Detail: err.Error()})
	default:
		log.Printf("api: unexpected failure (%s): %v", kind, err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal_error", Detail: "internal error"})
	}
}
