// Package search implements the deadline-bounded A* core and its
// Dijkstra fallback over an in-memory graph.Bundle.
//
// The heap machinery is grounded on
// passbi_core/internal/routing/astar.go's container/heap
// PriorityQueue, generalized from lat/lon float coordinates to plain
// node indices. The degradation semantics — tracking the best node
// seen so far and updating it at edge-relaxation time rather than at
// pop time — are grounded on the original prototype's
// route_engine/app/a_star.py:astar_with_deadline, which the teacher's
// Go version does not implement (it simply returns an error on
// context timeout).
package search

import (
	"container/heap"
	"context"
	"time"

	"github.com/cargorouter/routeengine/internal/graph"
)

// Reason strings reported on a Result, matching the original
// prototype's reason values.
const (
	ReasonNone    = ""
	ReasonTimeout = "timeout"
	ReasonNoPath  = "no_path"
)

// Result is the outcome of a single search.
type Result struct {
	Path     []int // dense node indices, source..target (or source..best-so-far if degraded)
	Cost     float64
	Expanded int
	Degraded bool
	Reason   string
}

// Heuristic estimates the remaining cost from node i to the target.
// It must never overestimate the true remaining cost for the search
// to remain admissible.
type Heuristic func(i int) float64

// Weight returns the cost of traversing an edge.
type Weight func(e graph.Edge) float64

type pqItem struct {
	node  int
	g     float64
	f     float64
	seq   int // insertion order, used as a deterministic tiebreaker
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// AStar runs a deadline-bounded best-first search from source to
// target. If the deadline elapses before the target is reached, it
// returns a degraded result: the best partial path found so far,
// reconstructed from the lowest-f node seen, with Reason set to
// "timeout". If the search space is exhausted without reaching the
// target, Reason is "no_path" and Path is nil.
func AStar(ctx context.Context, b *graph.Bundle, source, target int, h Heuristic, w Weight, deadline time.Duration) Result {
	start := time.Now()

	cameFrom := make(map[int]int)
	gScore := map[int]float64{source: 0}

	pq := &priorityQueue{}
	heap.Init(pq)

	seq := 0
	push := func(node int, g, f float64) {
		heap.Push(pq, &pqItem{node: node, g: g, f: f, seq: seq})
		seq++
	}

	push(source, 0, h(source))

	bestNode := source
	bestF := h(source)

	expanded := 0
	visited := make(map[int]bool)

	for pq.Len() > 0 {
		if time.Since(start) > deadline {
			return Result{
				Path:     reconstruct(cameFrom, source, bestNode),
				Cost:     gScore[bestNode],
				Expanded: expanded,
				Degraded: true,
				Reason:   ReasonTimeout,
			}
		}
		select {
		case <-ctx.Done():
			return Result{
				Path:     reconstruct(cameFrom, source, bestNode),
				Cost:     gScore[bestNode],
				Expanded: expanded,
				Degraded: true,
				Reason:   ReasonTimeout,
			}
		default:
		}

		current := heap.Pop(pq).(*pqItem)
		if visited[current.node] {
			continue
		}
		visited[current.node] = true
		expanded++

		if current.node == target {
			return Result{
				Path:     reconstruct(cameFrom, source, target),
				Cost:     gScore[target],
				Expanded: expanded,
				Degraded: false,
				Reason:   ReasonNone,
			}
		}

		for _, e := range b.Adjacent[current.node] {
			if visited[e.To] {
				continue
			}
			tentativeG := gScore[current.node] + w(e)
			if g, ok := gScore[e.To]; ok && tentativeG >= g {
				continue
			}
			gScore[e.To] = tentativeG
			cameFrom[e.To] = current.node
			f := tentativeG + h(e.To)
			push(e.To, tentativeG, f)

			if f < bestF {
				bestF = f
				bestNode = e.To
			}
		}
	}

	return Result{
		Expanded: expanded,
		Degraded: false,
		Reason:   ReasonNoPath,
	}
}

// Dijkstra runs an unheuristic shortest-path search (heuristic always
// zero), used as the fallback when AStar reports no_path, matching
// the original prototype's nx.shortest_path(G, s, t,
// weight="travel_time") fallback. It shares the same priority-queue
// machinery as AStar with h always 0.
func Dijkstra(ctx context.Context, b *graph.Bundle, source, target int, w Weight, deadline time.Duration) Result {
	zero := func(int) float64 { return 0 }
	return AStar(ctx, b, source, target, zero, w, deadline)
}

func reconstruct(cameFrom map[int]int, source, node int) []int {
	path := []int{node}
	for node != source {
		prev, ok := cameFrom[node]
		if !ok {
			break
		}
		node = prev
		path = append(path, node)
	}
	// reverse in place
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
