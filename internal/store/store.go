// Package store is the thin Postgres access layer the graph loader
// depends on. It owns nothing about routing; it only knows the row
// shapes the ingest collaborator populates (spec.md §6, "Persisted
// state") and how to read them back in bounded-size chunks.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cargorouter/routeengine/internal/config"
)

// ErrCityUnknown is returned when a city has no row in the cities table.
var ErrCityUnknown = errors.New("city unknown")

// ErrStoreUnavailable wraps any underlying I/O failure while talking to Postgres.
var ErrStoreUnavailable = errors.New("store unavailable")

// chunkSize bounds the number of rows fetched per round-trip when
// streaming nodes/edges, per spec.md §4.B ("bounded-size chunks, at
// most 10 000 rows per round-trip").
const chunkSize = 10000

// NodeRow is a single row of the nodes table.
type NodeRow struct {
	OSMID int64
	X, Y  float64
}

// EdgeRow is a single row of the edges table.
type EdgeRow struct {
	U, V         int64
	Length       float64
	TravelTime   float64
	Highway      string
	Lit          bool
	TempRisk     float64
	SecurityRisk float64
}

// Store wraps a pgxpool.Pool with the row access the graph loader needs.
type Store struct {
	pool *pgxpool.Pool
}

// New creates and pings a new connection pool, grounded on
// passbi_core/internal/db.initPool.
func New(cfg *config.StoreConfig) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create connection pool: %v", ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: unable to ping database: %v", ErrStoreUnavailable, err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// HealthCheck performs a health check on the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// CityID resolves a city name to its surrogate key, or ErrCityUnknown
// if the ingest collaborator never registered it.
func (s *Store) CityID(ctx context.Context, city string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM cities WHERE name = $1`, city).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrCityUnknown, city)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

// LoadNodes streams all nodes for a city in bounded chunks, mirroring
// the original prototype's cur.fetchmany(10000) loop
// (route_engine/app/db.py:load_graph).
func (s *Store) LoadNodes(ctx context.Context, cityID int64) ([]NodeRow, error) {
	var nodes []NodeRow
	offset := 0
	for {
		rows, err := s.pool.Query(ctx,
			`SELECT osmid, x, y FROM nodes WHERE city_id = $1 ORDER BY osmid LIMIT $2 OFFSET $3`,
			cityID, chunkSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to query nodes: %v", ErrStoreUnavailable, err)
		}

		batch := 0
		for rows.Next() {
			var n NodeRow
			if err := rows.Scan(&n.OSMID, &n.X, &n.Y); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: failed to scan node: %v", ErrStoreUnavailable, err)
			}
			nodes = append(nodes, n)
			batch++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if batch < chunkSize {
			break
		}
		offset += chunkSize
	}
	return nodes, nil
}

// LoadEdges streams all directed edges for a city in bounded chunks.
func (s *Store) LoadEdges(ctx context.Context, cityID int64) ([]EdgeRow, error) {
	var edges []EdgeRow
	offset := 0
	for {
		rows, err := s.pool.Query(ctx,
			`SELECT u, v, length, travel_time, highway, lit, temp_risk, security_risk
			 FROM edges WHERE city_id = $1 ORDER BY u LIMIT $2 OFFSET $3`,
			cityID, chunkSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to query edges: %v", ErrStoreUnavailable, err)
		}

		batch := 0
		for rows.Next() {
			var e EdgeRow
			if err := rows.Scan(&e.U, &e.V, &e.Length, &e.TravelTime, &e.Highway,
				&e.Lit, &e.TempRisk, &e.SecurityRisk); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: failed to scan edge: %v", ErrStoreUnavailable, err)
			}
			edges = append(edges, e)
			batch++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if batch < chunkSize {
			break
		}
		offset += chunkSize
	}
	return edges, nil
}

// EnsureCity inserts the city row if absent and returns its id, used
// by cmd/seed to populate fixtures for local testing.
func (s *Store) EnsureCity(ctx context.Context, city string) (int64, error) {
	_, err := s.pool.Exec(ctx, `INSERT INTO cities(name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, city)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.CityID(ctx, city)
}

// InsertNodes batch-inserts node rows, grounded on
// passbi_core/internal/graph.Builder's pgx.Batch pattern.
func (s *Store) InsertNodes(ctx context.Context, cityID int64, rows []NodeRow) error {
	batch := &pgx.Batch{}
	for _, n := range rows {
		batch.Queue(
			`INSERT INTO nodes(city_id, osmid, x, y) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			cityID, n.OSMID, n.X, n.Y)
	}
	return s.executeBatch(ctx, batch)
}

// InsertEdges batch-inserts edge rows.
func (s *Store) InsertEdges(ctx context.Context, cityID int64, rows []EdgeRow) error {
	batch := &pgx.Batch{}
	for _, e := range rows {
		batch.Queue(
			`INSERT INTO edges(city_id, u, v, length, travel_time, highway, lit, temp_risk, security_risk)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT DO NOTHING`,
			cityID, e.U, e.V, e.Length, e.TravelTime, e.Highway, e.Lit, e.TempRisk, e.SecurityRisk)
	}
	return s.executeBatch(ctx, batch)
}

func (s *Store) executeBatch(ctx context.Context, batch *pgx.Batch) error {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%w: batch execution failed at query %d: %v", ErrStoreUnavailable, i, err)
		}
	}
	return nil
}
