package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citybus/citybus_core/internal/catalog"
	"github.com/citybus/citybus_core/internal/engine"
	"github.com/citybus/citybus_core/internal/geo"
	"github.com/citybus/citybus_core/internal/models"
)

const batchSize = 1000

// Repository persists bus networks: stops with coordinates, directed road
// distances, and lines with their ordered stop sequences.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a repository over an open pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the network tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stop (
			id   SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			lat  DOUBLE PRECISION NOT NULL,
			lon  DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stop_distance (
			from_stop TEXT NOT NULL,
			to_stop   TEXT NOT NULL,
			meters    DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (from_stop, to_stop)
		)`,
		`CREATE TABLE IF NOT EXISTS line (
			id           SERIAL PRIMARY KEY,
			name         TEXT UNIQUE NOT NULL,
			is_roundtrip BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS line_stop (
			line_name TEXT NOT NULL,
			position  INT NOT NULL,
			stop_name TEXT NOT NULL,
			PRIMARY KEY (line_name, position)
		)`,
		`CREATE TABLE IF NOT EXISTS import_log (
			id           TEXT PRIMARY KEY,
			started_at   TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			stops_count  INT NOT NULL DEFAULT 0,
			lines_count  INT NOT NULL DEFAULT 0,
			status       TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveNetwork stores a network's base requests, replacing any previous
// network. Each import is recorded in import_log under the given run id.
func (r *Repository) SaveNetwork(ctx context.Context, requests []models.BaseRequest, runID string) error {
	startedAt := time.Now()
	if _, err := r.db.Exec(ctx,
		`INSERT INTO import_log (id, started_at, status) VALUES ($1, $2, 'running')`,
		runID, startedAt); err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}

	for _, table := range []string{"line_stop", "line", "stop_distance", "stop"} {
		if _, err := r.db.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	stops, lines := 0, 0

	for _, req := range requests {
		switch req.Type {
		case models.RequestStop:
			batch.Queue(`
				INSERT INTO stop (name, lat, lon) VALUES ($1, $2, $3)
				ON CONFLICT (name) DO UPDATE SET lat = $2, lon = $3
			`, req.Name, req.Latitude, req.Longitude)
			for neighbour, meters := range req.RoadDistances {
				batch.Queue(`
					INSERT INTO stop_distance (from_stop, to_stop, meters) VALUES ($1, $2, $3)
					ON CONFLICT (from_stop, to_stop) DO UPDATE SET meters = $3
				`, req.Name, neighbour, meters)
			}
			stops++
		case models.RequestBus:
			batch.Queue(`INSERT INTO line (name, is_roundtrip) VALUES ($1, $2)`,
				req.Name, req.IsRoundtrip)
			for position, stopName := range req.Stops {
				batch.Queue(`
					INSERT INTO line_stop (line_name, position, stop_name) VALUES ($1, $2, $3)
				`, req.Name, position, stopName)
			}
			lines++
		default:
			return fmt.Errorf("unknown base request type %q", req.Type)
		}

		if batch.Len() >= batchSize {
			if err := r.sendBatch(ctx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}

	if batch.Len() > 0 {
		if err := r.sendBatch(ctx, batch); err != nil {
			return err
		}
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE import_log
		SET completed_at = $2, stops_count = $3, lines_count = $4, status = 'completed'
		WHERE id = $1
	`, runID, time.Now(), stops, lines); err != nil {
		return fmt.Errorf("failed to complete import run: %w", err)
	}

	log.Printf("Network saved: %d stops, %d lines (run %s)", stops, lines, runID)
	return nil
}

func (r *Repository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d failed: %w", i, err)
		}
	}
	return nil
}

// LoadNetwork reads the stored network into an engine's catalog. Stops are
// added in the order they were saved. A neighbour that a stop's distances name
// before the neighbour's own row is created in map iteration order, so vertex
// numbering is not guaranteed to be the same on every load.
func (r *Repository) LoadNetwork(ctx context.Context, eng *engine.Engine) error {
	distances := make(map[string]map[string]float64)
	distRows, err := r.db.Query(ctx,
		`SELECT from_stop, to_stop, meters FROM stop_distance`)
	if err != nil {
		return fmt.Errorf("failed to load road distances: %w", err)
	}
	defer distRows.Close()
	for distRows.Next() {
		var from, to string
		var meters float64
		if err := distRows.Scan(&from, &to, &meters); err != nil {
			return fmt.Errorf("failed to scan road distance: %w", err)
		}
		if distances[from] == nil {
			distances[from] = make(map[string]float64)
		}
		distances[from][to] = meters
	}

	stopRows, err := r.db.Query(ctx, `SELECT name, lat, lon FROM stop ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to load stops: %w", err)
	}
	defer stopRows.Close()

	stopCount := 0
	for stopRows.Next() {
		var name string
		var lat, lon float64
		if err := stopRows.Scan(&name, &lat, &lon); err != nil {
			return fmt.Errorf("failed to scan stop: %w", err)
		}
		if err := eng.AddStop(name, geo.Coordinates{Lat: lat, Lon: lon}, distances[name]); err != nil {
			return fmt.Errorf("failed to add stop %q: %w", name, err)
		}
		stopCount++
	}

	lineStops := make(map[string][]string)
	stopSeqRows, err := r.db.Query(ctx,
		`SELECT line_name, stop_name FROM line_stop ORDER BY line_name, position`)
	if err != nil {
		return fmt.Errorf("failed to load line stops: %w", err)
	}
	defer stopSeqRows.Close()
	for stopSeqRows.Next() {
		var lineName, stopName string
		if err := stopSeqRows.Scan(&lineName, &stopName); err != nil {
			return fmt.Errorf("failed to scan line stop: %w", err)
		}
		lineStops[lineName] = append(lineStops[lineName], stopName)
	}

	lineRows, err := r.db.Query(ctx, `SELECT name, is_roundtrip FROM line ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to load lines: %w", err)
	}
	defer lineRows.Close()

	lineCount := 0
	for lineRows.Next() {
		var name string
		var roundtrip bool
		if err := lineRows.Scan(&name, &roundtrip); err != nil {
			return fmt.Errorf("failed to scan line: %w", err)
		}
		kind := lineKind(roundtrip)
		if err := eng.AddLine(name, lineStops[name], kind); err != nil {
			return fmt.Errorf("failed to add line %q: %w", name, err)
		}
		lineCount++
	}

	log.Printf("Network loaded: %d stops, %d lines", stopCount, lineCount)
	return nil
}

func lineKind(roundtrip bool) catalog.LineKind {
	if roundtrip {
		return catalog.Circular
	}
	return catalog.Linear
}
