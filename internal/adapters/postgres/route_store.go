package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
)

// RouteStore implements ports.RouteStore over a route_documents table. The
// sheet is authored and replaced as a whole, so each route is one jsonb
// document and the list order is an explicit position column.
type RouteStore struct {
	db *DB
}

func NewRouteStore(db *DB) *RouteStore { return &RouteStore{db: db} }

// Get returns all route documents in sheet order.
func (s *RouteStore) Get(ctx context.Context) ([]domain.Route, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT doc FROM route_documents ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query route documents: %w", err)
	}
	defer rows.Close()

	var routes []domain.Route
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var route domain.Route
		if err := json.Unmarshal(doc, &route); err != nil {
			return nil, fmt.Errorf("decode route document: %w", err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// Save replaces the whole document list atomically.
func (s *RouteStore) Save(ctx context.Context, routes []domain.Route) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM route_documents`); err != nil {
		return fmt.Errorf("clear route documents: %w", err)
	}

	batch := &pgx.Batch{}
	for i, route := range routes {
		doc, err := json.Marshal(route)
		if err != nil {
			return fmt.Errorf("encode route %s: %w", route.ID, err)
		}
		batch.Queue(`
			INSERT INTO route_documents (id, position, doc, updated_at)
			VALUES ($1, $2, $3, now())
		`, route.ID, i, doc)
	}
	br := tx.SendBatch(ctx, batch)
	for range routes {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}

	return tx.Commit(ctx)
}
