// Package pgstore is a PostgreSQL graphstore backend: one table of nodes
// keyed by (label, id) and one table of edges keyed by (kind, source, target).
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
)

// PGStore implements graphstore.Store using PostgreSQL via pgx.
type PGStore struct {
	db     *pgxpool.Pool
	closed atomic.Bool
}

var _ graphstore.Store = (*PGStore)(nil)

// Open creates a pool for dsn and pings the server.
func Open(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, graphstore.Wrap("open", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, graphstore.Wrap("open", fmt.Errorf("%w: %v", graphstore.ErrUnavailable, err))
	}
	return New(db), nil
}

// New creates a PGStore backed by the given pgx connection pool.
// The store takes ownership of the pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) check(op string) error {
	if s.closed.Load() {
		return &graphstore.StoreError{Op: op, Err: graphstore.ErrUnavailable}
	}
	return nil
}

func (s *PGStore) upsertNode(ctx context.Context, op string, label graphstore.Label, id vk.NodeID, props map[string]any) error {
	if err := s.check(op); err != nil {
		return err
	}
	data, err := json.Marshal(props)
	if err != nil {
		return graphstore.Wrap(op, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO vk_nodes (label, id, props) VALUES ($1, $2, $3)
		ON CONFLICT (label, id) DO UPDATE SET props = EXCLUDED.props, updated_at = NOW()`,
		string(label), int64(id), data,
	)
	return graphstore.Wrap(op, err)
}

// UpsertUser implements graphstore.Sink.
func (s *PGStore) UpsertUser(ctx context.Context, p *vk.UserProfile) error {
	return s.upsertNode(ctx, "upsert user", graphstore.LabelUser, p.ID, graphstore.UserProps(p))
}

// UpsertGroup implements graphstore.Sink.
func (s *PGStore) UpsertGroup(ctx context.Context, g vk.GroupRef) error {
	return s.upsertNode(ctx, "upsert group", graphstore.LabelGroup, g.ID, graphstore.GroupProps(g))
}

// UpsertEdge implements graphstore.Sink. Endpoints need not exist yet.
func (s *PGStore) UpsertEdge(ctx context.Context, source, target vk.NodeID, kind graphstore.Kind) error {
	const op = "upsert edge"
	if !kind.Valid() {
		return graphstore.Wrap(op, fmt.Errorf("%w: %d", graphstore.ErrUnknownKind, int(kind)))
	}
	if err := s.check(op); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO vk_edges (kind, source_id, target_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		kind.String(), int64(source), int64(target),
	)
	return graphstore.Wrap(op, err)
}

// Node implements graphstore.Reader.
func (s *PGStore) Node(ctx context.Context, label graphstore.Label, id vk.NodeID) (*graphstore.Node, error) {
	const op = "get node"
	if err := s.check(op); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT props FROM vk_nodes WHERE label = $1 AND id = $2`, string(label), int64(id),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, graphstore.ErrNotFound
	}
	if err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	n := &graphstore.Node{Label: label, ID: id}
	if err := json.Unmarshal(data, &n.Props); err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	return n, nil
}

// Edges implements graphstore.Reader.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) Edges(ctx context.Context, label graphstore.Label, id vk.NodeID) ([]graphstore.Edge, error) {
	const op = "list edges"
	if err := s.check(op); err != nil {
		return nil, err
	}
	query := `
		SELECT kind, source_id, target_id FROM vk_edges
		WHERE source_id = $1 OR (target_id = $1 AND kind <> $2)
		ORDER BY created_at`
	if label == graphstore.LabelGroup {
		query = `
		SELECT kind, source_id, target_id FROM vk_edges
		WHERE target_id = $1 AND kind = $2
		ORDER BY created_at`
	}
	rows, err := s.db.Query(ctx, query, int64(id), graphstore.SubscribedTo.String())
	if err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	defer rows.Close()

	edges := []graphstore.Edge{}
	for rows.Next() {
		var (
			kindName       string
			source, target int64
		)
		if err := rows.Scan(&kindName, &source, &target); err != nil {
			return nil, graphstore.Wrap("scan edge", err)
		}
		kind, err := graphstore.ParseKind(kindName)
		if err != nil {
			return nil, graphstore.Wrap("scan edge", err)
		}
		edges = append(edges, graphstore.Edge{Source: vk.NodeID(source), Target: vk.NodeID(target), Kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	return edges, nil
}

// Close implements graphstore.Store.
func (s *PGStore) Close(context.Context) error {
	if !s.closed.Swap(true) {
		s.db.Close()
	}
	return nil
}
