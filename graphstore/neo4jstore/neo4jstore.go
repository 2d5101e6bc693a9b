// Package neo4jstore is the Neo4j graphstore backend.
//
// Users and groups are nodes labelled User and Group keyed by their numeric
// id. Every write is a MERGE, so replaying a crawl leaves the graph unchanged.
package neo4jstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string // e.g. bolt://localhost:7687
	Username string
	Password string
	Database string // empty selects the server default
}

// Store implements graphstore.Store on a Neo4j driver.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	closed   atomic.Bool
}

var _ graphstore.Store = (*Store)(nil)

// Open connects to Neo4j and verifies the server is reachable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("neo4jstore: URI is required")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, graphstore.Wrap("open", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, graphstore.Wrap("open", fmt.Errorf("%w: %v", graphstore.ErrUnavailable, err))
	}
	slog.Info("neo4j connected", slog.String("uri", cfg.URI), slog.String("database", cfg.Database))
	return New(driver, cfg.Database), nil
}

// New wraps an existing driver. The Store takes ownership of it.
func New(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// write runs one statement in a write session and drains its result.
func (s *Store) write(ctx context.Context, op, query string, params map[string]any) error {
	if s.closed.Load() {
		return &graphstore.StoreError{Op: op, Err: graphstore.ErrUnavailable}
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return wrapErr(op, err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, op, query string, params map[string]any) ([]*neo4j.Record, error) {
	if s.closed.Load() {
		return nil, &graphstore.StoreError{Op: op, Err: graphstore.ErrUnavailable}
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return records, nil
}

func wrapErr(op string, err error) error {
	if neo4j.IsConnectivityError(err) {
		err = fmt.Errorf("%w: %v", graphstore.ErrUnavailable, err)
	}
	return graphstore.Wrap(op, err)
}

// UpsertUser implements graphstore.Sink.
func (s *Store) UpsertUser(ctx context.Context, p *vk.UserProfile) error {
	return s.write(ctx, "upsert user", upsertUserQuery, map[string]any{
		"id":    int64(p.ID),
		"props": graphstore.UserProps(p),
	})
}

// UpsertGroup implements graphstore.Sink.
func (s *Store) UpsertGroup(ctx context.Context, g vk.GroupRef) error {
	return s.write(ctx, "upsert group", upsertGroupQuery, map[string]any{
		"id":    int64(g.ID),
		"props": graphstore.GroupProps(g),
	})
}

// UpsertEdge implements graphstore.Sink. Missing endpoints are created as
// bare nodes carrying only their id.
func (s *Store) UpsertEdge(ctx context.Context, source, target vk.NodeID, kind graphstore.Kind) error {
	const op = "upsert edge"
	query, ok := edgeQueries[kind]
	if !ok {
		return graphstore.Wrap(op, fmt.Errorf("%w: %d", graphstore.ErrUnknownKind, int(kind)))
	}
	return s.write(ctx, op, query, map[string]any{
		"source": int64(source),
		"target": int64(target),
	})
}

// Node implements graphstore.Reader.
func (s *Store) Node(ctx context.Context, label graphstore.Label, id vk.NodeID) (*graphstore.Node, error) {
	query, ok := nodeQueries[label]
	if !ok {
		return nil, graphstore.ErrNotFound
	}
	records, err := s.read(ctx, "get node", query, map[string]any{"id": int64(id)})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, graphstore.ErrNotFound
	}
	n := &graphstore.Node{Label: label, ID: id, Props: map[string]any{}}
	if raw, ok := records[0].Get("props"); ok {
		if props, ok := raw.(map[string]any); ok {
			for k, v := range props {
				if k != "id" {
					n.Props[k] = v
				}
			}
		}
	}
	return n, nil
}

// Edges implements graphstore.Reader.
func (s *Store) Edges(ctx context.Context, label graphstore.Label, id vk.NodeID) ([]graphstore.Edge, error) {
	const op = "list edges"
	query, ok := edgesQueries[label]
	if !ok {
		return []graphstore.Edge{}, nil
	}
	records, err := s.read(ctx, op, query, map[string]any{"id": int64(id)})
	if err != nil {
		return nil, err
	}
	edges := make([]graphstore.Edge, 0, len(records))
	for _, rec := range records {
		e, err := edgeFromRecord(rec)
		if err != nil {
			return nil, graphstore.Wrap(op, err)
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func edgeFromRecord(rec *neo4j.Record) (graphstore.Edge, error) {
	kindName, _ := rec.Get("kind")
	name, _ := kindName.(string)
	kind, err := graphstore.ParseKind(name)
	if err != nil {
		return graphstore.Edge{}, err
	}
	source, _ := rec.Get("source")
	target, _ := rec.Get("target")
	src, ok1 := source.(int64)
	dst, ok2 := target.(int64)
	if !ok1 || !ok2 {
		return graphstore.Edge{}, fmt.Errorf("neo4jstore: edge endpoints are not integers: %v, %v", source, target)
	}
	return graphstore.Edge{Source: vk.NodeID(src), Target: vk.NodeID(dst), Kind: kind}, nil
}

// EnsureSchema creates uniqueness constraints on User.id and Group.id.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := s.write(ctx, "ensure schema", stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

// Close implements graphstore.Store.
func (s *Store) Close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.driver.Close(ctx)
}
