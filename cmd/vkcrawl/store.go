package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-vk/graphstore"
	"github.com/anatolykoptev/go-vk/graphstore/kvstore"
	"github.com/anatolykoptev/go-vk/graphstore/neo4jstore"
	"github.com/anatolykoptev/go-vk/graphstore/pgstore"
)

// openStore connects the configured backend. "none" is an in-memory badger
// store whose contents are dropped on exit.
func openStore(ctx context.Context, sc StoreConfig) (graphstore.Store, error) {
	switch sc.Backend {
	case "neo4j":
		return neo4jstore.Open(ctx, neo4jstore.Config{
			URI:      sc.Neo4j.URI,
			Username: sc.Neo4j.User,
			Password: sc.Neo4j.Password,
			Database: sc.Neo4j.Database,
		})
	case "postgres":
		if sc.Postgres.DSN == "" {
			return nil, fmt.Errorf("store postgres: DSN is required (--pg-dsn or DATABASE_URL)")
		}
		return pgstore.Open(ctx, sc.Postgres.DSN)
	case "badger":
		return kvstore.Open(kvstore.Options{Dir: sc.Badger.Dir})
	case "none":
		slog.Warn("store backend none: graph is kept in memory and discarded on exit")
		return kvstore.Open(kvstore.Options{InMemory: true})
	}
	return nil, fmt.Errorf("unknown store backend %q: want neo4j, postgres, badger or none", sc.Backend)
}

// addStoreFlags registers backend flags that override the config file.
func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("store", "", "graph store: neo4j, postgres, badger, none")
	f.String("neo4j-uri", "", "Neo4j bolt URI")
	f.String("neo4j-user", "", "Neo4j user")
	f.String("neo4j-database", "", "Neo4j database")
	f.String("pg-dsn", "", "PostgreSQL connection string")
	f.String("badger-dir", "", "BadgerDB data directory")
}

func applyStoreFlags(cmd *cobra.Command, sc *StoreConfig) {
	f := cmd.Flags()
	for name, dst := range map[string]*string{
		"store":          &sc.Backend,
		"neo4j-uri":      &sc.Neo4j.URI,
		"neo4j-user":     &sc.Neo4j.User,
		"neo4j-database": &sc.Neo4j.Database,
		"pg-dsn":         &sc.Postgres.DSN,
		"badger-dir":     &sc.Badger.Dir,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
}
