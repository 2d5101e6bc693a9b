package pgstore

import (
	"context"

	"github.com/anatolykoptev/go-vk/graphstore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vk_nodes (
    label      TEXT        NOT NULL,
    id         BIGINT      NOT NULL,
    props      JSONB       NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (label, id)
);

CREATE TABLE IF NOT EXISTS vk_edges (
    kind       TEXT        NOT NULL,
    source_id  BIGINT      NOT NULL,
    target_id  BIGINT      NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (kind, source_id, target_id)
);

CREATE INDEX IF NOT EXISTS idx_vk_edges_source ON vk_edges(source_id);
CREATE INDEX IF NOT EXISTS idx_vk_edges_target ON vk_edges(target_id);
`

// EnsureSchema creates the vk_nodes and vk_edges tables if they don't exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if err := s.check("ensure schema"); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, schemaSQL)
	return graphstore.Wrap("ensure schema", err)
}

// DropSchema drops the vk_edges and vk_nodes tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS vk_edges, vk_nodes CASCADE;`)
	return graphstore.Wrap("drop schema", err)
}
