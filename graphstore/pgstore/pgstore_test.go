package pgstore_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
	"github.com/anatolykoptev/go-vk/graphstore/pgstore"
)

func setupStore(t *testing.T) *pgstore.PGStore {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := pgstore.Open(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() {
		s.DropSchema(ctx)
		s.Close(ctx)
	})
	return s
}

func TestNodeUpsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p := &vk.UserProfile{ID: 1, DisplayName: "Ann Lee", Sex: vk.SexFemale}
	require.NoError(t, s.UpsertUser(ctx, p))
	p.HomeTown = "Riga"
	require.NoError(t, s.UpsertUser(ctx, p))

	n, err := s.Node(ctx, graphstore.LabelUser, 1)
	require.NoError(t, err)
	assert.Equal(t, "Riga", n.Props["home_town"])

	_, err = s.Node(ctx, graphstore.LabelGroup, 1)
	if !errors.Is(err, graphstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEdgeUpsert_Idempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for range 2 {
		require.NoError(t, s.UpsertEdge(ctx, 2, 1, graphstore.Follows))
		require.NoError(t, s.UpsertEdge(ctx, 1, 10, graphstore.SubscribedTo))
	}

	userEdges, err := s.Edges(ctx, graphstore.LabelUser, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []graphstore.Edge{
		{Source: 2, Target: 1, Kind: graphstore.Follows},
		{Source: 1, Target: 10, Kind: graphstore.SubscribedTo},
	}, userEdges)

	groupEdges, err := s.Edges(ctx, graphstore.LabelGroup, 10)
	require.NoError(t, err)
	assert.Len(t, groupEdges, 1)

	none, err := s.Edges(ctx, graphstore.LabelUser, 777)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	// pgxpool dials lazily, so no server is needed here.
	pool, err := pgxpool.New(ctx, "postgres://vk:vk@127.0.0.1:1/vk")
	require.NoError(t, err)
	s := pgstore.New(pool)
	require.NoError(t, s.Close(ctx))

	err = s.UpsertEdge(ctx, 1, 2, graphstore.Follows)
	assert.ErrorIs(t, err, graphstore.ErrUnavailable)
	_, err = s.Edges(ctx, graphstore.LabelUser, 1)
	assert.ErrorIs(t, err, graphstore.ErrUnavailable)
}
