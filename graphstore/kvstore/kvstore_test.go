package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
	"github.com/anatolykoptev/go-vk/graphstore/kvstore"
)

func newTestStore(t *testing.T) *kvstore.Store {
	t.Helper()
	s, err := kvstore.Open(kvstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestUpsertUser_LastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &vk.UserProfile{ID: 1, FirstName: "Ann", LastName: "Lee", DisplayName: "Ann Lee", Sex: vk.SexFemale}
	require.NoError(t, s.UpsertUser(ctx, p))
	require.NoError(t, s.UpsertUser(ctx, p))

	n, err := s.Node(ctx, graphstore.LabelUser, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", n.Props["name"])
	assert.Equal(t, "female", n.Props["sex"])

	p.HomeTown = "Riga"
	require.NoError(t, s.UpsertUser(ctx, p))
	n, err = s.Node(ctx, graphstore.LabelUser, 1)
	require.NoError(t, err)
	assert.Equal(t, "Riga", n.Props["home_town"])
}

func TestUserAndGroupNamespacesAreSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &vk.UserProfile{ID: 10, DisplayName: "User Ten"}))
	require.NoError(t, s.UpsertGroup(ctx, vk.GroupRef{ID: 10, Name: "Group Ten"}))

	u, err := s.Node(ctx, graphstore.LabelUser, 10)
	require.NoError(t, err)
	g, err := s.Node(ctx, graphstore.LabelGroup, 10)
	require.NoError(t, err)
	assert.Equal(t, "User Ten", u.Props["name"])
	assert.Equal(t, "Group Ten", g.Props["name"])
}

func TestNode_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Node(context.Background(), graphstore.LabelUser, 404)
	if !errors.Is(err, graphstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertEdge_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, s.UpsertEdge(ctx, 2, 1, graphstore.Follows))
	}
	require.NoError(t, s.UpsertEdge(ctx, 1, 10, graphstore.SubscribedTo))
	require.NoError(t, s.UpsertEdge(ctx, 1, 2, graphstore.FollowedBy))

	edges, err := s.Edges(ctx, graphstore.LabelUser, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []graphstore.Edge{
		{Source: 2, Target: 1, Kind: graphstore.Follows},
		{Source: 1, Target: 10, Kind: graphstore.SubscribedTo},
		{Source: 1, Target: 2, Kind: graphstore.FollowedBy},
	}, edges)

	groupEdges, err := s.Edges(ctx, graphstore.LabelGroup, 10)
	require.NoError(t, err)
	assert.Equal(t, []graphstore.Edge{{Source: 1, Target: 10, Kind: graphstore.SubscribedTo}}, groupEdges)
}

func TestUpsertEdge_UnknownKind(t *testing.T) {
	s := newTestStore(t)
	err := s.UpsertEdge(context.Background(), 1, 2, graphstore.Kind(99))
	assert.ErrorIs(t, err, graphstore.ErrUnknownKind)
}

func TestClosedStoreFails(t *testing.T) {
	s, err := kvstore.Open(kvstore.Options{InMemory: true})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx), "second close is a no-op")

	err = s.UpsertUser(ctx, &vk.UserProfile{ID: 1})
	var se *graphstore.StoreError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, graphstore.ErrUnavailable)
	assert.ErrorIs(t, s.UpsertGroup(ctx, vk.GroupRef{ID: 1}), graphstore.ErrUnavailable)
	assert.ErrorIs(t, s.UpsertEdge(ctx, 1, 2, graphstore.Follows), graphstore.ErrUnavailable)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := kvstore.Open(kvstore.Options{})
	require.Error(t, err)
}
