package graphstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNamesAndLabels(t *testing.T) {
	tests := []struct {
		kind   Kind
		name   string
		target Label
	}{
		{Follows, "FOLLOWS", LabelUser},
		{SubscribedTo, "SUBSCRIBED_TO", LabelGroup},
		{FollowedBy, "FOLLOWED_BY", LabelUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.True(t, tt.kind.Valid())
			assert.Equal(t, LabelUser, tt.kind.SourceLabel())
			assert.Equal(t, tt.target, tt.kind.TargetLabel())

			parsed, err := ParseKind(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, parsed)
		})
	}
}

func TestKindRejectsUnknown(t *testing.T) {
	assert.False(t, Kind(0).Valid())
	assert.False(t, Kind(42).Valid())

	_, err := ParseKind("FOLLOWS]->(x) DETACH DELETE x //")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Kind(42).MarshalJSON()
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("op", nil))

	cause := errors.New("connection refused")
	err := Wrap("upsert user", cause)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upsert user", se.Op)
	assert.ErrorIs(t, err, cause)

	assert.Same(t, err, Wrap("other", err), "already wrapped errors pass through")
}
