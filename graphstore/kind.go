package graphstore

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of relationship types. Backends map each kind to a
// fixed query template; kinds are never interpolated from caller input.
type Kind int

const (
	// Follows: User -> User. A follower follows the user; a user follows
	// each user it is subscribed to.
	Follows Kind = iota + 1

	// SubscribedTo: User -> Group.
	SubscribedTo

	// FollowedBy: User -> User, the reverse of a follower edge.
	FollowedBy
)

// Kinds lists every valid kind.
var Kinds = []Kind{Follows, SubscribedTo, FollowedBy}

// String returns the relationship type name.
func (k Kind) String() string {
	switch k {
	case Follows:
		return "FOLLOWS"
	case SubscribedTo:
		return "SUBSCRIBED_TO"
	case FollowedBy:
		return "FOLLOWED_BY"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	return k >= Follows && k <= FollowedBy
}

// SourceLabel is the label of the edge's source node.
func (k Kind) SourceLabel() Label {
	return LabelUser
}

// TargetLabel is the label of the edge's target node.
func (k Kind) TargetLabel() Label {
	if k == SubscribedTo {
		return LabelGroup
	}
	return LabelUser
}

// ParseKind maps a relationship type name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
