package vk

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeID identifies a user or a group. User and group IDs live in separate
// namespaces: the same number may name both a user and a group.
type NodeID int64

// String returns the decimal form of the ID.
func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseNodeID parses a positive decimal node ID.
func ParseNodeID(s string) (NodeID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse node id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("parse node id %q: must be positive", s)
	}
	return NodeID(n), nil
}

// Sex is the profile gender as reported by VK (0 unknown, 1 female, 2 male).
type Sex int

const (
	SexUnknown Sex = 0
	SexFemale  Sex = 1
	SexMale    Sex = 2
)

func (s Sex) String() string {
	switch s {
	case SexFemale:
		return "female"
	case SexMale:
		return "male"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Sex) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sex) UnmarshalText(b []byte) error {
	switch string(b) {
	case "female":
		*s = SexFemale
	case "male":
		*s = SexMale
	default:
		*s = SexUnknown
	}
	return nil
}

// SubjectKind tags a subscription entry as a user or a group.
type SubjectKind string

const (
	SubjectUser  SubjectKind = "user"
	SubjectGroup SubjectKind = "group"
)

// Subscription is one entry of a user's subscriptions listing.
type Subscription struct {
	ID         NodeID      `json:"id"`
	Kind       SubjectKind `json:"kind"`
	Name       string      `json:"name,omitempty"`
	ScreenName string      `json:"screen_name,omitempty"`
}

// GroupRef is a community referenced from a subscriptions listing.
type GroupRef struct {
	ID         NodeID `json:"id"`
	Name       string `json:"name,omitempty"`
	ScreenName string `json:"screen_name,omitempty"`
}

// UserProfile is a user's base profile combined with followers and subscriptions.
type UserProfile struct {
	ID            NodeID         `json:"id"`
	ScreenName    string         `json:"screen_name,omitempty"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	DisplayName   string         `json:"display_name"`
	Sex           Sex            `json:"sex"`
	HomeTown      string         `json:"home_town,omitempty"`
	Deactivated   string         `json:"deactivated,omitempty"`
	Followers     []NodeID       `json:"followers"`
	Subscriptions []Subscription `json:"subscriptions"`

	// Incomplete names the optional parts ("followers", "subscriptions")
	// that could not be fetched.
	Incomplete []string `json:"incomplete,omitempty"`
}

// UserSubscriptions returns the IDs of subscribed users.
func (p *UserProfile) UserSubscriptions() []NodeID {
	var ids []NodeID
	for _, s := range p.Subscriptions {
		if s.Kind == SubjectUser {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// GroupSubscriptions returns the subscribed groups.
func (p *UserProfile) GroupSubscriptions() []GroupRef {
	var groups []GroupRef
	for _, s := range p.Subscriptions {
		if s.Kind == SubjectGroup {
			groups = append(groups, GroupRef{ID: s.ID, Name: s.Name, ScreenName: s.ScreenName})
		}
	}
	return groups
}
