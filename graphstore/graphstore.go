// Package graphstore defines the persistence contract for the social graph:
// idempotent upserts of User and Group nodes and of typed, directed edges
// between them. Backends live in sub-packages.
package graphstore

import (
	"context"
	"errors"
	"fmt"

	vk "github.com/anatolykoptev/go-vk"
)

var (
	// ErrUnavailable is returned when the store connection is closed or
	// cannot be reached.
	ErrUnavailable = errors.New("graphstore: store unavailable")

	// ErrNotFound is returned by reads when a node does not exist.
	ErrNotFound = errors.New("graphstore: not found")

	// ErrUnknownKind is returned for edge kinds outside the closed set.
	ErrUnknownKind = errors.New("graphstore: unknown edge kind")
)

// StoreError reports a failed store operation. Sinks never drop a write
// silently: every failure surfaces as a *StoreError.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graphstore: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Wrap returns err as a *StoreError for op. nil stays nil and an existing
// *StoreError is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// Label is a node label. User and group IDs are separate namespaces.
type Label string

const (
	LabelUser  Label = "User"
	LabelGroup Label = "Group"
)

// ParseLabel accepts "user"/"User" and "group"/"Group".
func ParseLabel(s string) (Label, error) {
	switch s {
	case "user", "User", "users":
		return LabelUser, nil
	case "group", "Group", "groups":
		return LabelGroup, nil
	}
	return "", fmt.Errorf("graphstore: unknown label %q", s)
}

// Node is a stored node with its scalar properties.
type Node struct {
	Label Label          `json:"label"`
	ID    vk.NodeID      `json:"id"`
	Props map[string]any `json:"props,omitempty"`
}

// Edge is a typed directed relationship.
type Edge struct {
	Source vk.NodeID `json:"source"`
	Target vk.NodeID `json:"target"`
	Kind   Kind      `json:"kind"`
}

// Sink is the write side used by the crawler.
type Sink interface {
	// UpsertUser creates or updates the User node keyed by p.ID.
	// Scalar attributes are last-write-wins.
	UpsertUser(ctx context.Context, p *vk.UserProfile) error

	// UpsertGroup creates or updates the Group node keyed by g.ID.
	UpsertGroup(ctx context.Context, g vk.GroupRef) error

	// UpsertEdge creates the edge if absent. Endpoints that do not exist yet
	// are created as bare nodes where the backend stores nodes per edge.
	UpsertEdge(ctx context.Context, source, target vk.NodeID, kind Kind) error
}

// Reader is the read side used by the HTTP API.
type Reader interface {
	// Node returns the node or ErrNotFound.
	Node(ctx context.Context, label Label, id vk.NodeID) (*Node, error)

	// Edges returns all edges touching the node, in both directions.
	Edges(ctx context.Context, label Label, id vk.NodeID) ([]Edge, error)
}

// Store is a complete backend.
type Store interface {
	Sink
	Reader

	// EnsureSchema creates indexes/tables if missing. Idempotent.
	EnsureSchema(ctx context.Context) error

	// Close releases the connection. Later calls fail with ErrUnavailable.
	Close(ctx context.Context) error
}

// UserProps returns the scalar properties stored on a User node.
func UserProps(p *vk.UserProfile) map[string]any {
	return map[string]any{
		"screen_name": p.ScreenName,
		"name":        p.DisplayName,
		"first_name":  p.FirstName,
		"last_name":   p.LastName,
		"sex":         p.Sex.String(),
		"home_town":   p.HomeTown,
		"deactivated": p.Deactivated,
	}
}

// GroupProps returns the scalar properties stored on a Group node.
func GroupProps(g vk.GroupRef) map[string]any {
	return map[string]any{
		"name":        g.Name,
		"screen_name": g.ScreenName,
	}
}
