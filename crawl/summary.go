package crawl

import (
	"log/slog"
	"time"

	vk "github.com/anatolykoptev/go-vk"
)

// Skip reasons reported in Summary.Skipped.
const (
	ReasonProfileNotFound = "profile_not_found"
	ReasonStoreError      = "store_error"
)

// Skip records a node that was dequeued but not fully persisted.
type Skip struct {
	ID     vk.NodeID `json:"id"`
	Depth  int       `json:"depth"`
	Reason string    `json:"reason"`
	Error  string    `json:"error,omitempty"`
}

// Summary is the outcome of one crawl.
type Summary struct {
	RunID    string    `json:"run_id"`
	Root     vk.NodeID `json:"root"`
	MaxDepth int       `json:"max_depth"`

	Processed   int `json:"processed"`    // nodes assembled and written
	Enqueued    int `json:"enqueued"`     // frontier entries, root included
	Groups      int `json:"groups"`       // distinct groups written
	Edges       int `json:"edges"`        // edge upserts that succeeded
	DepthCapped int `json:"depth_capped"` // distinct nodes seen beyond MaxDepth

	Skipped   []Skip        `json:"skipped"`
	Cancelled bool          `json:"cancelled"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
}

// SkippedIDs returns the IDs of skipped nodes in skip order.
func (s *Summary) SkippedIDs() []vk.NodeID {
	ids := make([]vk.NodeID, len(s.Skipped))
	for i, sk := range s.Skipped {
		ids[i] = sk.ID
	}
	return ids
}

// LogValue implements slog.LogValuer.
func (s *Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int64("root", int64(s.Root)),
		slog.Int("max_depth", s.MaxDepth),
		slog.Int("processed", s.Processed),
		slog.Int("enqueued", s.Enqueued),
		slog.Int("groups", s.Groups),
		slog.Int("edges", s.Edges),
		slog.Int("depth_capped", s.DepthCapped),
		slog.Int("skipped", len(s.Skipped)),
		slog.Bool("cancelled", s.Cancelled),
		slog.Duration("duration", s.Duration),
	)
}
