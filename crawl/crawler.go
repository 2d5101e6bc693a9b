// Package crawl runs a bounded breadth-first traversal of the VK social
// graph, writing every visited profile and its relationships to a
// graphstore.Sink.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
)

// ErrNotResumable is returned by Run on a Crawler that has already run.
var ErrNotResumable = errors.New("crawl: crawler already ran; create a new one")

// Assembler builds the full profile of one node. *vk.Assembler implements it.
type Assembler interface {
	Assemble(ctx context.Context, id vk.NodeID) (*vk.UserProfile, error)
}

// Snapshotter persists a profile as a side artifact. *snapshot.Writer implements it.
type Snapshotter interface {
	Write(ctx context.Context, p *vk.UserProfile) (string, error)
}

// State is the lifecycle of a Crawler.
type State int

const (
	StateIdle State = iota
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config tunes a crawl.
type Config struct {
	// MaxDepth bounds the traversal. The root is depth 0. Default 0.
	MaxDepth int

	// MirrorFollowers also writes u -FOLLOWED_BY-> f for every follower f of u.
	MirrorFollowers bool

	// Snapshot, when set, receives the root profile.
	Snapshot Snapshotter

	// SnapshotAll sends every processed profile to Snapshot, not only the root.
	SnapshotAll bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Crawler performs one traversal. It is not reusable.
type Crawler struct {
	asm  Assembler
	sink graphstore.Sink
	cfg  Config
	log  *slog.Logger

	state  State
	groups map[vk.NodeID]struct{}
	capped map[vk.NodeID]struct{}
	done   map[vk.NodeID]struct{}
}

// New creates a Crawler. The crawler takes ownership of sink and closes it
// when Run returns if sink has a Close(context.Context) error method.
func New(asm Assembler, sink graphstore.Sink, cfg Config) *Crawler {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Crawler{
		asm:    asm,
		sink:   sink,
		cfg:    cfg,
		log:    log,
		groups: make(map[vk.NodeID]struct{}),
		capped: make(map[vk.NodeID]struct{}),
		done:   make(map[vk.NodeID]struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Crawler) State() State { return c.state }

// Run crawls outward from root until the frontier is empty or ctx is
// cancelled. On cancellation it returns the partial summary and ctx.Err().
// Per-node failures never abort the crawl; they are listed in Summary.Skipped.
func (c *Crawler) Run(ctx context.Context, root vk.NodeID) (*Summary, error) {
	if c.state != StateIdle {
		return nil, ErrNotResumable
	}
	c.state = StateDraining
	defer c.closeSink(ctx)

	sum := &Summary{
		RunID:    uuid.NewString(),
		Root:     root,
		MaxDepth: c.cfg.MaxDepth,
		Skipped:  []Skip{},
		Started:  time.Now(),
	}
	defer func() {
		sum.Duration = time.Since(sum.Started)
		c.state = StateDone
	}()

	log := c.log.With(slog.String("run_id", sum.RunID))
	log.Info("crawl started", slog.Int64("root", int64(root)), slog.Int("max_depth", c.cfg.MaxDepth))

	frontier := NewFrontier(c.cfg.MaxDepth)
	frontier.PushIfNew(root, 0)
	sum.Enqueued = 1

	for {
		if err := ctx.Err(); err != nil {
			sum.Cancelled = true
			log.Warn("crawl cancelled", slog.Int("pending", frontier.Len()), slog.Any("summary", sum))
			return sum, err
		}
		e, ok := frontier.Pop()
		if !ok {
			break
		}
		if _, ok := c.done[e.ID]; ok {
			continue
		}
		c.done[e.ID] = struct{}{}
		c.process(ctx, log, frontier, e, sum)
	}

	log.Info("crawl finished", slog.Any("summary", sum))
	return sum, nil
}

func (c *Crawler) process(ctx context.Context, log *slog.Logger, frontier *Frontier, e Entry, sum *Summary) {
	log = log.With(slog.Int64("id", int64(e.ID)), slog.Int("depth", e.Depth))

	p, err := c.asm.Assemble(ctx, e.ID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("profile unavailable, skipping", slog.Any("error", err))
		sum.Skipped = append(sum.Skipped, Skip{ID: e.ID, Depth: e.Depth, Reason: ReasonProfileNotFound, Error: err.Error()})
		return
	}
	// A profile assembled under a cancelled context may be truncated; leave
	// the node unrecorded and let the loop report the cancellation.
	if ctx.Err() != nil {
		return
	}

	if c.cfg.Snapshot != nil && (c.cfg.SnapshotAll || e.Depth == 0) {
		if path, err := c.cfg.Snapshot.Write(ctx, p); err != nil {
			log.Warn("snapshot failed", slog.Any("error", err))
		} else {
			log.Debug("snapshot written", slog.String("path", path))
		}
	}

	if err := c.write(ctx, p, sum); err != nil {
		log.Error("store write failed, skipping node", slog.Any("error", err))
		sum.Skipped = append(sum.Skipped, Skip{ID: e.ID, Depth: e.Depth, Reason: ReasonStoreError, Error: err.Error()})
	} else {
		sum.Processed++
		log.Debug("node processed",
			slog.Int("followers", len(p.Followers)),
			slog.Int("subscriptions", len(p.Subscriptions)),
			slog.Any("incomplete", p.Incomplete))
	}

	// Children are enqueued even when the node's writes failed.
	c.enqueue(frontier, p.Followers, e.Depth+1, sum)
	c.enqueue(frontier, p.UserSubscriptions(), e.Depth+1, sum)
}

func (c *Crawler) enqueue(frontier *Frontier, ids []vk.NodeID, depth int, sum *Summary) {
	for _, id := range ids {
		if depth > frontier.MaxDepth() {
			if !frontier.Seen(id) {
				c.capped[id] = struct{}{}
			}
			continue
		}
		if frontier.PushIfNew(id, depth) {
			sum.Enqueued++
			delete(c.capped, id)
		}
	}
	sum.DepthCapped = len(c.capped)
}

// write persists p and its relationships, stopping at the first error.
func (c *Crawler) write(ctx context.Context, p *vk.UserProfile, sum *Summary) error {
	if err := c.sink.UpsertUser(ctx, p); err != nil {
		return err
	}
	edge := func(source, target vk.NodeID, kind graphstore.Kind) error {
		if err := c.sink.UpsertEdge(ctx, source, target, kind); err != nil {
			return err
		}
		sum.Edges++
		return nil
	}

	for _, f := range p.Followers {
		if err := edge(f, p.ID, graphstore.Follows); err != nil {
			return err
		}
		if c.cfg.MirrorFollowers {
			if err := edge(p.ID, f, graphstore.FollowedBy); err != nil {
				return err
			}
		}
	}
	for _, s := range p.UserSubscriptions() {
		if err := edge(p.ID, s, graphstore.Follows); err != nil {
			return err
		}
	}
	for _, g := range p.GroupSubscriptions() {
		if _, ok := c.groups[g.ID]; !ok {
			if err := c.sink.UpsertGroup(ctx, g); err != nil {
				return err
			}
			c.groups[g.ID] = struct{}{}
			sum.Groups++
		}
		if err := edge(p.ID, g.ID, graphstore.SubscribedTo); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) closeSink(ctx context.Context) {
	closer, ok := c.sink.(interface{ Close(context.Context) error })
	if !ok {
		return
	}
	if err := closer.Close(context.WithoutCancel(ctx)); err != nil {
		c.log.Warn("closing sink", slog.Any("error", err))
	}
}
