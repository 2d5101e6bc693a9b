package crawl

import vk "github.com/anatolykoptev/go-vk"

// Entry is a node waiting in the frontier together with its BFS depth.
type Entry struct {
	ID    vk.NodeID `json:"id"`
	Depth int       `json:"depth"`
}

// Frontier is a FIFO queue of entries plus the visited set that gates it.
// It is owned by a single crawl and is not safe for concurrent use.
type Frontier struct {
	maxDepth int
	queue    []Entry
	head     int
	seen     map[vk.NodeID]struct{}
}

// NewFrontier creates an empty frontier that accepts depths up to maxDepth.
func NewFrontier(maxDepth int) *Frontier {
	return &Frontier{
		maxDepth: maxDepth,
		seen:     make(map[vk.NodeID]struct{}),
	}
}

// PushIfNew enqueues id at depth unless it has been seen before or depth
// exceeds the maximum. It reports whether the entry was enqueued. A rejected
// over-depth push does not mark id as seen.
func (f *Frontier) PushIfNew(id vk.NodeID, depth int) bool {
	if depth < 0 || depth > f.maxDepth {
		return false
	}
	if _, ok := f.seen[id]; ok {
		return false
	}
	f.seen[id] = struct{}{}
	f.queue = append(f.queue, Entry{ID: id, Depth: depth})
	return true
}

// Pop removes and returns the oldest entry.
func (f *Frontier) Pop() (Entry, bool) {
	if f.head == len(f.queue) {
		return Entry{}, false
	}
	e := f.queue[f.head]
	f.head++
	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 1024 && f.head*2 > len(f.queue) {
		f.queue = append(f.queue[:0], f.queue[f.head:]...)
		f.head = 0
	}
	return e, true
}

// Len returns the number of entries waiting.
func (f *Frontier) Len() int { return len(f.queue) - f.head }

// Seen reports whether id was ever enqueued.
func (f *Frontier) Seen(id vk.NodeID) bool {
	_, ok := f.seen[id]
	return ok
}

// MaxDepth returns the configured depth bound.
func (f *Frontier) MaxDepth() int { return f.maxDepth }
