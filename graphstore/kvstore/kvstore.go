// Package kvstore is an embedded graphstore backend on BadgerDB.
//
// Key layout:
//
//	n:{label}:{id}                       → JSON-encoded node properties
//	r:{source}:{kind}:{target}           → empty (forward index)
//	ri:{targetLabel}:{target}:{kind}:{source} → empty (reverse index)
//
// Sources are always users, so the forward index needs no label segment.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
)

const sep = ":"

// Options configures the BadgerDB store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger sets the badger logger. nil routes warnings and errors to slog.
	Logger badger.Logger
}

// Store implements graphstore.Store on BadgerDB.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ graphstore.Store = (*Store)(nil)

// Open opens (or creates) a BadgerDB store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("kvstore: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(slogLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, graphstore.Wrap("open", err)
	}
	return &Store{db: db}, nil
}

// --- key helpers ---

func nodeKey(label graphstore.Label, id vk.NodeID) []byte {
	return []byte("n" + sep + string(label) + sep + id.String())
}

func fwdKey(source vk.NodeID, kind graphstore.Kind, target vk.NodeID) []byte {
	return []byte("r" + sep + source.String() + sep + kind.String() + sep + target.String())
}

func fwdPrefix(source vk.NodeID) []byte {
	return []byte("r" + sep + source.String() + sep)
}

func revKey(target vk.NodeID, kind graphstore.Kind, source vk.NodeID) []byte {
	return []byte("ri" + sep + string(kind.TargetLabel()) + sep + target.String() + sep + kind.String() + sep + source.String())
}

func revPrefix(label graphstore.Label, target vk.NodeID) []byte {
	return []byte("ri" + sep + string(label) + sep + target.String() + sep)
}

// splitTail returns the "{kind}:{id}" remainder of an index key.
func splitTail(key, prefix []byte) (graphstore.Kind, vk.NodeID, error) {
	parts := strings.Split(string(key[len(prefix):]), sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("kvstore: malformed index key %q", key)
	}
	kind, err := graphstore.ParseKind(parts[0])
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("kvstore: malformed index key %q: %w", key, err)
	}
	return kind, vk.NodeID(n), nil
}

func (s *Store) check(op string) error {
	if s.closed.Load() {
		return &graphstore.StoreError{Op: op, Err: graphstore.ErrUnavailable}
	}
	return nil
}

func (s *Store) putNode(op string, key []byte, props map[string]any) error {
	if err := s.check(op); err != nil {
		return err
	}
	val, err := json.Marshal(props)
	if err != nil {
		return graphstore.Wrap(op, err)
	}
	return graphstore.Wrap(op, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	}))
}

// UpsertUser implements graphstore.Sink.
func (s *Store) UpsertUser(_ context.Context, p *vk.UserProfile) error {
	return s.putNode("upsert user", nodeKey(graphstore.LabelUser, p.ID), graphstore.UserProps(p))
}

// UpsertGroup implements graphstore.Sink.
func (s *Store) UpsertGroup(_ context.Context, g vk.GroupRef) error {
	return s.putNode("upsert group", nodeKey(graphstore.LabelGroup, g.ID), graphstore.GroupProps(g))
}

// UpsertEdge implements graphstore.Sink. Forward and reverse index entries
// are written in one transaction; rewriting an existing pair is a no-op.
func (s *Store) UpsertEdge(_ context.Context, source, target vk.NodeID, kind graphstore.Kind) error {
	const op = "upsert edge"
	if !kind.Valid() {
		return graphstore.Wrap(op, fmt.Errorf("%w: %d", graphstore.ErrUnknownKind, int(kind)))
	}
	if err := s.check(op); err != nil {
		return err
	}
	return graphstore.Wrap(op, s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(fwdKey(source, kind, target), nil); err != nil {
			return err
		}
		return txn.Set(revKey(target, kind, source), nil)
	}))
}

// Node implements graphstore.Reader.
func (s *Store) Node(_ context.Context, label graphstore.Label, id vk.NodeID) (*graphstore.Node, error) {
	const op = "get node"
	if err := s.check(op); err != nil {
		return nil, err
	}
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(label, id))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, graphstore.ErrNotFound
	}
	if err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	n := &graphstore.Node{Label: label, ID: id}
	if err := json.Unmarshal(val, &n.Props); err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	return n, nil
}

// Edges implements graphstore.Reader.
func (s *Store) Edges(_ context.Context, label graphstore.Label, id vk.NodeID) ([]graphstore.Edge, error) {
	const op = "list edges"
	if err := s.check(op); err != nil {
		return nil, err
	}
	edges := []graphstore.Edge{}
	err := s.db.View(func(txn *badger.Txn) error {
		if label == graphstore.LabelUser {
			if err := scanKeys(txn, fwdPrefix(id), func(kind graphstore.Kind, other vk.NodeID) {
				edges = append(edges, graphstore.Edge{Source: id, Target: other, Kind: kind})
			}); err != nil {
				return err
			}
		}
		return scanKeys(txn, revPrefix(label, id), func(kind graphstore.Kind, other vk.NodeID) {
			edges = append(edges, graphstore.Edge{Source: other, Target: id, Kind: kind})
		})
	})
	if err != nil {
		return nil, graphstore.Wrap(op, err)
	}
	return edges, nil
}

func scanKeys(txn *badger.Txn, prefix []byte, fn func(graphstore.Kind, vk.NodeID)) error {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.PrefetchValues = false
	iterOpts.Prefix = prefix
	it := txn.NewIterator(iterOpts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		kind, other, err := splitTail(it.Item().KeyCopy(nil), prefix)
		if err != nil {
			return err
		}
		fn(kind, other)
	}
	return nil
}

// EnsureSchema implements graphstore.Store. Badger needs no schema.
func (s *Store) EnsureSchema(context.Context) error {
	return s.check("ensure schema")
}

// Close implements graphstore.Store.
func (s *Store) Close(context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// slogLogger routes badger warnings and errors to slog and drops the rest.
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...interface{}) {
	slog.Error("badger: " + strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (slogLogger) Warningf(f string, v ...interface{}) {
	slog.Warn("badger: " + strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (slogLogger) Infof(string, ...interface{})  {}
func (slogLogger) Debugf(string, ...interface{}) {}
