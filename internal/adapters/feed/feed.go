// Package feed defines the upstream feed contract: each feed delivers
// full-collection snapshot events, never deltas, with a per-feed error
// channel for permanent failures.
//
// The in-memory implementation is the reference transport; the real
// persistence collaborator plugs in behind the same interface.
package feed

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
)

// Default feed configuration constants.
const (
	defaultBufferSize = 16
)

// Snapshot is one full-collection update. Docs is the complete current set
// of documents in the logical collection. Hash is a content hash used to
// suppress at-least-once redeliveries of an identical snapshot.
type Snapshot[T any] struct {
	Seq  uint64
	Hash uint64
	Docs []T
}

// Subscription is one consumer's view of a feed. Updates is closed when the
// subscription is torn down; Errors signals permanent feed failure.
type Subscription[T any] interface {
	Updates() <-chan Snapshot[T]
	Errors() <-chan error
	Unsubscribe()
}

// Feed delivers full-snapshot events to any number of subscribers.
type Feed[T any] interface {
	Subscribe(ctx context.Context) (Subscription[T], error)
}

// Option applies a configuration option to a MemoryFeed.
type Option func(*feedConfig)

type feedConfig struct {
	bufferSize int
}

// WithBufferSize sets the per-subscriber update channel buffer.
func WithBufferSize(size int) Option {
	return func(c *feedConfig) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// MemoryFeed implements Feed with in-process broadcast. Publish replaces the
// current snapshot wholesale and fans it out; a new subscriber immediately
// receives the latest snapshot if one exists.
type MemoryFeed[T any] struct {
	mu         sync.Mutex
	cfg        feedConfig
	seq        uint64
	current    *Snapshot[T]
	subs       map[*memorySub[T]]struct{}
	failure    error
	closed     bool
}

// NewMemoryFeed creates an in-memory feed with configuration options.
func NewMemoryFeed[T any](opts ...Option) *MemoryFeed[T] {
	cfg := feedConfig{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryFeed[T]{
		cfg:  cfg,
		subs: make(map[*memorySub[T]]struct{}),
	}
}

// Subscribe registers a consumer. If the feed already holds a snapshot it is
// delivered immediately; if the feed has already failed, the error is
// delivered immediately.
func (f *MemoryFeed[T]) Subscribe(_ context.Context) (Subscription[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	s := &memorySub[T]{
		feed:    f,
		updates: make(chan Snapshot[T], f.cfg.bufferSize),
		errs:    make(chan error, 1),
	}
	f.subs[s] = struct{}{}

	if f.current != nil {
		s.deliver(*f.current)
	}
	if f.failure != nil {
		s.fail(f.failure)
	}
	return s, nil
}

// Publish replaces the full snapshot and broadcasts it. The docs slice is
// copied so later caller mutation cannot leak into delivered snapshots.
func (f *MemoryFeed[T]) Publish(_ context.Context, docs []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	f.seq++
	snap := Snapshot[T]{
		Seq:  f.seq,
		Hash: contentHash(docs),
		Docs: append([]T(nil), docs...),
	}
	f.current = &snap

	for s := range f.subs {
		s.deliver(snap)
	}
	return nil
}

// Fail marks the feed permanently failed and notifies all subscribers.
// Already-delivered snapshots remain valid (stale-but-consistent).
func (f *MemoryFeed[T]) Fail(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failure = err
	for s := range f.subs {
		s.fail(err)
	}
}

// Close tears down the feed and every subscription.
func (f *MemoryFeed[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	for s := range f.subs {
		s.close()
	}
	f.subs = make(map[*memorySub[T]]struct{})
	return nil
}

func (f *MemoryFeed[T]) unsubscribe(s *memorySub[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[s]; !ok {
		return
	}
	delete(f.subs, s)
	s.close()
}

// memorySub is one subscriber's channel pair.
type memorySub[T any] struct {
	feed    *MemoryFeed[T]
	updates chan Snapshot[T]
	errs    chan error
	once    sync.Once
}

func (s *memorySub[T]) Updates() <-chan Snapshot[T] { return s.updates }
func (s *memorySub[T]) Errors() <-chan error        { return s.errs }

func (s *memorySub[T]) Unsubscribe() {
	s.feed.unsubscribe(s)
}

// deliver pushes a snapshot without blocking the publisher. When the
// subscriber is behind, the oldest buffered snapshot is discarded: only the
// latest full snapshot matters.
func (s *memorySub[T]) deliver(snap Snapshot[T]) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *memorySub[T]) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *memorySub[T]) close() {
	s.once.Do(func() {
		close(s.updates)
	})
}

// contentHash computes a deterministic hash of the snapshot contents so
// redelivered identical snapshots can be recognized downstream.
func contentHash[T any](docs []T) uint64 {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	for i := range docs {
		// Encoding failure degrades to a partial hash; snapshots still
		// flow, dedupe just becomes less effective.
		_ = enc.Encode(docs[i])
	}
	return h.Sum64()
}
