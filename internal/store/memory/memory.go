// Package memory is an in-process implementation of the store ports. It
// backs the default backend and the test suite: full subscription
// semantics (initial snapshot, change fan-out, idempotent unsubscribe),
// atomic batches, and an error-injection hook for exercising stream
// failure handling.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"atlas/internal/store"
)

type Store struct {
	mu     sync.Mutex
	cols   map[string]*collection
	closed bool
}

type collection struct {
	docs   map[string]map[string]any
	subs   map[int]*subscriber
	nextID int
	failed bool
}

type subscriber struct {
	fn        store.ChangeFunc
	cancelled atomic.Bool
}

func New() *Store {
	return &Store{cols: make(map[string]*collection)}
}

func (s *Store) col(path string) *collection {
	c, ok := s.cols[path]
	if !ok {
		c = &collection{
			docs: make(map[string]map[string]any),
			subs: make(map[int]*subscriber),
		}
		s.cols[path] = c
	}
	return c
}

// Subscribe registers fn and delivers the current snapshot synchronously
// before returning, matching the remote store's behavior.
func (s *Store) Subscribe(_ context.Context, path string, fn store.ChangeFunc) (store.Unsubscribe, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, store.ErrClosed
	}
	c := s.col(path)
	if c.failed {
		s.mu.Unlock()
		fn(nil, fmt.Errorf("subscribe %q: stream failed", path))
		return func() {}, nil
	}
	sub := &subscriber{fn: fn}
	id := c.nextID
	c.nextID++
	c.subs[id] = sub
	snapshot := c.snapshot()
	s.mu.Unlock()

	fn(snapshot, nil)

	return func() {
		sub.cancelled.Store(true)
		s.mu.Lock()
		delete(c.subs, id)
		s.mu.Unlock()
	}, nil
}

func (s *Store) Get(_ context.Context, path, id string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Document{}, store.ErrClosed
	}
	fields, ok := s.col(path).docs[id]
	if !ok {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", path, id, store.ErrNotFound)
	}
	return store.Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *Store) Create(_ context.Context, path string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", store.ErrClosed
	}
	c := s.col(path)
	c.docs[id] = copyFields(fields)
	s.mu.Unlock()
	s.notify(path)
	return id, nil
}

func (s *Store) Update(_ context.Context, path, id string, fields map[string]any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	doc, ok := s.col(path).docs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s/%s: %w", path, id, store.ErrNotFound)
	}
	for k, v := range fields {
		doc[k] = v
	}
	s.mu.Unlock()
	s.notify(path)
	return nil
}

func (s *Store) Delete(_ context.Context, path, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	delete(s.col(path).docs, id)
	s.mu.Unlock()
	s.notify(path)
	return nil
}

func (s *Store) NewID(string) string {
	return uuid.NewString()
}

func (s *Store) Batch() store.Batch {
	return &batch{store: s}
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	for _, c := range s.cols {
		for _, sub := range c.subs {
			sub.cancelled.Store(true)
		}
		c.subs = make(map[int]*subscriber)
	}
	s.mu.Unlock()
	return nil
}

// FailStream marks a collection's stream as failed: current subscribers
// receive the error once and are dropped, later subscribers fail on
// attach. Exercises the degrade-to-empty path in tests.
func (s *Store) FailStream(path string) {
	s.mu.Lock()
	c := s.col(path)
	c.failed = true
	subs := make([]*subscriber, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subs = make(map[int]*subscriber)
	s.mu.Unlock()

	err := fmt.Errorf("stream %q failed", path)
	for _, sub := range subs {
		if !sub.cancelled.Load() {
			sub.fn(nil, err)
		}
	}
}

func (s *Store) notify(path string) {
	s.mu.Lock()
	c := s.col(path)
	snapshot := c.snapshot()
	subs := make([]*subscriber, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if !sub.cancelled.Load() {
			sub.fn(snapshot, nil)
		}
	}
}

// snapshot returns the collection contents ordered by id. The order is an
// implementation detail; consumers sort explicitly where order matters.
func (c *collection) snapshot() []store.Document {
	out := make([]store.Document, 0, len(c.docs))
	for id, fields := range c.docs {
		out = append(out, store.Document{ID: id, Fields: copyFields(fields)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type batchOp struct {
	kind   string // "set", "update", "delete"
	path   string
	id     string
	fields map[string]any
}

// batch applies all queued writes under one lock, or none when any
// update targets a missing document.
type batch struct {
	store *Store
	ops   []batchOp
}

func (b *batch) Set(path, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{kind: "set", path: path, id: id, fields: copyFields(fields)})
}

func (b *batch) Update(path, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{kind: "update", path: path, id: id, fields: copyFields(fields)})
}

func (b *batch) Delete(path, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", path: path, id: id})
}

func (b *batch) Commit(_ context.Context) error {
	s := b.store
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	for _, op := range b.ops {
		if op.kind == "update" {
			if _, ok := s.col(op.path).docs[op.id]; !ok {
				s.mu.Unlock()
				return fmt.Errorf("batch update %s/%s: %w", op.path, op.id, store.ErrNotFound)
			}
		}
	}
	touched := make(map[string]struct{})
	for _, op := range b.ops {
		c := s.col(op.path)
		switch op.kind {
		case "set":
			c.docs[op.id] = op.fields
		case "update":
			for k, v := range op.fields {
				c.docs[op.id][k] = v
			}
		case "delete":
			delete(c.docs, op.id)
		}
		touched[op.path] = struct{}{}
	}
	s.mu.Unlock()

	for path := range touched {
		s.notify(path)
	}
	return nil
}
