// Package sqlite is a durable local implementation of the store ports,
// backed by one generic documents table. Change streams are in-process:
// every committed write re-reads the touched collections and fans the
// snapshot out to subscribers, giving local deployments the same
// push-driven shape as the remote store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"atlas/internal/store"
)

type Store struct {
	db *sql.DB

	mu     sync.Mutex
	subs   map[string]map[int]*subscriber
	nextID int
	closed bool
}

type subscriber struct {
	fn        store.ChangeFunc
	cancelled atomic.Bool
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, subs: make(map[string]map[int]*subscriber)}, nil
}

func (s *Store) Subscribe(ctx context.Context, path string, fn store.ChangeFunc) (store.Unsubscribe, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, store.ErrClosed
	}
	sub := &subscriber{fn: fn}
	if s.subs[path] == nil {
		s.subs[path] = make(map[int]*subscriber)
	}
	id := s.nextID
	s.nextID++
	s.subs[path][id] = sub
	s.mu.Unlock()

	docs, err := s.read(ctx, path)
	if err != nil {
		// Degrade the stream rather than fail the attach; the consumer
		// sees an errored snapshot once and no further deliveries.
		sub.cancelled.Store(true)
		fn(nil, fmt.Errorf("initial snapshot for %q: %w", path, err))
	} else {
		fn(docs, nil)
	}

	return func() {
		sub.cancelled.Store(true)
		s.mu.Lock()
		delete(s.subs[path], id)
		s.mu.Unlock()
	}, nil
}

func (s *Store) Get(ctx context.Context, path, id string) (store.Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE path = ? AND id = ?`, path, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", path, id, store.ErrNotFound)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", path, id, err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return store.Document{}, fmt.Errorf("decode %s/%s: %w", path, id, err)
	}
	return store.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (path, id, fields) VALUES (?, ?, ?)`, path, id, string(raw))
	if err != nil {
		return "", fmt.Errorf("insert %s/%s: %w", path, id, err)
	}
	s.notify(ctx, path)
	return id, nil
}

func (s *Store) Update(ctx context.Context, path, id string, fields map[string]any) error {
	doc, err := s.Get(ctx, path, id)
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET fields = ?, updated_at = CURRENT_TIMESTAMP WHERE path = ? AND id = ?`,
		string(raw), path, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", path, id, err)
	}
	s.notify(ctx, path)
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE path = ? AND id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", path, id, err)
	}
	s.notify(ctx, path)
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
	for _, subs := range s.subs {
		for _, sub := range subs {
			sub.cancelled.Store(true)
		}
	}
	s.subs = make(map[string]map[int]*subscriber)
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) read(ctx context.Context, path string) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE path = ? ORDER BY created_at, id`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Document{ID: id, Fields: fields})
	}
	return out, rows.Err()
}

func (s *Store) notify(ctx context.Context, path string) {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs[path]))
	for _, sub := range s.subs[path] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	docs, err := s.read(ctx, path)
	for _, sub := range subs {
		if sub.cancelled.Load() {
			continue
		}
		if err != nil {
			sub.fn(nil, fmt.Errorf("read %q after write: %w", path, err))
			continue
		}
		sub.fn(docs, nil)
	}
}

func decodeFields(raw []byte) (map[string]any, error) {
	fields := make(map[string]any)
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

type batchOp struct {
	kind   string // "set", "update", "delete"
	path   string
	id     string
	fields map[string]any
}

// batch runs all queued writes inside one transaction.
type batch struct {
	store *Store
	ops   []batchOp
}

func (b *batch) Set(path, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{kind: "set", path: path, id: id, fields: fields})
}

func (b *batch) Update(path, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{kind: "update", path: path, id: id, fields: fields})
}

func (b *batch) Delete(path, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", path: path, id: id})
}

func (b *batch) Commit(ctx context.Context) error {
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	touched := make(map[string]struct{})
	for _, op := range b.ops {
		switch op.kind {
		case "set":
			raw, err := json.Marshal(op.fields)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", op.path, op.id, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO documents (path, id, fields) VALUES (?, ?, ?)
				 ON CONFLICT(path, id) DO UPDATE SET fields = excluded.fields, updated_at = CURRENT_TIMESTAMP`,
				op.path, op.id, string(raw))
			if err != nil {
				return fmt.Errorf("set %s/%s: %w", op.path, op.id, err)
			}
		case "update":
			var raw []byte
			err := tx.QueryRowContext(ctx,
				`SELECT fields FROM documents WHERE path = ? AND id = ?`, op.path, op.id).Scan(&raw)
			if err == sql.ErrNoRows {
				return fmt.Errorf("batch update %s/%s: %w", op.path, op.id, store.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("batch update %s/%s: %w", op.path, op.id, err)
			}
			fields, err := decodeFields(raw)
			if err != nil {
				return fmt.Errorf("decode %s/%s: %w", op.path, op.id, err)
			}
			for k, v := range op.fields {
				fields[k] = v
			}
			merged, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", op.path, op.id, err)
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE documents SET fields = ?, updated_at = CURRENT_TIMESTAMP WHERE path = ? AND id = ?`,
				string(merged), op.path, op.id)
			if err != nil {
				return fmt.Errorf("batch update %s/%s: %w", op.path, op.id, err)
			}
		case "delete":
			_, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE path = ? AND id = ?`, op.path, op.id)
			if err != nil {
				return fmt.Errorf("batch delete %s/%s: %w", op.path, op.id, err)
			}
		}
		touched[op.path] = struct{}{}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	for path := range touched {
		b.store.notify(ctx, path)
	}
	return nil
}
