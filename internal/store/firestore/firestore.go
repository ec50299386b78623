// Package firestore adapts the realtime document database to the store
// ports. Each subscription runs the snapshot listener on its own
// goroutine and forwards full query snapshots; a stream error is
// delivered once and ends the stream, letting the consumer degrade.
package firestore

import (
	"context"
	"fmt"
	"sync/atomic"

	cloudfirestore "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"atlas/internal/store"
)

type Store struct {
	client *cloudfirestore.Client
}

func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := cloudfirestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Subscribe(ctx context.Context, path string, fn store.ChangeFunc) (store.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	var cancelled atomic.Bool

	snapshots := s.client.Collection(path).Snapshots(ctx)
	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() == nil && !cancelled.Load() {
					fn(nil, fmt.Errorf("snapshot stream %q: %w", path, err))
				}
				return
			}
			docs, err := readDocuments(snap.Documents)
			if cancelled.Load() {
				return
			}
			if err != nil {
				fn(nil, fmt.Errorf("read snapshot %q: %w", path, err))
				return
			}
			fn(docs, nil)
		}
	}()

	return func() {
		cancelled.Store(true)
		cancel()
	}, nil
}

func (s *Store) Get(ctx context.Context, path, id string) (store.Document, error) {
	snap, err := s.client.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", path, id, err)
	}
	if !snap.Exists() {
		return store.Document{}, fmt.Errorf("get %s/%s: %w", path, id, store.ErrNotFound)
	}
	return store.Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *Store) Create(ctx context.Context, path string, fields map[string]any) (string, error) {
	ref, _, err := s.client.Collection(path).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("create in %q: %w", path, err)
	}
	return ref.ID, nil
}

func (s *Store) Update(ctx context.Context, path, id string, fields map[string]any) error {
	_, err := s.client.Collection(path).Doc(id).Set(ctx, fields, cloudfirestore.MergeAll)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	_, err := s.client.Collection(path).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) NewID(path string) string {
	return s.client.Collection(path).NewDoc().ID
}

func (s *Store) Batch() store.Batch {
	return &batch{client: s.client, wb: s.client.Batch()}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func readDocuments(it *cloudfirestore.DocumentIterator) ([]store.Document, error) {
	defer it.Stop()
	var out []store.Document
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, store.Document{ID: doc.Ref.ID, Fields: doc.Data()})
	}
}

type batch struct {
	client *cloudfirestore.Client
	wb     *cloudfirestore.WriteBatch
}

func (b *batch) Set(path, id string, fields map[string]any) {
	b.wb.Set(b.client.Collection(path).Doc(id), fields)
}

func (b *batch) Update(path, id string, fields map[string]any) {
	// MergeAll keeps update semantics (partial write) while letting the
	// whole batch commit atomically.
	b.wb.Set(b.client.Collection(path).Doc(id), fields, cloudfirestore.MergeAll)
}

func (b *batch) Delete(path, id string) {
	b.wb.Delete(b.client.Collection(path).Doc(id))
}

func (b *batch) Commit(ctx context.Context) error {
	if _, err := b.wb.Commit(ctx); err != nil {
		return fmt.Errorf("commit firestore batch: %w", err)
	}
	return nil
}
