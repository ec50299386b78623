// Package sync mirrors the user's collections from the realtime store into
// one explicit State value. All mutation happens inside the subscription
// callback, serialized by a mutex; consumers only ever see copies via
// Snapshot or the OnUpdate hook, so downstream aggregation stays pure.
package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"atlas/internal/core"
	"atlas/internal/log"
	"atlas/internal/notify"
	"atlas/internal/store"
)

// State is the mirrored application state. Revision increases on every
// applied change and identifies a snapshot for caching purposes.
type State struct {
	Clients      []core.Client
	Sales        []core.Sale
	Installments []core.Installment
	Expenses     []core.Expense
	Quotes       []core.Quote
	Settings     core.Settings
	Revision     uint64
}

// Config carries the consumer hooks. OnUpdate fires after every applied
// change with a snapshot copy; OnOnboarding fires at most once per
// session, after every collection has delivered its first snapshot and
// the state looks like a new user (see notify.NeedsOnboarding).
type Config struct {
	OnUpdate     func(State)
	OnOnboarding func()
	Logger       *log.Logger
}

type Sync struct {
	store    store.Store
	identity store.Identity
	cfg      Config

	mu              gosync.Mutex
	state           State
	loaded          map[string]bool
	onboardingFired bool
	started         bool
	unsubs          []store.Unsubscribe
}

func New(st store.Store, id store.Identity, cfg Config) *Sync {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentSync)
	}
	return &Sync{
		store:    st,
		identity: id,
		cfg:      cfg,
		loaded:   make(map[string]bool),
	}
}

// Start subscribes every collection. It fails with ErrUnauthenticated when
// no user identity is available, before touching the store.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("sync already started")
	}
	s.started = true
	s.mu.Unlock()

	collections := append([]string(nil), core.Collections...)
	collections = append(collections, core.CollectionSettings)

	for _, name := range collections {
		path, err := store.UserPath(s.identity, name)
		if err != nil {
			s.Stop()
			return err
		}
		name := name
		unsub, err := s.store.Subscribe(ctx, path, func(docs []store.Document, err error) {
			s.apply(name, docs, err)
		})
		if err != nil {
			s.Stop()
			return fmt.Errorf("subscribe %q: %w", name, err)
		}
		s.mu.Lock()
		s.unsubs = append(s.unsubs, unsub)
		s.mu.Unlock()
	}
	return nil
}

// Stop unsubscribes every collection. Idempotent.
func (s *Sync) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// Snapshot returns a copy of the current state.
func (s *Sync) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Loaded reports whether every collection has delivered its first
// snapshot (a failed stream counts as loaded, with an empty mirror).
func (s *Sync) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allLoadedLocked()
}

// apply is the single entry point mutating the mirror. A stream error
// degrades that collection to an empty mirror rather than failing the
// callers that depend on the rest of the state.
func (s *Sync) apply(collection string, docs []store.Document, err error) {
	if err != nil {
		s.cfg.Logger.Warn("collection stream failed, degrading to empty mirror",
			log.FieldCollection, collection, log.FieldError, err.Error())
		docs = nil
	}

	s.mu.Lock()
	switch collection {
	case core.CollectionClients:
		out := make([]core.Client, 0, len(docs))
		for _, d := range docs {
			out = append(out, core.DecodeClient(d.ID, d.Fields))
		}
		s.state.Clients = out
	case core.CollectionSales:
		out := make([]core.Sale, 0, len(docs))
		for _, d := range docs {
			out = append(out, core.DecodeSale(d.ID, d.Fields))
		}
		s.state.Sales = out
	case core.CollectionInstallments:
		out := make([]core.Installment, 0, len(docs))
		for _, d := range docs {
			out = append(out, core.DecodeInstallment(d.ID, d.Fields))
		}
		s.state.Installments = out
	case core.CollectionExpenses:
		out := make([]core.Expense, 0, len(docs))
		for _, d := range docs {
			out = append(out, core.DecodeExpense(d.ID, d.Fields))
		}
		s.state.Expenses = out
	case core.CollectionQuotes:
		out := make([]core.Quote, 0, len(docs))
		for _, d := range docs {
			out = append(out, core.DecodeQuote(d.ID, d.Fields))
		}
		s.state.Quotes = out
	case core.CollectionSettings:
		// Singleton: the sole document wins, an empty collection resets
		// to defaults.
		if len(docs) > 0 {
			s.state.Settings = core.DecodeSettings(docs[0].ID, docs[0].Fields)
		} else {
			s.state.Settings = core.Settings{}
		}
	default:
		s.mu.Unlock()
		return
	}
	s.loaded[collection] = true
	s.state.Revision++

	snapshot := s.snapshotLocked()
	fireOnboarding := false
	if !s.onboardingFired && s.allLoadedLocked() &&
		notify.NeedsOnboarding(s.state.Clients, s.state.Expenses, s.state.Quotes, s.state.Settings) {
		s.onboardingFired = true
		fireOnboarding = true
	}
	s.mu.Unlock()

	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate(snapshot)
	}
	if fireOnboarding && s.cfg.OnOnboarding != nil {
		s.cfg.OnOnboarding()
	}
}

func (s *Sync) allLoadedLocked() bool {
	for _, name := range core.Collections {
		if !s.loaded[name] {
			return false
		}
	}
	return s.loaded[core.CollectionSettings]
}

func (s *Sync) snapshotLocked() State {
	st := s.state
	st.Clients = append([]core.Client(nil), s.state.Clients...)
	st.Sales = append([]core.Sale(nil), s.state.Sales...)
	st.Installments = append([]core.Installment(nil), s.state.Installments...)
	st.Expenses = append([]core.Expense(nil), s.state.Expenses...)
	st.Quotes = append([]core.Quote(nil), s.state.Quotes...)
	return st
}
