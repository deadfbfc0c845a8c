// Package store holds the in-memory document cache and its durable SQLite
// snapshot. The cache is the single source documents are served from; the
// snapshot only exists so a restart can serve last-known-good content before
// the first refresh completes.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eastgate/lore/internal/docs"
)

type entry struct {
	doc       docs.Document
	fetchedAt time.Time
}

// Store is a freshness-bounded document cache. Reads never block on
// refreshes; ReplaceAll swaps the full set atomically.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]entry
	order     []string // slugs in encounter order of the last bulk replace
	freshness time.Duration
	snapshot  Snapshot // nil means memory-only
	now       func() time.Time
}

// New creates a Store. snap may be nil for a memory-only cache; when
// non-nil, the last persisted snapshot is hydrated best-effort.
func New(freshness time.Duration, snap Snapshot) *Store {
	s := &Store{
		entries:   make(map[string]entry),
		freshness: freshness,
		snapshot:  snap,
		now:       time.Now,
	}
	s.hydrate()
	return s
}

// hydrate loads the persisted snapshot. Unreadable state starts the cache
// cold rather than failing; the next refresh rebuilds everything anyway.
func (s *Store) hydrate() {
	if s.snapshot == nil {
		return
	}
	records, err := s.snapshot.Load()
	if err != nil {
		slog.Warn("store: snapshot hydrate failed, starting cold",
			slog.String("error", err.Error()))
		return
	}
	for _, rec := range records {
		s.entries[rec.Doc.Slug] = entry{doc: rec.Doc, fetchedAt: rec.FetchedAt}
		s.order = append(s.order, rec.Doc.Slug)
	}
	if len(records) > 0 {
		slog.Info("store: hydrated from snapshot", slog.Int("documents", len(records)))
	}
}

// Get returns the cached document for slug, if any.
func (s *Store) Get(slug string) (docs.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[slug]
	return e.doc, ok
}

// GetAll returns every cached document sorted by ascending order; ties keep
// the encounter order of the last bulk replace.
func (s *Store) GetAll() []docs.Document {
	s.mu.RLock()
	out := make([]docs.Document, 0, len(s.entries))
	for _, slug := range s.order {
		if e, ok := s.entries[slug]; ok {
			out = append(out, e.doc)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// IsFresh reports whether the entry for slug exists and is inside the
// freshness window. Staleness never evicts; it only invites a refresh.
func (s *Store) IsFresh(slug string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[slug]
	if !ok {
		return false
	}
	return s.now().Sub(e.fetchedAt) < s.freshness
}

// Put inserts or wholesale-replaces one document and resets its fetch
// timestamp, then persists the snapshot best-effort.
func (s *Store) Put(doc docs.Document) {
	now := s.now()
	doc.FetchedAt = now

	s.mu.Lock()
	if _, exists := s.entries[doc.Slug]; !exists {
		s.order = append(s.order, doc.Slug)
	}
	s.entries[doc.Slug] = entry{doc: doc, fetchedAt: now}
	records := s.records()
	s.mu.Unlock()

	s.persist(records)
}

// ReplaceAll atomically swaps the full document set. Readers observe either
// the old set or the new one, never a partial mix.
func (s *Store) ReplaceAll(documents []docs.Document) {
	now := s.now()
	entries := make(map[string]entry, len(documents))
	order := make([]string, 0, len(documents))
	for _, doc := range documents {
		doc.FetchedAt = now
		if _, dup := entries[doc.Slug]; dup {
			continue
		}
		entries[doc.Slug] = entry{doc: doc, fetchedAt: now}
		order = append(order, doc.Slug)
	}

	s.mu.Lock()
	s.entries = entries
	s.order = order
	records := s.records()
	s.mu.Unlock()

	s.persist(records)
}

// Invalidate drops one entry (forced via the cache API). The durable
// snapshot is rewritten so a restart does not resurrect the dropped slug.
func (s *Store) Invalidate(slug string) {
	s.mu.Lock()
	delete(s.entries, slug)
	for i, known := range s.order {
		if known == slug {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	records := s.records()
	s.mu.Unlock()

	s.persist(records)
}

// EvictAll clears in-memory and durable state.
func (s *Store) EvictAll() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.order = nil
	s.mu.Unlock()

	if s.snapshot != nil {
		if err := s.snapshot.Clear(); err != nil {
			slog.Warn("store: snapshot clear failed", slog.String("error", err.Error()))
		}
	}
}

// Fingerprints returns slug -> content SHA for change detection.
func (s *Store) Fingerprints() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.entries))
	for slug, e := range s.entries {
		out[slug] = e.doc.SHA
	}
	return out
}

// Len returns the number of cached documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// records snapshots current state in encounter order. Caller must hold mu.
func (s *Store) records() []Record {
	records := make([]Record, 0, len(s.entries))
	for _, slug := range s.order {
		if e, ok := s.entries[slug]; ok {
			records = append(records, Record{Doc: e.doc, FetchedAt: e.fetchedAt})
		}
	}
	return records
}

// persist writes the snapshot outside the lock; the durable store is
// advisory, so failures are logged and swallowed.
func (s *Store) persist(records []Record) {
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.Save(records); err != nil {
		slog.Warn("store: snapshot persist failed", slog.String("error", err.Error()))
	}
}
