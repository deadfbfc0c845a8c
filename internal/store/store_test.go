package store

import (
	"errors"
	"testing"
	"time"

	"github.com/eastgate/lore/internal/docs"
)

func memStore(freshness time.Duration) *Store {
	return New(freshness, nil)
}

func TestPutAndGet(t *testing.T) {
	s := memStore(time.Minute)
	s.Put(docs.Document{Slug: "guide", Title: "Guide"})

	doc, ok := s.Get("guide")
	if !ok {
		t.Fatal("expected hit")
	}
	if doc.Title != "Guide" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.FetchedAt.IsZero() {
		t.Error("fetch timestamp not set")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("unexpected hit for missing slug")
	}
}

func TestGetAll_OrderedWithStableTies(t *testing.T) {
	s := memStore(time.Minute)
	s.ReplaceAll([]docs.Document{
		{Slug: "c", Order: 2},
		{Slug: "b", Order: 1},
		{Slug: "a", Order: 1},
	})

	all := s.GetAll()
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	// b before a: same order, b encountered first.
	if all[0].Slug != "b" || all[1].Slug != "a" || all[2].Slug != "c" {
		t.Errorf("order = %s, %s, %s", all[0].Slug, all[1].Slug, all[2].Slug)
	}
}

func TestIsFresh(t *testing.T) {
	s := memStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.Put(docs.Document{Slug: "guide"})

	if !s.IsFresh("guide") {
		t.Error("just-put entry should be fresh")
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if s.IsFresh("guide") {
		t.Error("entry past the window should be stale")
	}
	// Staleness never evicts.
	if _, ok := s.Get("guide"); !ok {
		t.Error("stale entry must remain servable")
	}

	if s.IsFresh("missing") {
		t.Error("missing slug cannot be fresh")
	}
}

func TestReplaceAll_Wholesale(t *testing.T) {
	s := memStore(time.Minute)
	s.ReplaceAll([]docs.Document{{Slug: "old"}})
	s.ReplaceAll([]docs.Document{{Slug: "new-a"}, {Slug: "new-b"}})

	if _, ok := s.Get("old"); ok {
		t.Error("old entry survived a replace")
	}
	if s.Len() != 2 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestInvalidateAndEvictAll(t *testing.T) {
	s := memStore(time.Minute)
	s.ReplaceAll([]docs.Document{{Slug: "a"}, {Slug: "b"}})

	s.Invalidate("a")
	if _, ok := s.Get("a"); ok {
		t.Error("invalidated entry still present")
	}
	if _, ok := s.Get("b"); !ok {
		t.Error("unrelated entry dropped")
	}

	// Re-adding after invalidation must not duplicate the listing.
	s.Put(docs.Document{Slug: "a"})
	if got := len(s.GetAll()); got != 2 {
		t.Errorf("GetAll len = %d, want 2", got)
	}

	s.EvictAll()
	if s.Len() != 0 {
		t.Errorf("len after evict = %d", s.Len())
	}
}

func TestFingerprints(t *testing.T) {
	s := memStore(time.Minute)
	s.ReplaceAll([]docs.Document{
		{Slug: "a", SHA: "1"},
		{Slug: "b", SHA: "2"},
	})
	fp := s.Fingerprints()
	if fp["a"] != "1" || fp["b"] != "2" || len(fp) != 2 {
		t.Errorf("fingerprints = %v", fp)
	}
}

// failingSnapshot always errors; the cache must shrug it off.
type failingSnapshot struct{}

func (failingSnapshot) Load() ([]Record, error) { return nil, errors.New("corrupt") }
func (failingSnapshot) Save([]Record) error     { return errors.New("disk full") }
func (failingSnapshot) Clear() error            { return errors.New("disk full") }
func (failingSnapshot) Close() error            { return nil }

func TestSnapshotFailuresAreAdvisory(t *testing.T) {
	s := New(time.Minute, failingSnapshot{})
	if s.Len() != 0 {
		t.Errorf("corrupt snapshot should start cold, len = %d", s.Len())
	}
	s.Put(docs.Document{Slug: "a"})
	if _, ok := s.Get("a"); !ok {
		t.Error("failed persist must not lose the in-memory entry")
	}
	s.EvictAll()
	if s.Len() != 0 {
		t.Error("evict must clear memory even when the snapshot fails")
	}
}
