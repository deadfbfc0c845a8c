// Package syncer orchestrates the GitHub-backed document cache: full-tree
// refreshes, on-demand lookups, and the commit polling loop that decides
// when a refresh is warranted.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eastgate/lore/internal/apperr"
	"github.com/eastgate/lore/internal/docs"
	"github.com/eastgate/lore/internal/github"
	"github.com/eastgate/lore/internal/store"
)

// fetchConcurrency bounds parallel per-file fetches during a refresh.
const fetchConcurrency = 8

// State is the engine lifecycle state, mostly for health reporting.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateRefreshing    State = "refreshing"
	StateDegraded      State = "degraded"
)

// RepoClient is the remote repository surface the engine depends on.
type RepoClient interface {
	ListTree(ctx context.Context) ([]github.TreeEntry, error)
	GetFileContent(ctx context.Context, path string) ([]byte, error)
	GetBranchHead(ctx context.Context) (string, error)
}

// Engine keeps the document cache in step with the tracked repository.
type Engine struct {
	client       RepoClient
	cache        *store.Store
	notifier     *Notifier
	basePath     string
	pollInterval time.Duration
	logger       *slog.Logger

	// refreshMu serializes full refreshes; cache reads never take it.
	refreshMu sync.Mutex

	mu          sync.Mutex
	state       State
	lastHead    string
	initialized bool
}

// New creates an Engine. The polling loop does not start until Run is called.
func New(client RepoClient, cache *store.Store, notifier *Notifier, basePath string, pollInterval time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		client:       client,
		cache:        cache,
		notifier:     notifier,
		basePath:     basePath,
		pollInterval: pollInterval,
		logger:       logger,
		state:        StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Notifier exposes the change subscriber registry.
func (e *Engine) Notifier() *Notifier {
	return e.notifier
}

// Run performs one initial refresh and then polls the branch head until ctx
// is cancelled. A failed initial refresh degrades the engine but never stops
// the polling loop; hydrated snapshot content keeps serving meanwhile.
func (e *Engine) Run(ctx context.Context) error {
	e.setState(StateInitializing)
	if err := e.RefreshAll(ctx); err != nil {
		e.logger.Warn("syncer: initial refresh failed, continuing with polling",
			slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	e.logger.Info("syncer: polling started",
		slog.Duration("interval", e.pollInterval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("syncer: polling stopped")
			return nil
		case <-ticker.C:
			e.pollOnce(ctx)
		}
	}
}

// pollOnce compares the branch head against the last observed one and
// triggers a full refresh when it moved. Head fetch failures skip the cycle;
// the next tick retries.
func (e *Engine) pollOnce(ctx context.Context) {
	head, err := e.client.GetBranchHead(ctx)
	if err != nil {
		e.logger.Warn("syncer: head poll failed, skipping cycle",
			slog.String("error", err.Error()))
		return
	}

	e.mu.Lock()
	prev := e.lastHead
	e.mu.Unlock()

	// A first observation establishes the baseline; only a later move
	// triggers a refresh.
	if prev != "" && prev != head {
		e.logger.Info("syncer: branch head moved",
			slog.String("from", prev), slog.String("to", head))
		if err := e.RefreshAll(ctx); err != nil {
			e.logger.Warn("syncer: refresh after head move failed",
				slog.String("error", err.Error()))
		}
	}

	e.mu.Lock()
	e.lastHead = head
	e.mu.Unlock()
}

// RefreshAll re-derives the full document set from the repository tree.
// Individual file failures are logged and skipped; only a failed tree
// listing aborts, leaving the previous cache contents untouched.
func (e *Engine) RefreshAll(ctx context.Context) error {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	if e.State() != StateInitializing {
		e.setState(StateRefreshing)
	}

	entries, err := e.client.ListTree(ctx)
	if err != nil {
		e.setState(StateDegraded)
		return fmt.Errorf("syncer: list tree: %w", err)
	}

	// Fetch and parse every file concurrently; results keep the tree
	// listing's encounter order so later sort ties are deterministic.
	results := make([]*docs.Document, len(entries))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, entry := range entries {
		g.Go(func() error {
			data, err := e.client.GetFileContent(gCtx, entry.Path)
			if err != nil {
				e.logger.Warn("syncer: fetch failed, skipping file",
					slog.String("path", entry.Path),
					slog.String("error", err.Error()))
				return nil
			}
			doc := docs.New(e.basePath, entry.Path, entry.SHA, data)
			results[i] = &doc
			return nil
		})
	}
	_ = g.Wait() // per-file errors are contained, never propagated

	documents := make([]docs.Document, 0, len(results))
	for _, doc := range results {
		if doc != nil {
			documents = append(documents, *doc)
		}
	}

	change := diff(e.cache.Fingerprints(), documents)
	e.cache.ReplaceAll(documents)

	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()
	e.setState(StateReady)

	e.logger.Info("syncer: refresh complete",
		slog.Int("documents", len(documents)),
		slog.Int("skipped", len(entries)-len(documents)))

	if !change.Empty() {
		e.notifier.Publish(change)
	}
	return nil
}

// GetDocument serves slug from the cache without ever blocking on a
// concurrent refresh. A stale hit is returned immediately while a
// best-effort background refetch runs. A miss before the first completed
// refresh falls back to a direct single-file fetch.
func (e *Engine) GetDocument(ctx context.Context, slug string) (docs.Document, error) {
	if doc, ok := e.cache.Get(slug); ok {
		if !e.cache.IsFresh(slug) {
			go e.refreshOne(slug, doc.SHA)
		}
		return doc, nil
	}

	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	if initialized {
		return docs.Document{}, apperr.ErrNotFound
	}

	path := docs.PathFromSlug(e.basePath, slug)
	data, err := e.client.GetFileContent(ctx, path)
	if err != nil {
		return docs.Document{}, fmt.Errorf("syncer: cold fetch %s: %w", slug, err)
	}
	doc := docs.New(e.basePath, path, "", data)
	e.cache.Put(doc)
	return doc, nil
}

// GetAllDocuments returns the cached set ordered by ascending order.
func (e *Engine) GetAllDocuments() []docs.Document {
	return e.cache.GetAll()
}

// BuildNavigation derives the navigation tree for a slug-prefix section.
func (e *Engine) BuildNavigation(section string) []docs.NavNode {
	return docs.BuildNav(e.cache.GetAll(), docs.SectionPrefix(section))
}

// Invalidate drops one cache entry; the next lookup or refresh re-fetches it.
func (e *Engine) Invalidate(slug string) {
	e.cache.Invalidate(slug)
}

// refreshOne refetches a single stale document in the background. The
// previous fingerprint is retained: the content endpoint does not return the
// tree blob hash, and the next full refresh reconciles it anyway.
func (e *Engine) refreshOne(slug, prevSHA string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := docs.PathFromSlug(e.basePath, slug)
	data, err := e.client.GetFileContent(ctx, path)
	if err != nil {
		e.logger.Warn("syncer: background refetch failed, serving stale",
			slog.String("slug", slug), slog.String("error", err.Error()))
		return
	}
	e.cache.Put(docs.New(e.basePath, path, prevSHA, data))
}

// setState records the lifecycle state.
func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// diff compares the cached fingerprints against the incoming set. A change
// event fires when the slug set differs or any per-slug content hash moved.
func diff(prev map[string]string, next []docs.Document) Change {
	var change Change
	seen := make(map[string]struct{}, len(next))
	for _, doc := range next {
		seen[doc.Slug] = struct{}{}
		prevSHA, existed := prev[doc.Slug]
		switch {
		case !existed:
			change.Added = append(change.Added, doc.Slug)
		case prevSHA != doc.SHA:
			change.Updated = append(change.Updated, doc.Slug)
		}
	}
	for slug := range prev {
		if _, ok := seen[slug]; !ok {
			change.Removed = append(change.Removed, slug)
		}
	}
	sort.Strings(change.Added)
	sort.Strings(change.Updated)
	sort.Strings(change.Removed)
	return change
}
