// Package testutil provides shared test helpers: an in-memory GitHub API
// double and snapshot database fixtures.
package testutil

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/eastgate/lore/internal/github"
	"github.com/eastgate/lore/internal/store"
)

// FakeRepo serves a minimal slice of the GitHub REST API from memory.
type FakeRepo struct {
	mu        sync.Mutex
	files     map[string]string // path -> content
	head      string
	failTree  bool
	failHead  bool
	failPaths map[string]bool // paths answered with 500

	server *httptest.Server
}

// NewFakeRepo starts the fake API and registers cleanup on t.
func NewFakeRepo(t *testing.T, files map[string]string) *FakeRepo {
	t.Helper()
	f := &FakeRepo{
		files:     make(map[string]string),
		head:      "head-0",
		failPaths: make(map[string]bool),
	}
	for path, content := range files {
		f.files[path] = content
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// Client returns a github.Client pointed at the fake API.
func (f *FakeRepo) Client(basePath string) *github.Client {
	return github.New("octo", "handbook", "main", basePath, "",
		github.WithBaseURL(f.server.URL))
}

// SetHead moves the branch head.
func (f *FakeRepo) SetHead(head string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

// SetFile adds or replaces a file.
func (f *FakeRepo) SetFile(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

// RemoveFile deletes a file.
func (f *FakeRepo) RemoveFile(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

// FailTree makes tree listings answer 500.
func (f *FakeRepo) FailTree(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failTree = fail
}

// FailHead makes branch head lookups answer 500.
func (f *FakeRepo) FailHead(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failHead = fail
}

// FailPath makes content fetches for one path answer 500.
func (f *FakeRepo) FailPath(path string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPaths[path] = fail
}

func (f *FakeRepo) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.Contains(r.URL.Path, "/git/trees/"):
		if f.failTree {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		type node struct {
			Path string `json:"path"`
			Type string `json:"type"`
			SHA  string `json:"sha"`
		}
		var tree []node
		for path, content := range f.files {
			tree = append(tree, node{Path: path, Type: "blob", SHA: ContentSHA(content)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tree": tree, "truncated": false})

	case strings.Contains(r.URL.Path, "/contents/"):
		path := r.URL.Path[strings.Index(r.URL.Path, "/contents/")+len("/contents/"):]
		if f.failPaths[path] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		content, ok := f.files[path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			"encoding": "base64",
			"sha":      ContentSHA(content),
		})

	case strings.Contains(r.URL.Path, "/branches/"):
		if f.failHead {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit": map[string]any{"sha": f.head},
		})

	default:
		http.Error(w, "unexpected path: "+r.URL.Path, http.StatusNotFound)
	}
}

// ContentSHA is the fingerprint the fake API reports for file content.
func ContentSHA(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// TestSnapshot creates a temporary SQLite snapshot that is cleaned up with t.
func TestSnapshot(t *testing.T) *store.SQLiteSnapshot {
	t.Helper()
	f, err := os.CreateTemp("", "lore-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	snap, err := store.OpenSnapshot(f.Name())
	if err != nil {
		t.Fatalf("OpenSnapshot: %v", err)
	}
	t.Cleanup(func() { snap.Close() })
	return snap
}
