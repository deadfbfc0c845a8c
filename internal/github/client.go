// Package github is a thin wrapper over the GitHub REST v3 endpoints the
// sync engine needs: recursive tree listing, file content, and branch head.
// It performs no retries; retry policy belongs to the caller.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eastgate/lore/internal/apperr"
)

const defaultBaseURL = "https://api.github.com"

// TreeEntry is one Markdown file in the repository tree listing.
type TreeEntry struct {
	Path string
	SHA  string
}

// Client issues requests against one repository/branch/base-path triple.
type Client struct {
	baseURL  string
	owner    string
	repo     string
	branch   string
	basePath string
	token    string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (GitHub Enterprise, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client. An empty token means unauthenticated public access.
func New(owner, repo, branch, basePath, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		owner:    owner,
		repo:     repo,
		branch:   branch,
		basePath: strings.Trim(basePath, "/"),
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// ListTree enumerates every Markdown blob under the configured base path.
func (c *Client) ListTree(ctx context.Context) ([]TreeEntry, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		c.baseURL, c.owner, c.repo, url.PathEscape(c.branch))

	var resp treeResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		// The API answers 409 for a repository with no commits yet; that is a
		// valid empty document set, not an outage.
		if errors.Is(err, apperr.ErrConflict) {
			return nil, nil
		}
		// A missing branch or repo is indistinguishable from an outage for
		// tree listing purposes.
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("github: tree for %s/%s@%s: %w",
				c.owner, c.repo, c.branch, apperr.ErrRepoUnavailable)
		}
		return nil, err
	}
	if resp.Truncated {
		slog.Warn("github: tree listing truncated by the API",
			slog.String("repo", c.owner+"/"+c.repo))
	}

	var out []TreeEntry
	for _, entry := range resp.Tree {
		if entry.Type != "blob" || !strings.HasSuffix(entry.Path, ".md") {
			continue
		}
		if c.basePath != "" && !strings.HasPrefix(entry.Path, c.basePath+"/") {
			continue
		}
		out = append(out, TreeEntry{Path: entry.Path, SHA: entry.SHA})
	}
	return out, nil
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFileContent fetches and decodes one file. Returns apperr.ErrNotFound on
// a 404 and apperr.ErrRepoUnavailable on any other failure.
func (c *Client) GetFileContent(ctx context.Context, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, c.owner, c.repo, escapePath(path), url.QueryEscape(c.branch))

	var resp contentResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if resp.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(
			strings.ReplaceAll(resp.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("github: decode content of %s: %w", path, err)
		}
		return decoded, nil
	}
	return []byte(resp.Content), nil
}

type branchResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// GetBranchHead returns the tip commit of the tracked branch. Callers treat
// a failure here as a soft error and skip the poll cycle.
func (c *Client) GetBranchHead(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/branches/%s",
		c.baseURL, c.owner, c.repo, url.PathEscape(c.branch))

	var resp branchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("github: branch %s: %w", c.branch, apperr.ErrRepoUnavailable)
		}
		return "", err
	}
	return resp.Commit.SHA, nil
}

// getJSON performs one GET and decodes the response, mapping HTTP status to
// the error taxonomy.
func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github: %s: %w", endpoint, apperr.ErrRepoUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return apperr.ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("github: %s returned %d: %w",
			endpoint, resp.StatusCode, apperr.ErrRepoUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("github: decode response: %w", err)
	}
	return nil
}

// escapePath escapes each path segment while preserving separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
