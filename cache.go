package folio

import (
	"context"
	"sync"
	"time"

	"github.com/gloanda/folio/content"
)

// PostCache is an in-memory TTL cache of published posts and their tags.
type PostCache struct {
	mu      sync.RWMutex
	posts   []content.BlogPost
	tags    []string
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by s.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read reloads from the store.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached posts and tags, reloading them when stale.
// The write lock is only taken when a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]content.BlogPost, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, c.tags, nil
	}
	posts, err := c.store.ListPosts(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return nil, nil, err
	}
	if posts == nil {
		// Non-nil marks an empty blog as loaded.
		posts = []content.BlogPost{}
	}
	c.posts, c.tags, c.fetched = posts, tags, time.Now()
	return c.posts, c.tags, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *PostCache) ListPosts(ctx context.Context, tag string) ([]content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return posts, nil
	}
	var filtered []content.BlogPost
	for _, p := range posts {
		if content.HasTag(p.Tags, tag) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Recent returns at most n of the newest published posts.
func (c *PostCache) Recent(ctx context.Context, n int) ([]content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts, nil
}

// ListTags returns all unique tags of published posts.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// GetPost returns a published post by slug.
func (c *PostCache) GetPost(ctx context.Context, slug string) (content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return content.BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return content.BlogPost{}, ErrNotFound
}

// Search returns published posts matching every term of query, newest first.
func (c *PostCache) Search(ctx context.Context, query string) ([]content.BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	var out []content.BlogPost
	for _, p := range posts {
		if content.MatchesPost(p, query) {
			out = append(out, p)
		}
	}
	return out, nil
}
