package storysite

import (
	"sync"
	"time"
)

// feedCache is a TTL cache of the post list feeding RSS and sitemap
// rendering only. API reads bypass it so view counters and freshly written
// posts are always live.
type feedCache struct {
	mu      sync.RWMutex
	posts   []BlogPost
	fetched time.Time
	ttl     time.Duration
	repo    Repository
}

func newFeedCache(repo Repository, ttl time.Duration) *feedCache {
	return &feedCache{repo: repo, ttl: ttl}
}

func (c *feedCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *feedCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// Posts returns the cached post list, reloading from the repository when
// stale.
func (c *feedCache) Posts() ([]BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.repo.GetAllPosts()
	if err != nil {
		return nil, err
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}
