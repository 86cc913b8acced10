package storysite

import "time"

// SiteConfig holds all configuration for a storysite instance. Supplied at
// construction; nothing is read from globals after startup.
type SiteConfig struct {
	Name        string // Site name (default "Stories")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Default story author

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path; empty forces degraded mode

	SessionSecret string // Preference-cookie encryption secret
	CookieSecure  bool   // Set true for HTTPS

	FeedCacheTTL time.Duration // Feed/sitemap post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Stories"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Author == "" {
		c.Author = "Mareta"
	}
	if c.FeedCacheTTL == 0 {
		c.FeedCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithRepository injects a pre-built repository instead of opening one from
// DatabasePath. Used by tests and embedders.
func WithRepository(repo Repository) Option {
	return func(a *App) {
		a.Repo = repo
	}
}

// WithStaticDir sets the directory for static assets and uploads (default
// "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithCustomRoutes registers additional routes on the Echo instance before
// the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
