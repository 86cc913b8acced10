// Package storysite is the backend for a personal portfolio site with a
// "Stories" blog: a JSON API for post CRUD, tag browsing, and search over a
// SQLite document store, plus server-rendered story pages, RSS, and sitemap.
//
// The blog degrades gracefully: when the store cannot be opened the API
// serves a fixed sample dataset for reads and rejects writes, instead of
// crashing at startup.
package storysite

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

// App wires together the repository, cache, limiter, middleware, and routes.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Repo   Repository

	// Degraded reports that the backing store was unavailable at startup
	// and the fallback dataset is being served. Set once, read-only after.
	Degraded bool

	feedCache    *feedCache
	writeLimiter *writeLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a storysite App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the repository, middleware, and routes, then starts the
// server.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("storysite: SessionSecret is required")
	}

	if a.Repo == nil {
		repo, degraded := OpenRepository(a.Config.DatabasePath, a.Echo.Logger.Printf)
		a.Repo = repo
		a.Degraded = degraded
	}

	a.feedCache = newFeedCache(a.Repo, a.Config.FeedCacheTTL)
	a.writeLimiter = newWriteLimiter(30, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Server-rendered story page
	e.GET("/story/:slug", a.handleStoryPage)

	// Blog API
	e.GET("/api/blog", a.handleListPosts)
	e.POST("/api/blog", a.handleCreatePost, a.limitWrites)
	e.GET("/api/blog/search", a.handleSearch)
	e.GET("/api/blog/tags", a.handleListTags)
	e.GET("/api/blog/featured", a.handleFeaturedPosts)
	e.GET("/api/blog/latest", a.handleLatestPosts)
	e.PUT("/api/blog/:id", a.handleUpdatePost, a.limitWrites)
	e.DELETE("/api/blog/:id", a.handleDeletePost, a.limitWrites)
	e.POST("/api/blog/:id/like", a.handleLikePost, a.limitWrites)

	// Story read by slug (increments views)
	e.GET("/api/story/:slug", a.handleGetPost)

	// Tag API
	e.GET("/api/tags", a.handleTags)
	e.GET("/api/tags/:tag", a.handlePostsByTag)

	// Visitor preferences
	e.GET("/api/preferences", a.handleGetPreferences)
	e.PUT("/api/preferences", a.handlePutPreferences)

	// Cover images
	e.GET("/api/images", a.handleImageList)
	e.POST("/api/images", a.handleImageUpload, a.limitWrites)
	e.DELETE("/api/images/:filename", a.handleImageDelete, a.limitWrites)
}

// Close cleans up resources. Call when the app is shutting down.
func (a *App) Close() error {
	if a.Repo != nil {
		return a.Repo.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if
// empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("storysite: required environment variable %s is not set", key)
	}
	return v
}
