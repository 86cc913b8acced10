package main

import (
	"log"
	"strconv"
	"time"

	storysite "github.com/mareta/storysite"
)

func main() {
	cfg := storysite.SiteConfig{
		Name:          storysite.EnvOr("SITE_NAME", "Stories"),
		URL:           storysite.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:   storysite.EnvOr("SITE_DESCRIPTION", "Stories and notes from a personal portfolio"),
		Author:        storysite.EnvOr("SITE_AUTHOR", "Mareta"),
		Addr:          storysite.EnvOr("ADDR", ":3000"),
		DatabasePath:  storysite.EnvOr("DATABASE_PATH", "data/storysite.db"),
		SessionSecret: storysite.MustEnv("SESSION_SECRET"),
		CookieSecure:  storysite.EnvOr("COOKIE_SECURE", "false") == "true",
	}
	if ttl := storysite.EnvOr("FEED_CACHE_TTL_SECONDS", ""); ttl != "" {
		secs, err := strconv.Atoi(ttl)
		if err != nil {
			log.Fatalf("invalid FEED_CACHE_TTL_SECONDS: %v", err)
		}
		cfg.FeedCacheTTL = time.Duration(secs) * time.Second
	}

	app := storysite.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
