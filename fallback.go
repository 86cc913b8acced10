package storysite

import (
	"sort"
	"time"
)

// Fallback is the degraded-mode Repository used when the backing store
// cannot be opened. Reads serve a fixed, deterministic sample dataset;
// writes fail fast with ErrStoreUnavailable instead of silently no-op-ing.
type Fallback struct{}

// NewFallback returns the degraded-mode repository.
func NewFallback() *Fallback {
	return &Fallback{}
}

// OpenRepository opens the SQLite store at path, falling back to the sample
// dataset when that fails. The returned bool reports degraded mode. It never
// returns an error: a misconfigured store must not crash the site.
func OpenRepository(path string, logf func(format string, args ...interface{})) (Repository, bool) {
	if path == "" {
		logf("storysite: no database path configured, running in degraded mode")
		return NewFallback(), true
	}
	store, err := NewStore(path)
	if err != nil {
		logf("storysite: open store %s: %v — running in degraded mode", path, err)
		return NewFallback(), true
	}
	store.Logf = logf
	return store, false
}

var fallbackEpoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// fallbackPosts is the fixed dataset served in degraded mode. Copied on
// every read so callers cannot mutate it.
var fallbackPosts = []BlogPost{
	{
		ID:          "sample-3",
		Title:       "Shipping a Portfolio That Actually Converts",
		Slug:        "shipping-a-portfolio-that-actually-converts",
		Excerpt:     "What I learned rebuilding my portfolio around stories instead of screenshots.",
		Content:     "# Shipping a Portfolio That Actually Converts\n\nScreenshots age badly. Stories do not.\n\n## Lead with the journey\n\n- Show the problem first\n- Show the **decision**, not just the result\n- Keep each case study under *five minutes* of reading",
		Tags:        []string{"portfolio", "career"},
		Author:      "Mareta",
		Featured:    true,
		ReadingTime: 1,
		Language:    LanguageEN,
		CreatedAt:   fallbackEpoch.AddDate(0, 2, 0),
		UpdatedAt:   fallbackEpoch.AddDate(0, 2, 0),
		PublishedAt: fallbackEpoch.AddDate(0, 2, 0),
	},
	{
		ID:          "sample-2",
		Title:       "Design Systems for a Team of One",
		Slug:        "design-systems-for-a-team-of-one",
		Excerpt:     "You do not need a component library of two hundred parts. You need twelve good ones.",
		Content:     "# Design Systems for a Team of One\n\nA solo design system is a promise to your future self.\n\n## Start small\n\n1. Color tokens\n2. Type scale\n3. Spacing\n\n> Consistency beats completeness.",
		Tags:        []string{"design", "portfolio"},
		Author:      "Mareta",
		ReadingTime: 1,
		Language:    LanguageEN,
		CreatedAt:   fallbackEpoch.AddDate(0, 1, 0),
		UpdatedAt:   fallbackEpoch.AddDate(0, 1, 0),
		PublishedAt: fallbackEpoch.AddDate(0, 1, 0),
	},
	{
		ID:          "sample-1",
		Title:       "Belajar Frontend dari Nol",
		Slug:        "belajar-frontend-dari-nol",
		Excerpt:     "Catatan perjalanan belajar frontend development, dari HTML dasar sampai framework modern.",
		Content:     "# Belajar Frontend dari Nol\n\nSemua orang mulai dari halaman kosong.\n\n## Tiga hal pertama\n\n- HTML semantik\n- CSS layout\n- JavaScript dasar",
		Tags:        []string{"frontend", "tutorial"},
		Author:      "Mareta",
		ReadingTime: 1,
		Language:    LanguageID,
		CreatedAt:   fallbackEpoch,
		UpdatedAt:   fallbackEpoch,
		PublishedAt: fallbackEpoch,
	},
}

func copyPosts(posts []BlogPost) []BlogPost {
	out := make([]BlogPost, len(posts))
	copy(out, posts)
	for i := range out {
		out[i].Tags = append([]string(nil), posts[i].Tags...)
	}
	return out
}

func (f *Fallback) CreatePost(in CreatePostInput) (string, error) {
	return "", ErrStoreUnavailable
}

func (f *Fallback) GetAllPosts() ([]BlogPost, error) {
	return copyPosts(fallbackPosts), nil
}

func (f *Fallback) GetLatestPosts(n int) ([]BlogPost, error) {
	posts := copyPosts(fallbackPosts)
	if n < len(posts) {
		posts = posts[:n]
	}
	return posts, nil
}

func (f *Fallback) GetFeaturedPosts() ([]BlogPost, error) {
	var out []BlogPost
	for _, p := range copyPosts(fallbackPosts) {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetPostBySlug returns the sample post with the given slug. No view
// counter exists to increment in degraded mode.
func (f *Fallback) GetPostBySlug(slug string) (*BlogPost, error) {
	for _, p := range copyPosts(fallbackPosts) {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *Fallback) GetPostsByTag(tag string) ([]BlogPost, error) {
	var out []BlogPost
	for _, p := range copyPosts(fallbackPosts) {
		for _, t := range p.Tags {
			if t == tag {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *Fallback) UpdatePost(id string, up PostUpdate) error {
	return ErrStoreUnavailable
}

func (f *Fallback) DeletePost(id string) error {
	return ErrStoreUnavailable
}

func (f *Fallback) SearchPosts(term string) ([]BlogPost, error) {
	return filterPosts(copyPosts(fallbackPosts), term), nil
}

func (f *Fallback) GetAllTags() ([]BlogTag, error) {
	counts := make(map[string]int)
	for _, p := range fallbackPosts {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	tags := make([]BlogTag, 0, len(counts))
	for name, count := range counts {
		tags = append(tags, BlogTag{Name: name, Slug: GenerateSlug(name), Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

func (f *Fallback) LikePost(id string) error {
	return ErrStoreUnavailable
}

func (f *Fallback) Close() error { return nil }
