package storysite

import (
	"fmt"
	"strings"
)

// Field ceilings enforced before any write.
const (
	maxTitleLen   = 100
	maxExcerptLen = 300
)

// Repository is the blog content access layer. The SQLite Store is the real
// implementation; Fallback serves a fixed dataset when the store could not
// be opened. Constructed explicitly and passed in — no package-level
// singletons.
type Repository interface {
	// CreatePost validates in, derives slug and reading time, persists the
	// post, and triggers tag recomputation. Returns the new post's id.
	CreatePost(in CreatePostInput) (string, error)
	// GetAllPosts returns all posts ordered by creation time descending.
	GetAllPosts() ([]BlogPost, error)
	// GetLatestPosts returns the n most recently created posts.
	GetLatestPosts(n int) ([]BlogPost, error)
	// GetFeaturedPosts returns featured posts, newest first.
	GetFeaturedPosts() ([]BlogPost, error)
	// GetPostBySlug returns the post with the given slug or ErrNotFound.
	// On a hit it increments the post's view counter best-effort: a failed
	// increment is logged, never surfaced.
	GetPostBySlug(slug string) (*BlogPost, error)
	// GetPostsByTag returns posts carrying the tag (case-sensitive match on
	// the stored value), newest first.
	GetPostsByTag(tag string) ([]BlogPost, error)
	// UpdatePost merges the non-nil fields of up into the post and
	// refreshes updatedAt. Providing Tags triggers tag recomputation.
	UpdatePost(id string, up PostUpdate) error
	// DeletePost removes the post and triggers tag recomputation. Store
	// failures are surfaced with operation detail, never swallowed.
	DeletePost(id string) error
	// SearchPosts does a case-insensitive substring match across title,
	// excerpt, content, and tags. No ranking; results keep store order.
	SearchPosts(term string) ([]BlogPost, error)
	// GetAllTags returns all tags with counts, highest count first.
	GetAllTags() ([]BlogTag, error)
	// LikePost increments the post's like counter.
	LikePost(id string) error
	Close() error
}

// ImageStore is the optional cover-image side of a repository. Only the
// SQLite Store implements it; in degraded mode uploads are rejected.
type ImageStore interface {
	SaveImage(img Image) error
	ListImages() ([]Image, error)
	DeleteImage(filename string) error
}

// validateCreate checks required fields and length ceilings. Returns nil
// when in is acceptable.
func validateCreate(in CreatePostInput) *ValidationError {
	var msgs []string
	if len(FilterEmpty([]string{in.Title})) == 0 {
		msgs = append(msgs, "Title is required")
	}
	if len(FilterEmpty([]string{in.Excerpt})) == 0 {
		msgs = append(msgs, "Excerpt is required")
	}
	if len(FilterEmpty([]string{in.Content})) == 0 {
		msgs = append(msgs, "Content is required")
	}
	if len(FilterEmpty(in.Tags)) == 0 {
		msgs = append(msgs, "At least one tag is required")
	}
	if tagsHaveComma(in.Tags) {
		msgs = append(msgs, "Tags must not contain commas")
	}
	if len(in.Title) > maxTitleLen {
		msgs = append(msgs, fmt.Sprintf("Title should be less than %d characters", maxTitleLen))
	}
	if len(in.Excerpt) > maxExcerptLen {
		msgs = append(msgs, fmt.Sprintf("Excerpt should be less than %d characters", maxExcerptLen))
	}
	if in.Language != "" && in.Language != LanguageEN && in.Language != LanguageID {
		msgs = append(msgs, "Language must be en or id")
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// tagsHaveComma reports whether any tag contains a comma. The store
// serializes tags comma-delimited, so a comma inside a tag would not survive
// the round trip.
func tagsHaveComma(tags []string) bool {
	for _, t := range tags {
		if strings.Contains(t, ",") {
			return true
		}
	}
	return false
}
