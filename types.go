package storysite

import "time"

// Languages a story can be written in.
const (
	LanguageEN = "en"
	LanguageID = "id"
)

// BlogPost is the core content document. Slug and ReadingTime are derived at
// creation; Views and Likes are server-incremented counters.
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	Featured    bool      `json:"featured"`
	ReadingTime int       `json:"readingTime"`
	Language    string    `json:"language"`
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	PublishedAt time.Time `json:"publishedAt"`
}

// BlogTag is a denormalized tag document. Count tracks how many posts carry
// the tag and is rebuilt by a full recomputation after every mutation that
// touches tags.
type BlogTag struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// CreatePostInput carries the author-supplied fields of a new post. ID,
// slug, reading time, timestamps, and counters are assigned by the store.
type CreatePostInput struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author"`
	Featured bool     `json:"featured"`
	Language string   `json:"language"`
}

// PostUpdate enumerates the fields a partial update may change. Nil fields
// are left untouched. Providing Tags (even unchanged) triggers tag
// recomputation.
type PostUpdate struct {
	Title    *string   `json:"title"`
	Slug     *string   `json:"slug"`
	Excerpt  *string   `json:"excerpt"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	Author   *string   `json:"author"`
	Featured *bool     `json:"featured"`
	Language *string   `json:"language"`
}

// Image is metadata for an uploaded story cover image.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
}

// Preferences are per-visitor display settings kept in a cookie session.
type Preferences struct {
	Theme    string `json:"theme"`    // "light" or "dark"
	Language string `json:"language"` // "en" or "id"
}
