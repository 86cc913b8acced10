package storysite

import (
	"strings"
	"testing"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World! — 2024", "hello-world-2024"},
		{"Simple Title", "simple-title"},
		{"  spaced   out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER Case", "upper-case"},
		{"100% Go!", "100-go"},
		{"---", ""},
		{"", ""},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
	}

	for _, tt := range tests {
		if got := GenerateSlug(tt.title); got != tt.want {
			t.Errorf("GenerateSlug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 1},
		{"one word", "hi", 1},
		{"exactly 200 words", strings.Repeat("word ", 200), 1},
		{"201 words rounds up", strings.Repeat("word ", 201), 2},
		{"400 words", strings.Repeat("word ", 400), 2},
		{"401 words", strings.Repeat("word ", 401), 3},
	}

	for _, tt := range tests {
		if got := ReadingTime(tt.content); got != tt.want {
			t.Errorf("%s: ReadingTime = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFilterEmpty(t *testing.T) {
	got := FilterEmpty([]string{" go ", "", "  ", "web"})
	if len(got) != 2 || got[0] != "go" || got[1] != "web" {
		t.Errorf("FilterEmpty = %v, want [go web]", got)
	}
	if out := FilterEmpty(nil); out != nil {
		t.Errorf("FilterEmpty(nil) = %v, want nil", out)
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"story", "my-post"}, "https://example.com/story/my-post/"},
		{"https://example.com/", []string{"story", "my-post"}, "https://example.com/story/my-post/"},
	}

	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	post := fallbackPosts[0]
	cfg := SiteConfig{URL: "https://example.com", Author: "Fallback Author"}

	ld := BlogPostingJsonLD(post, cfg)
	for _, want := range []string{
		`"@type":"BlogPosting"`,
		`"headline":"` + post.Title + `"`,
		`"url":"https://example.com/story/` + post.Slug + `/"`,
		`"name":"` + post.Author + `"`,
	} {
		if !strings.Contains(ld, want) {
			t.Errorf("JSON-LD missing %s in %s", want, ld)
		}
	}
}
