package storysite

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed Repository. Posts and tags are independently
// owned rows; tag counts are denormalized and rebuilt by recomputeTags after
// every mutation that touches tags.
type Store struct {
	db *sql.DB

	// Logf receives best-effort failure reports (view increments, tag
	// recomputation) that must not fail the triggering call. Defaults to
	// log.Printf.
	Logf func(format string, args ...interface{})
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema bootstrap.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy timeout so writers wait
	// instead of failing with SQLITE_BUSY, synchronous=NORMAL is safe with
	// WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, Logf: log.Printf}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    content TEXT NOT NULL,
    tags TEXT NOT NULL,
    author TEXT NOT NULL DEFAULT '',
    featured INTEGER NOT NULL DEFAULT 0,
    reading_time INTEGER NOT NULL DEFAULT 0,
    language TEXT NOT NULL DEFAULT 'en',
    views INTEGER NOT NULL DEFAULT 0,
    likes INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    published_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_slug ON posts(slug);
CREATE TABLE IF NOT EXISTS tags (
    name TEXT PRIMARY KEY,
    slug TEXT NOT NULL,
    count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, title, slug, excerpt, content, tags, author, featured, reading_time, language, views, likes, created_at, updated_at, published_at`

func scanPost(row interface{ Scan(...interface{}) error }) (BlogPost, error) {
	var p BlogPost
	var tags string
	var featured int
	var created, updated, published int64
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &tags,
		&p.Author, &featured, &p.ReadingTime, &p.Language, &p.Views, &p.Likes,
		&created, &updated, &published)
	if err != nil {
		return BlogPost{}, err
	}
	p.Tags = parseTags(tags)
	p.Featured = featured == 1
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	p.PublishedAt = time.Unix(0, published).UTC()
	// Legacy rows may predate the reading_time column; derive on read.
	if p.ReadingTime == 0 {
		p.ReadingTime = ReadingTime(p.Content)
	}
	return p, nil
}

func (s *Store) queryPosts(query string, args ...interface{}) ([]BlogPost, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePost validates in, derives slug and reading time, persists the post,
// and triggers tag recomputation. Validation failures surface before any
// write.
func (s *Store) CreatePost(in CreatePostInput) (string, error) {
	if verr := validateCreate(in); verr != nil {
		return "", verr
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	lang := in.Language
	if lang == "" {
		lang = LanguageEN
	}
	featured := 0
	if in.Featured {
		featured = 1
	}
	_, err := s.db.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`,
		id, in.Title, GenerateSlug(in.Title), in.Excerpt, in.Content,
		tagString(FilterEmpty(in.Tags)), in.Author, featured,
		ReadingTime(in.Content), lang,
		now.UnixNano(), now.UnixNano(), now.UnixNano())
	if err != nil {
		return "", storeErr("create post", err)
	}
	s.triggerRecompute()
	return id, nil
}

// GetAllPosts returns all posts ordered by creation time descending.
func (s *Store) GetAllPosts() ([]BlogPost, error) {
	posts, err := s.queryPosts(`SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`)
	return posts, storeErr("list posts", err)
}

// GetLatestPosts returns the n most recently created posts.
func (s *Store) GetLatestPosts(n int) ([]BlogPost, error) {
	posts, err := s.queryPosts(`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC LIMIT ?`, n)
	return posts, storeErr("list latest posts", err)
}

// GetFeaturedPosts returns featured posts, newest first.
func (s *Store) GetFeaturedPosts() ([]BlogPost, error) {
	posts, err := s.queryPosts(`SELECT ` + postColumns + ` FROM posts WHERE featured = 1 ORDER BY created_at DESC`)
	return posts, storeErr("list featured posts", err)
}

// GetPostBySlug returns the post with the given slug or ErrNotFound. On a
// hit it bumps the view counter best-effort; a lost increment is logged and
// never fails the read. The returned post carries the pre-increment count.
func (s *Store) GetPostBySlug(slug string) (*BlogPost, error) {
	p, err := scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ? LIMIT 1`, slug))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get post by slug", err)
	}
	if _, err := s.db.Exec(`UPDATE posts SET views = views + 1 WHERE id = ?`, p.ID); err != nil {
		s.Logf("storysite: increment views for %s: %v", p.ID, err)
	}
	return &p, nil
}

// GetPostsByTag returns posts carrying tag, matched case-sensitively against
// the stored value, newest first.
func (s *Store) GetPostsByTag(tag string) ([]BlogPost, error) {
	posts, err := s.queryPosts(`SELECT `+postColumns+` FROM posts WHERE instr(tags, ',' || ? || ',') > 0 ORDER BY created_at DESC`, tag)
	return posts, storeErr("list posts by tag", err)
}

// UpdatePost merges the non-nil fields of up into the post and refreshes
// updatedAt. Providing Tags triggers tag recomputation.
func (s *Store) UpdatePost(id string, up PostUpdate) error {
	if up.Tags != nil && tagsHaveComma(*up.Tags) {
		return &ValidationError{Messages: []string{"Tags must not contain commas"}}
	}
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC().UnixNano()}
	add := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if up.Title != nil {
		add("title", *up.Title)
	}
	if up.Slug != nil {
		add("slug", *up.Slug)
	}
	if up.Excerpt != nil {
		add("excerpt", *up.Excerpt)
	}
	if up.Content != nil {
		add("content", *up.Content)
	}
	if up.Tags != nil {
		add("tags", tagString(FilterEmpty(*up.Tags)))
	}
	if up.Author != nil {
		add("author", *up.Author)
	}
	if up.Featured != nil {
		featured := 0
		if *up.Featured {
			featured = 1
		}
		add("featured", featured)
	}
	if up.Language != nil {
		add("language", *up.Language)
	}
	args = append(args, id)
	res, err := s.db.Exec(`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return storeErr("update post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if up.Tags != nil {
		s.triggerRecompute()
	}
	return nil
}

// DeletePost removes the post and triggers tag recomputation. The underlying
// store error, if any, is surfaced with operation detail.
func (s *Store) DeletePost(id string) error {
	if _, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id); err != nil {
		return storeErr("delete post "+id, err)
	}
	s.triggerRecompute()
	return nil
}

// SearchPosts does a case-insensitive substring match across title, excerpt,
// content, and tags. Results keep store order (newest first); no ranking.
func (s *Store) SearchPosts(term string) ([]BlogPost, error) {
	posts, err := s.GetAllPosts()
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, term), nil
}

func filterPosts(posts []BlogPost, term string) []BlogPost {
	needle := strings.ToLower(term)
	var out []BlogPost
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Excerpt), needle) ||
			strings.Contains(strings.ToLower(p.Content), needle) ||
			tagsContain(p.Tags, needle) {
			out = append(out, p)
		}
	}
	return out
}

func tagsContain(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// GetAllTags returns all tag documents, highest count first, name as
// tiebreaker.
func (s *Store) GetAllTags() ([]BlogTag, error) {
	rows, err := s.db.Query(`SELECT name, slug, count FROM tags ORDER BY count DESC, name ASC`)
	if err != nil {
		return nil, storeErr("list tags", err)
	}
	defer rows.Close()

	var tags []BlogTag
	for rows.Next() {
		var t BlogTag
		if err := rows.Scan(&t.Name, &t.Slug, &t.Count); err != nil {
			return nil, storeErr("list tags", err)
		}
		tags = append(tags, t)
	}
	return tags, storeErr("list tags", rows.Err())
}

// LikePost increments the post's like counter.
func (s *Store) LikePost(id string) error {
	res, err := s.db.Exec(`UPDATE posts SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return storeErr("like post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// triggerRecompute runs a full tag recomputation and logs failures. A stale
// tag count is preferable to failing the post mutation that triggered it, so
// errors stop here.
func (s *Store) triggerRecompute() {
	if err := s.recomputeTags(); err != nil {
		s.Logf("storysite: recompute tags: %v", err)
	}
}

// recomputeTags rebuilds the tags table from the full post corpus: count
// every tag across all posts, upsert one row per tag, delete rows whose tag
// vanished. O(posts x avg tags) per mutation, fine for tens to low hundreds
// of posts.
func (s *Store) recomputeTags() error {
	rows, err := s.db.Query(`SELECT tags FROM posts`)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			rows.Close()
			return err
		}
		for _, t := range parseTags(tags) {
			counts[t]++
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for name, count := range counts {
		_, err := s.db.Exec(`INSERT INTO tags (name, slug, count) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET count = excluded.count`,
			name, GenerateSlug(name), count)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
	}

	existing, err := s.db.Query(`SELECT name FROM tags`)
	if err != nil {
		return err
	}
	var stale []string
	for existing.Next() {
		var name string
		if err := existing.Scan(&name); err != nil {
			existing.Close()
			return err
		}
		if _, ok := counts[name]; !ok {
			stale = append(stale, name)
		}
	}
	existing.Close()
	if err := existing.Err(); err != nil {
		return err
	}
	for _, name := range stale {
		if _, err := s.db.Exec(`DELETE FROM tags WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete tag %q: %w", name, err)
		}
	}
	return nil
}

// SaveImage records cover-image metadata.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return storeErr("save image", err)
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, storeErr("list images", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, storeErr("list images", err)
		}
		images = append(images, img)
	}
	return images, storeErr("list images", rows.Err())
}

// DeleteImage removes image metadata by filename.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return storeErr("delete image", err)
}

// tagString serializes tags for storage with sentinel commas so containment
// checks can match whole tags: ["go","web"] -> ",go,web,". Case is
// preserved.
func tagString(tags []string) string {
	if len(tags) == 0 {
		return ","
	}
	return "," + strings.Join(tags, ",") + ","
}

// parseTags splits a stored tag string (e.g. ",go,web,") into a slice.
func parseTags(tagStr string) []string {
	tagStr = strings.Trim(tagStr, ",")
	if tagStr == "" {
		return nil
	}
	parts := strings.Split(tagStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
