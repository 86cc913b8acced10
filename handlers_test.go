package storysite

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

func newTestApp(t *testing.T, repo Repository) *App {
	t.Helper()
	a := New(SiteConfig{
		Name:          "Stories",
		URL:           "https://example.com",
		SessionSecret: "test-secret",
	})
	a.Repo = repo
	a.feedCache = newFeedCache(repo, time.Minute)
	a.writeLimiter = newWriteLimiter(100, time.Minute)
	return a
}

func doRequest(a *App, method, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return rec, a.Echo.NewContext(req, rec)
}

func TestHandleListPostsEmpty(t *testing.T) {
	s := setupTestStore(t)
	a := newTestApp(t, s)

	rec, c := doRequest(a, http.MethodGet, "/api/blog", "")
	if err := a.handleListPosts(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty list should serialize as [], got %s", got)
	}
}

func TestHandleCreatePost(t *testing.T) {
	s := setupTestStore(t)
	a := newTestApp(t, s)

	body := `{"title":"From the API","excerpt":"e","content":"c","tags":["go"],"author":"Mareta"}`
	rec, c := doRequest(a, http.MethodPost, "/api/blog", body)
	if err := a.handleCreatePost(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp["id"] == "" {
		t.Error("response should carry the new post id")
	}
	if resp["message"] != "Post created successfully" {
		t.Errorf("message = %q", resp["message"])
	}

	if _, err := s.GetPostBySlug("from-the-api"); err != nil {
		t.Errorf("created post should be readable: %v", err)
	}
}

func TestHandleCreatePostValidation(t *testing.T) {
	s := setupTestStore(t)
	a := newTestApp(t, s)

	rec, c := doRequest(a, http.MethodPost, "/api/blog", `{"title":""}`)
	if err := a.handleCreatePost(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Error != "Validation failed" {
		t.Errorf("error = %q", resp.Error)
	}
	if len(resp.Details) == 0 {
		t.Error("details should list the failed checks")
	}
}

func TestHandleSearchRequiresQuery(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/api/blog/search", "")
	if err := a.handleSearch(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearchFindsPosts(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/api/blog/search?q=design", "")
	if err := a.handleSearch(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var posts []BlogPost
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "design-systems-for-a-team-of-one" {
		t.Errorf("got %d posts, want the design systems sample", len(posts))
	}
}

func TestHandleGetPostNotFound(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/api/story/nope", "")
	c.SetParamNames("slug")
	c.SetParamValues("nope")
	if err := a.handleGetPost(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleLatestPostsInvalidN(t *testing.T) {
	a := newTestApp(t, NewFallback())

	for _, q := range []string{"n=0", "n=-1", "n=abc"} {
		rec, c := doRequest(a, http.MethodGet, "/api/blog/latest?"+q, "")
		if err := a.handleLatestPosts(c); err != nil {
			t.Fatalf("handler failed: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHandleLatestPostsDefault(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/api/blog/latest", "")
	if err := a.handleLatestPosts(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	var posts []BlogPost
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(posts) != 3 {
		t.Errorf("default should return 3 posts, got %d", len(posts))
	}
}

func TestWritesFailDegraded(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodPost, "/api/blog",
		`{"title":"t","excerpt":"e","content":"c","tags":["go"]}`)
	if err := a.handleCreatePost(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("create: status = %d, want 503", rec.Code)
	}

	rec, c = doRequest(a, http.MethodDelete, "/api/blog/sample-1", "")
	c.SetParamNames("id")
	c.SetParamValues("sample-1")
	if err := a.handleDeletePost(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("delete: status = %d, want 503", rec.Code)
	}

	rec, c = doRequest(a, http.MethodPost, "/api/blog/sample-1/like", "")
	c.SetParamNames("id")
	c.SetParamValues("sample-1")
	if err := a.handleLikePost(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("like: status = %d, want 503", rec.Code)
	}
}

func TestHandleTagsQuerySwitch(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/api/tags", "")
	if err := a.handleTags(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	var tags []BlogTag
	if err := json.Unmarshal(rec.Body.Bytes(), &tags); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(tags) == 0 {
		t.Error("no query should list all tags")
	}

	rec, c = doRequest(a, http.MethodGet, "/api/tags?tag=portfolio", "")
	if err := a.handleTags(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	var posts []BlogPost
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("tag=portfolio should return 2 posts, got %d", len(posts))
	}
}

func TestHandleRobots(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/robots.txt", "")
	if err := a.handleRobots(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots.txt should point at the sitemap, got %s", rec.Body.String())
	}
}

func TestHandleFeed(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/feed.xml", "")
	if err := a.handleFeed(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<rss version="2.0">`) {
		t.Errorf("missing rss element in %s", body)
	}
	if !strings.Contains(body, "https://example.com/story/belajar-frontend-dari-nol/") {
		t.Errorf("feed should link stories, got %s", body)
	}
}

func TestFeedDescriptionFallback(t *testing.T) {
	withExcerpt := BlogPost{Excerpt: "The excerpt", Content: "# Ignored"}
	if got := feedDescription(withExcerpt); got != "The excerpt" {
		t.Errorf("feedDescription = %q, want the excerpt", got)
	}

	noExcerpt := BlogPost{Content: "# A Title\n\nSome **bold** text"}
	if got := feedDescription(noExcerpt); got != "A Title\n\nSome bold text" {
		t.Errorf("feedDescription = %q, want flattened story text", got)
	}

	long := BlogPost{Content: strings.Repeat("x", 2*maxExcerptLen)}
	if got := feedDescription(long); len(got) != maxExcerptLen {
		t.Errorf("fallback length = %d, want capped at %d", len(got), maxExcerptLen)
	}
}

func TestHandleSitemap(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/sitemap.xml", "")
	if err := a.handleSitemap(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "http://www.sitemaps.org/schemas/sitemap/0.9") {
		t.Error("missing sitemap namespace")
	}
	if !strings.Contains(body, "<loc>https://example.com/story/shipping-a-portfolio-that-actually-converts/</loc>") {
		t.Errorf("sitemap should list stories, got %s", body)
	}
}

func TestHandleStoryPage(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/story/design-systems-for-a-team-of-one", "")
	c.SetParamNames("slug")
	c.SetParamValues("design-systems-for-a-team-of-one")
	if err := a.handleStoryPage(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Design Systems for a Team of One</h1>") {
		t.Error("page should carry the story title")
	}
	if !strings.Contains(body, `"@type":"BlogPosting"`) {
		t.Error("page should embed JSON-LD")
	}
	if !strings.Contains(body, "<blockquote>Consistency beats completeness.</blockquote>") {
		t.Error("story body should be rendered from its markup")
	}
}

func TestHandleStoryPageNotFound(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/story/nope", "")
	c.SetParamNames("slug")
	c.SetParamValues("nope")
	if err := a.handleStoryPage(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Story not found") {
		t.Error("missing not-found page body")
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	a := newTestApp(t, NewFallback())
	e := a.Echo
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))
	e.GET("/api/preferences", a.handleGetPreferences)
	e.PUT("/api/preferences", a.handlePutPreferences)

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var prefs Preferences
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if prefs.Theme != themeLight || prefs.Language != LanguageEN {
		t.Errorf("defaults = %+v, want light/en", prefs)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/preferences",
		strings.NewReader(`{"theme":"dark","language":"id"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("saving preferences should set a session cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if prefs.Theme != themeDark || prefs.Language != LanguageID {
		t.Errorf("prefs = %+v, want dark/id", prefs)
	}
}

func TestPutPreferencesRejectsBadValues(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodPut, "/api/preferences", `{"theme":"sepia","language":"en"}`)
	if err := a.handlePutPreferences(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImageHandlersDegraded(t *testing.T) {
	a := newTestApp(t, NewFallback())

	rec, c := doRequest(a, http.MethodGet, "/api/images", "")
	if err := a.handleImageList(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("degraded image list = %s, want []", got)
	}

	rec, c = doRequest(a, http.MethodDelete, "/api/images/x.jpg", "")
	c.SetParamNames("filename")
	c.SetParamValues("x.jpg")
	if err := a.handleImageDelete(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestWriteLimiterMiddleware(t *testing.T) {
	a := newTestApp(t, NewFallback())
	a.writeLimiter = newWriteLimiter(1, time.Minute)

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	h := a.limitWrites(ok)

	rec, c := doRequest(a, http.MethodPost, "/api/blog", "")
	if err := h(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("first call should pass, got %d", rec.Code)
	}

	rec, c = doRequest(a, http.MethodPost, "/api/blog", "")
	if err := h(c); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second call should be limited, got %d", rec.Code)
	}
}
