package storysite

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// jsonError writes {error: msg} with the given status.
func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// writeRepoError maps repository errors onto the API's status codes. Store
// failures are logged before being flattened to a generic message.
func (a *App) writeRepoError(c echo.Context, err error, fallbackMsg string) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": verr.Messages,
		})
	case errors.Is(err, ErrStoreUnavailable):
		return jsonError(c, http.StatusServiceUnavailable, "Store unavailable")
	case errors.Is(err, ErrNotFound):
		return jsonError(c, http.StatusNotFound, "Post not found")
	default:
		c.Logger().Errorf("%s: %v", fallbackMsg, err)
		return jsonError(c, http.StatusInternalServerError, fallbackMsg)
	}
}

// GET /api/blog
func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Repo.GetAllPosts()
	if err != nil {
		return a.writeRepoError(c, err, "Failed to fetch posts")
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	return c.JSON(http.StatusOK, posts)
}

// POST /api/blog
func (a *App) handleCreatePost(c echo.Context) error {
	var in CreatePostInput
	if err := c.Bind(&in); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	id, err := a.Repo.CreatePost(in)
	if err != nil {
		return a.writeRepoError(c, err, "Failed to create post")
	}
	a.feedCache.Invalidate()
	return c.JSON(http.StatusCreated, map[string]string{
		"id":      id,
		"message": "Post created successfully",
	})
}

// PUT /api/blog/:id
func (a *App) handleUpdatePost(c echo.Context) error {
	id := c.Param("id")
	var up PostUpdate
	if err := c.Bind(&up); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := a.Repo.UpdatePost(id, up); err != nil {
		return a.writeRepoError(c, err, "Failed to update post")
	}
	a.feedCache.Invalidate()
	return c.JSON(http.StatusOK, map[string]string{"message": "Post updated successfully"})
}

// DELETE /api/blog/:id
//
// The one operation most likely to fail silently in the wild: the response
// carries the underlying store detail so an operator can diagnose it.
func (a *App) handleDeletePost(c echo.Context) error {
	id := c.Param("id")
	if err := a.Repo.DeletePost(id); err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return jsonError(c, http.StatusServiceUnavailable, "Store unavailable")
		}
		c.Logger().Errorf("delete post %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to delete post",
			"details": err.Error(),
		})
	}
	a.feedCache.Invalidate()
	return c.JSON(http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

// GET /api/blog/search?q=
func (a *App) handleSearch(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return jsonError(c, http.StatusBadRequest, "Missing query parameter q")
	}
	posts, err := a.Repo.SearchPosts(term)
	if err != nil {
		return a.writeRepoError(c, err, "Failed to search posts")
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	return c.JSON(http.StatusOK, posts)
}

// GET /api/blog/tags
func (a *App) handleListTags(c echo.Context) error {
	tags, err := a.Repo.GetAllTags()
	if err != nil {
		return a.writeRepoError(c, err, "Failed to fetch tags")
	}
	if tags == nil {
		tags = []BlogTag{}
	}
	return c.JSON(http.StatusOK, tags)
}

// GET /api/blog/featured
func (a *App) handleFeaturedPosts(c echo.Context) error {
	posts, err := a.Repo.GetFeaturedPosts()
	if err != nil {
		return a.writeRepoError(c, err, "Failed to fetch featured posts")
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	return c.JSON(http.StatusOK, posts)
}

// GET /api/blog/latest?n=
func (a *App) handleLatestPosts(c echo.Context) error {
	n := 3
	if v := c.QueryParam("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return jsonError(c, http.StatusBadRequest, "Invalid n parameter")
		}
		n = parsed
	}
	posts, err := a.Repo.GetLatestPosts(n)
	if err != nil {
		return a.writeRepoError(c, err, "Failed to fetch latest posts")
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	return c.JSON(http.StatusOK, posts)
}

// GET /api/story/:slug — reads one story and bumps its view counter.
func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Repo.GetPostBySlug(c.Param("slug"))
	if err != nil {
		return a.writeRepoError(c, err, "Failed to fetch post")
	}
	return c.JSON(http.StatusOK, post)
}

// POST /api/blog/:id/like
func (a *App) handleLikePost(c echo.Context) error {
	if err := a.Repo.LikePost(c.Param("id")); err != nil {
		return a.writeRepoError(c, err, "Failed to like post")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Post liked"})
}

// GET /api/tags/:tag
func (a *App) handlePostsByTag(c echo.Context) error {
	posts, err := a.Repo.GetPostsByTag(c.Param("tag"))
	if err != nil {
		return a.writeRepoError(c, err, "Failed to fetch posts by tag")
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	return c.JSON(http.StatusOK, posts)
}

// GET /api/tags?tag= — posts by tag when tag is present, all tags otherwise.
func (a *App) handleTags(c echo.Context) error {
	if tag := c.QueryParam("tag"); tag != "" {
		posts, err := a.Repo.GetPostsByTag(tag)
		if err != nil {
			return a.writeRepoError(c, err, "Failed to fetch posts by tag")
		}
		if posts == nil {
			posts = []BlogPost{}
		}
		return c.JSON(http.StatusOK, posts)
	}
	return a.handleListTags(c)
}

// handleRobots generates robots.txt dynamically from the canonical URL.
func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK,
		"User-agent: *\nAllow: /\n\nSitemap: "+a.Config.URL+"/sitemap.xml\n")
}
