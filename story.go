package storysite

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/mareta/storysite/markdown"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// GET /story/:slug — the server-rendered article page.
func (a *App) handleStoryPage(c echo.Context) error {
	post, err := a.Repo.GetPostBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, notFoundPage())
		}
		return err
	}
	prefs := readPreferences(c)
	return Render(c, a.storyPage(*post, prefs))
}

func (a *App) storyPage(post BlogPost, prefs Preferences) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := html.EscapeString(post.Title)
		fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"%s\" class=\"%s\"><head>", prefs.Language, html.EscapeString(prefs.Theme))
		fmt.Fprintf(w, "<meta charset=\"utf-8\"/><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"/>")
		fmt.Fprintf(w, "<title>%s | %s</title>", title, html.EscapeString(a.Config.Name))
		fmt.Fprintf(w, "<meta name=\"description\" content=\"%s\"/>", html.EscapeString(post.Excerpt))
		fmt.Fprintf(w, "<link rel=\"canonical\" href=\"%s\"/>", BuildURL(a.Config.URL, "story", post.Slug))
		fmt.Fprintf(w, "<link rel=\"stylesheet\" href=\"/public/site.css\"/>")
		fmt.Fprintf(w, "<script type=\"application/ld+json\">%s</script>", BlogPostingJsonLD(post, a.Config))
		fmt.Fprintf(w, "</head><body><article>")
		fmt.Fprintf(w, "<header><h1>%s</h1>", title)
		fmt.Fprintf(w, "<p class=\"meta\">%s · %s · %d min read</p>",
			html.EscapeString(post.Author), post.PublishedAt.Format("2 January 2006"), post.ReadingTime)
		fmt.Fprintf(w, "<p class=\"tags\">")
		for i, tag := range post.Tags {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "<a href=\"/api/tags/%s\">#%s</a>", html.EscapeString(tag), html.EscapeString(tag))
		}
		fmt.Fprintf(w, "</p></header><section class=\"content\">")
		if err := markdown.Component(post.Content).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "</section></article></body></html>")
		return err
	})
}

func notFoundPage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"/>"+
			"<title>Story not found</title></head><body><h1>Story not found</h1>"+
			"<p>The story you are looking for does not exist or was removed.</p>"+
			"<p><a href=\"/\">Back to all stories</a></p></body></html>")
		return err
	})
}
