package folio

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
	"github.com/gloanda/folio/views"
)

const (
	homePostCount    = 5
	homeProjectCount = 3
	maxQueryLen      = 200
)

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Cache.Recent(c.Request().Context(), homePostCount)
	if err != nil {
		return err
	}
	projects := a.Collections().Projects
	if len(projects) > homeProjectCount {
		projects = projects[:homeProjectCount]
	}
	return Render(c, views.Home(a.Config.URL, posts, projects))
}

func (a *App) handleBlog(c echo.Context) error {
	ctx := c.Request().Context()
	tag := strings.TrimSpace(c.QueryParam("tag"))
	posts, err := a.Cache.ListPosts(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	if isHTMX(c) && c.QueryParam("partial") == "list" {
		return Render(c, views.BlogList(posts, tag, tags))
	}
	return Render(c, views.BlogIndex(a.Config.URL, posts, tag, tags))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.GetPost(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	return Render(c, views.Post(a.Config.URL, post, posts))
}

// handleCollection serves one of the entry-backed pages. entries is read on
// every request so a reloaded collections file shows up without a restart.
func (a *App) handleCollection(route string, page func() consts.Page, entries func() []content.Entry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return Render(c, views.Collection(a.Config.URL, route, page(), entries()))
	}
}

func (a *App) handleSearch(c echo.Context) error {
	q := truncateUTF8(strings.ToValidUTF8(strings.TrimSpace(c.QueryParam("q")), ""), maxQueryLen)
	var (
		posts    []content.BlogPost
		projects []content.Entry
	)
	if q != "" {
		var err error
		posts, err = a.Cache.Search(c.Request().Context(), q)
		if err != nil {
			return err
		}
		projects = a.Collections().Search(q)
	}
	return Render(c, views.Search(a.Config.URL, q, posts, projects))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// handleRobots generates robots.txt pointing at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /search/\n\nSitemap: " + a.Config.URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		if rerr := RenderStatus(c, http.StatusNotFound, views.NotFound()); rerr != nil {
			a.Logger.Error("render not found page", zap.Error(rerr))
		}
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
		)
		if rerr := RenderStatus(c, code, views.ServerError()); rerr != nil {
			a.Logger.Error("render error page", zap.Error(rerr))
		}
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
