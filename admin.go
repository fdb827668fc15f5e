package folio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gloanda/folio/content"
	"github.com/gloanda/folio/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminPost(c echo.Context) error {
	post, err := a.Store.GetPostAny(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	if isHTMX(c) {
		return Render(c, views.AdminFormPartial(post, CsrfToken(c)))
	}
	posts, err := a.Store.ListAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, views.AdminEdit(posts, post, CsrfToken(c)))
}

// handleAdminLogin checks the limiter first and only spends a token on a
// failed attempt, so the owner logging in repeatedly is never locked out.
func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		a.Logger.Warn("login rate limited", zap.String("ip", ip))
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		a.Logger.Info("admin login", zap.String("ip", ip))
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("failed admin login", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func adminRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := content.Slugify(c.FormValue("slug"))
	if slug == "" {
		slug = content.Slugify(title)
	}
	if slug == "" {
		return adminRedirect(c, "Slug is required. Add a title or slug.")
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return adminRedirect(c, "Invalid date format. Use YYYY-MM-DD.")
	}
	post := content.BlogPost{
		Slug:      slug,
		Title:     title,
		Date:      date,
		Tags:      content.SplitTags(c.FormValue("tags")),
		Summary:   strings.TrimSpace(c.FormValue("summary")),
		Content:   c.FormValue("content"),
		Published: c.FormValue("published") != "",
	}
	if err := a.Store.SavePost(c.Request().Context(), post); err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.Logger.Info("post saved", zap.String("slug", slug), zap.Bool("published", post.Published))
	return adminRedirect(c, "Saved "+slug+".")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	slug := c.Param("slug")
	if err := a.Store.DeletePost(c.Request().Context(), slug); err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.Logger.Info("post deleted", zap.String("slug", slug))
	if c.Request().Method == http.MethodPost {
		return adminRedirect(c, "Deleted "+slug+".")
	}
	return a.renderAdminDashboard(c, "Deleted "+slug+".")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, views.AdminDashboard(posts, msg, CsrfToken(c)))
}
