package folio

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gloanda/folio/analytics"
	"github.com/gloanda/folio/views"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 366
)

func (a *App) setupAnalytics() error {
	if a.Config.DisableAnalytics {
		return nil
	}
	store, err := analytics.NewStore(a.Config.AnalyticsPath)
	if err != nil {
		return err
	}
	host := ""
	if u, err := url.Parse(a.Config.URL); err == nil {
		host = u.Hostname()
	}
	rec, err := analytics.NewRecorder(context.Background(), store, a.Logger, analytics.RecorderConfig{
		Skipper:   skipAnalytics,
		OwnHost:   host,
		Retention: a.Config.AnalyticsRetention,
	})
	if err != nil {
		store.Close()
		return err
	}
	a.Analytics = store
	a.recorder = rec
	return nil
}

// skipAnalytics leaves out the dashboard, assets, generated documents and
// HTMX fragments, which are part of a page already counted.
func skipAnalytics(c echo.Context) bool {
	path := c.Request().URL.Path
	return strings.HasPrefix(path, "/admin") ||
		strings.HasPrefix(path, "/public/") ||
		rootFiles[path] ||
		isHTMX(c)
}

// parseStatsDays reads the ?days= window, falling back to the default for
// anything missing or out of range.
func parseStatsDays(raw string) int {
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxStatsDays {
		return defaultStatsDays
	}
	return days
}

func (a *App) handleAdminAnalytics(c echo.Context) error {
	if a.Analytics == nil {
		return Render(c, views.AdminAnalytics(nil, 0))
	}
	days := parseStatsDays(c.QueryParam("days"))
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	stats, err := a.Analytics.Stats(c.Request().Context(), from, to.Add(time.Second))
	if err != nil {
		return err
	}
	return Render(c, views.AdminAnalytics(&stats, days))
}
