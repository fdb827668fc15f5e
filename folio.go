// Package folio serves a personal portfolio and blog built with Echo and templ.
//
// The site's identity, page metadata, navigation and social links come from
// the consts package; posts live in SQLite and are edited from an admin
// dashboard; experiences, projects and certificates are read from a YAML
// collections file at startup and, with WatchCollections, whenever it changes.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gloanda/folio/analytics"
	"github.com/gloanda/folio/consts"
	"github.com/gloanda/folio/content"
)

// App wires together the store, cache, collections, middleware and routes.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *PostCache
	Logger    *zap.Logger
	Analytics *analytics.Store

	loginLimiter *LoginLimiter
	recorder     *analytics.Recorder
	collections  atomic.Pointer[content.Collections]
	customRoutes []func(*App)
	ownsStore    bool
	ready        bool
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup validates configuration and content, opens the store, loads the
// collections file and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("folio: config: %w", err)
	}
	if err := consts.Validate(); err != nil {
		return fmt.Errorf("folio: site content: %w", err)
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)

	collections, err := a.ReloadCollections()
	if err != nil {
		return fmt.Errorf("folio: load collections: %w", err)
	}

	a.loginLimiter = NewLoginLimiter(a.Config.LoginAttempts, a.Config.LoginWindow)

	if err := a.setupAnalytics(); err != nil {
		return fmt.Errorf("folio: init analytics: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.Logger.Info("site ready",
		zap.String("title", consts.Global().Title),
		zap.Int("experiences", len(collections.Experiences)),
		zap.Int("projects", len(collections.Projects)),
		zap.Int("certificates", len(collections.Certificates)),
	)
	a.ready = true
	return nil
}

// Start sets the App up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones up to the
// configured timeout, then releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Config.ShutdownTimeout)
	defer cancel()
	err := a.Echo.Shutdown(ctx)
	if err != nil {
		a.Logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := a.Echo.Close(); closeErr != nil {
			a.Logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
	return errors.Join(err, a.Close())
}

// Close flushes pending visits and releases the databases the App opened
// and the limiter.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	var errs []error
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.Analytics != nil {
		errs = append(errs, a.Analytics.Close())
	}
	if a.ownsStore && a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/site.css", serveEmbedded("site.css", "text/css; charset=utf-8"))
	e.Static("/public", a.Config.StaticDir)
	e.GET("/favicon.svg", serveEmbedded("favicon.svg", "image/svg+xml"))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/experiences/", a.handleCollection("experiences", consts.Experiences, func() []content.Entry { return a.Collections().Experiences }))
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/projects/", a.handleCollection("projects", consts.Projects, func() []content.Entry { return a.Collections().Projects }))
	e.GET("/certificates/", a.handleCollection("certificates", consts.Certificates, func() []content.Entry { return a.Collections().Certificates }))
	e.GET("/search/", a.handleSearch)

	admin := e.Group("/admin")
	admin.GET("/", a.handleAdmin)
	admin.POST("/login/", a.handleAdminLogin)
	admin.POST("/logout/", handleAdminLogout)
	admin.GET("/post/:slug/", a.handleAdminPost, requireAdmin)
	admin.POST("/save/", a.handleAdminSave, requireAdmin)
	admin.DELETE("/post/:slug/", a.handleAdminDelete, requireAdmin)
	admin.POST("/post/:slug/delete/", a.handleAdminDelete, requireAdmin)
	admin.GET("/analytics/", a.handleAdminAnalytics, requireAdmin)
	admin.GET("/images/", a.handleImageList, requireAdmin)
	admin.POST("/images/upload/", a.handleImageUpload, requireAdmin)
	admin.DELETE("/images/:filename/", a.handleImageDelete, requireAdmin)
	admin.POST("/images/:filename/delete/", a.handleImageDelete, requireAdmin)
}
