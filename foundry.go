// Package foundry is the specimen studio server: staff sign in, create type
// specimens, lay out their pages on a zoomable workspace and edit cell text
// in place. Built with Go, Echo, and templ.
//
// Callers provide their own templ templates via the ViewFuncs struct, and
// foundry handles the handler logic, middleware, workspace sessions and
// database operations.
package foundry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/foundry/catalog"
	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/layout"
	"github.com/eringen/foundry/workspace"
)

// ViewFuncs holds the templ components the server calls when rendering
// pages. Fragment views are swapped in by htmx.
type ViewFuncs struct {
	Login            func(showError bool, csrfToken string) templ.Component
	Dashboard        func(page DashboardPage) templ.Component
	Workspace        func(page WorkspacePage) templ.Component
	WorkspacePartial func(page WorkspacePage) templ.Component
	Toolbar          func(marks *editor.Marks) templ.Component
	Fonts            func(fonts []FontAsset, message string, csrfToken string) templ.Component
	Images           func(images []Image, csrfToken string) templ.Component
	Print            func(s layout.Specimen, body templ.Component) templ.Component
	NotFound         func() templ.Component
	ServerError      func() templ.Component
}

// App is the central foundry application. It wires together the store,
// caches, workspace hub, handlers, middleware, and templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *Store
	Studio  *StudioCache
	Hub     *workspace.Hub
	Catalog *catalog.Catalog
	Fonts   *FontRegistry
	Views   ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	ready        bool
}

// New creates a new foundry App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	a.Echo.Logger.SetLevel(a.Config.Level())

	return a
}

// Setup opens the store, loads the template catalog and registers
// middleware and routes. Start calls it; tests call it directly.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("foundry: init store: %w", err)
	}
	a.Store = store
	if err := a.Store.EnsureStudio(ctx, a.Config.StudioID, a.Config.StudioName); err != nil {
		return fmt.Errorf("foundry: init studio: %w", err)
	}

	cat, err := catalog.Builtin()
	if err != nil {
		return fmt.Errorf("foundry: load templates: %w", err)
	}
	a.Catalog = cat

	a.Studio = NewStudioCache(a.Store, a.Config.StudioID, a.Config.StudioCacheTTL)
	a.Fonts = NewFontRegistry(a.fontDir(), a.Echo.Logger)
	a.Hub = workspace.NewHub(a.Config.WorkspaceTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(context.Background()); err != nil {
		return err
	}
	a.Echo.Logger.Infof("foundry: listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets (workspace.js, studio.css) fall through to the
	// static dir, which also carries htmx.min.js.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/workspace.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/studio.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.Config.StaticDir)
	e.Static("/fonts", a.fontDir())
	e.Static("/uploads", a.uploadDir())

	e.GET("/", a.handleHome)
	e.POST("/login/", a.handleLogin)
	e.POST("/logout/", handleLogout)

	s := e.Group("/studio", requireStaff)
	s.GET("/", a.handleDashboard)
	s.POST("/specimens", a.handleSpecimenCreate)
	s.DELETE("/specimens/:id", a.handleSpecimenDelete)

	s.GET("/fonts/", a.handleFontList)
	s.POST("/fonts", a.handleFontUpload)
	s.DELETE("/fonts/:id", a.handleFontDelete)
	s.GET("/images/", a.handleImageList)
	s.POST("/images", a.handleImageUpload)
	s.DELETE("/images/:filename", a.handleImageDelete)

	w := s.Group("/specimens/:id")
	w.GET("/", a.handleWorkspace)
	w.GET("/print/", a.handlePrint)
	w.POST("/view", a.handleView)
	w.POST("/settings", a.handleSettings)

	w.POST("/cells/select", a.handleCellSelect)
	w.POST("/cells/clear", a.handleCellClear)
	w.POST("/cells/save", a.handleCellSave)
	w.POST("/cells/marks", a.handleCellMarks)
	w.POST("/cells/format", a.handleCellFormat)
	w.POST("/cells/markdown", a.handleCellMarkdown)
	w.POST("/cells/style", a.handleCellStyle)

	w.POST("/pages", a.handlePageAdd)
	w.POST("/pages/order", a.handlePageOrder)
	w.POST("/pages/:page/rename", a.handlePageRename)
	w.POST("/pages/:page/delete", a.handlePageDelete)
	w.POST("/pages/:page/template", a.handlePageTemplate)
	w.POST("/pages/:page/grid", a.handlePageGrid)
	w.POST("/pages/:page/margins", a.handlePageMargins)
	w.POST("/pages/:page/background", a.handlePageBackground)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
