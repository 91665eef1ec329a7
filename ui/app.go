package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"agencywheel/internal"
	"agencywheel/internal/experiment"
	"agencywheel/ports"
)

// App is the HTTP surface of the experiment: participant-facing trial
// endpoints plus experimenter export endpoints.
type App struct {
	router   *chi.Mux
	svc      *experiment.Service
	workbook ports.WorkbookWriter
	logger   *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the HTTP application around the experiment service
func NewApp(svc *experiment.Service, workbook ports.WorkbookWriter, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	app := &App{
		router:   chi.NewRouter(),
		svc:      svc,
		workbook: workbook,
		logger:   logger,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/instructions", a.handleInstructions)
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", a.handleCreateSession)
		r.Get("/{sessionID}", a.handleGetSession)
		r.Get("/{sessionID}/trials/next", a.handleNextTrial)
		r.Post("/{sessionID}/trials/{ordinal}/response", a.handleRecordResponse)
		r.Get("/{sessionID}/wheels/{ordinal}", a.handleRenderWheels)
		r.Get("/{sessionID}/export", a.handleExport)
		r.Get("/{sessionID}/export.xlsx", a.handleExportWorkbook)
	})
}

// Router exposes the underlying handler, mainly for tests
func (a *App) Router() http.Handler {
	return a.router
}

// Run starts the HTTP server
func (a *App) Run(config Config) error {
	addr := ":" + config.Port
	a.logger.Info("experiment server listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
