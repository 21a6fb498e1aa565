package main

import (
	"context"
	"net/http"
	"time"

	"github.com/dealflow/dealflow/internal/auth"
	"github.com/dealflow/dealflow/internal/handlers"
	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/logger"
	"github.com/dealflow/dealflow/internal/metrics"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	db       *gorm.DB
	sessions *auth.Manager
	store    storage.ObjectStore
	metrics  *metrics.Metrics
	log      *zap.Logger
	handler  http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, sessions *auth.Manager, store storage.ObjectStore, m *metrics.Metrics, log *zap.Logger) *App {
	app := &App{
		mux:      http.NewServeMux(),
		db:       db,
		sessions: sessions,
		store:    store,
		metrics:  m,
		log:      log,
	}
	app.setupRoutes()
	// outermost first: request logging, panic recovery, session, metrics
	app.handler = logger.Middleware(log)(recoverer(sessions.Middleware(m.Middleware(app.mux))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	users := services.NewUserService(a.db)
	clients := services.NewClientService(a.db)
	proposals := services.NewProposalService(a.db)
	templates := services.NewTemplateService(a.db)

	protect := handlers.Middleware(a.sessions.RequireAuth)

	// ─────────────────────────────────────────────────────────────────────────
	// Operational routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.metrics.Handler())

	// ─────────────────────────────────────────────────────────────────────────
	// Session routes (login, logout, registration, password)
	// ─────────────────────────────────────────────────────────────────────────
	handlers.NewAuthHandler(users, a.sessions, a.metrics).Register(a.mux, protect)

	// ─────────────────────────────────────────────────────────────────────────
	// Business routes (require authentication)
	// ─────────────────────────────────────────────────────────────────────────
	handlers.NewDashboardHandler(clients, proposals).Register(a.mux, protect)
	handlers.NewClientHandler(clients, proposals).Register(a.mux, protect)
	handlers.NewProposalHandler(proposals, clients, templates, a.store, a.metrics).Register(a.mux, protect)
	handlers.NewTemplateHandler(templates, a.store).Register(a.mux, protect)
	handlers.NewReportHandler(proposals, a.metrics).Register(a.mux, protect)
}

// healthz checks the database connection.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// recoverer turns a handler panic into a 500 and logs the stack.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Error("panic serving request",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
