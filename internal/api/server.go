// Package api implements the HTTP layer for the burnout detector.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nyashahama/burnout-detector-backend/internal/advisor"
	"github.com/nyashahama/burnout-detector-backend/internal/auth"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/email"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// AllowedOrigins is the CORS allow-list used in production. Outside
	// production every origin is allowed.
	AllowedOrigins []string

	// HRAlertEmail receives high-risk alerts. Empty disables them.
	HRAlertEmail string

	// RecentWindow is the look-back for the "recent tests" statistic.
	RecentWindow time.Duration
}

// Store is the subset of *store.Store the handlers call. Tests inject a stub.
type Store interface {
	LoginOrRegister(ctx context.Context, p store.LoginParams) (store.LoginResult, error)
	SaveProfile(ctx context.Context, p store.ProfileParams) (db.User, error)
	SetNotifications(ctx context.Context, employeeID string, enabled bool) (db.User, error)
	SubmitTestResult(ctx context.Context, p store.SubmitTestResultParams) (db.TestResult, error)
	LatestResult(ctx context.Context, employeeID string) (db.TestResult, error)
	EmployeeHistories(ctx context.Context) ([]stats.EmployeeHistory, error)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all single-query reads. Injected directly, no repo wrapper.
	q db.Querier

	// store handles multi-step atomic writes and the rollup snapshot.
	store Store

	// tokens signs and verifies bearer tokens.
	tokens *auth.Issuer

	// advisor answers chat messages.
	advisor advisor.Advisor

	// mailer sends the HR high-risk alert.
	mailer email.Sender

	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to an http.Server.
func NewServer(
	q db.Querier,
	st Store,
	tokens *auth.Issuer,
	adv advisor.Advisor,
	mailer email.Sender,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 7 * 24 * time.Hour
	}
	s := &Server{
		q:       q,
		store:   st,
		tokens:  tokens,
		advisor: adv,
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.secureHeaders())
	r.Use(cors.Handler(s.corsOptions()))
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {

		// Public.
		r.Post("/login", s.handleLogin)
		r.Get("/questions", s.handleQuestions)

		// Employee routes: own data or admin.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/users/{employeeID}", func(r chi.Router) {
				r.Use(s.requireSelfOrAdmin)
				r.Get("/", s.handleGetUser)
				r.Put("/test-info", s.handleUpdateTestInfo)
				r.Get("/gamification", s.handleGamification)
			})

			// employee_id is in the body; the handlers authorize it.
			r.Post("/test-results", s.handleSubmitTestResult)
			r.Post("/chatbot/response", s.handleChatbotResponse)

			r.Route("/test-results/{employeeID}", func(r chi.Router) {
				r.Use(s.requireSelfOrAdmin)
				r.Get("/latest", s.handleLatestResult)
				r.Get("/history", s.handleHistory)
			})

			r.With(s.requireSelfOrAdmin).Get("/chat-messages/{employeeID}", s.handleChatMessages)

			// HR.
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/users", s.handleSaveProfile)
				r.Get("/hr/employees", s.handleEmployees)
				r.Get("/hr/risk-distribution", s.handleRiskDistribution)
				r.Get("/hr/statistics", s.handleStatistics)
				r.Get("/hr/departments", s.handleDepartments)
				r.Get("/hr/dashboard", s.handleDashboard)
			})
		})
	})

	return r
}

func (s *Server) corsOptions() cors.Options {
	o := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}
	if s.cfg.Env == "production" {
		o.AllowedOrigins = s.cfg.AllowedOrigins
	} else {
		o.AllowedOrigins = []string{"*"}
	}
	return o
}
