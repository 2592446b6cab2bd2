package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/backup"
	"github.com/Kauanrodrigues01/academy/internal/handler"
	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/middleware"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/store"
	ws "github.com/Kauanrodrigues01/academy/internal/websocket"
	"github.com/Kauanrodrigues01/academy/web"
)

const (
	authAttempts = 10
	authWindow   = time.Minute
	healthPing   = 2 * time.Second
)

type Config struct {
	BaseURL   string
	SecretKey string
	Location  *time.Location

	// MetricsToken, when set, serves /metrics to bearer-token scrapers
	// instead of signed-in staff.
	MetricsToken string
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	metrics      *metrics.Metrics
	backups      *backup.Manager
	sessionStore *store.SessionStore
	staffStore   *store.StaffStore
	rateLimiter  *middleware.RateLimiter
	origins      []string
	metricsToken string

	authH      *handler.AuthHandler
	dashboardH *handler.DashboardHandler
	memberH    *handler.MemberHandler
	paymentH   *handler.PaymentHandler
	reportH    *handler.ReportHandler
	backupH    *handler.BackupHandler

	logger *slog.Logger
}

func New(db *sql.DB, svc *service.Services, hub *ws.Hub, m *metrics.Metrics, backups *backup.Manager, mailer handler.ResetMailer, cfg Config, logger *slog.Logger) (*Server, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	views, err := handler.NewViews(cfg.Location, svc.Reports.Today, logger.With("component", "views"))
	if err != nil {
		return nil, err
	}

	staffStore := store.NewStaffStore(db)
	sessionStore := store.NewSessionStore(db)
	tokens := auth.NewResetTokens(cfg.SecretKey)

	return &Server{
		db:           db,
		hub:          hub,
		metrics:      m,
		backups:      backups,
		sessionStore: sessionStore,
		staffStore:   staffStore,
		rateLimiter:  middleware.NewRateLimiter(),
		origins:      []string{base.Host},
		metricsToken: cfg.MetricsToken,

		authH:      handler.NewAuthHandler(views, staffStore, sessionStore, tokens, mailer, cfg.BaseURL, logger.With("component", "auth")),
		dashboardH: handler.NewDashboardHandler(views, svc, logger.With("component", "dashboard")),
		memberH:    handler.NewMemberHandler(views, svc, logger.With("component", "member")),
		paymentH:   handler.NewPaymentHandler(views, svc, logger.With("component", "payment")),
		reportH:    handler.NewReportHandler(svc, logger.With("component", "report")),
		backupH:    handler.NewBackupHandler(views, backups, logger.With("component", "backup_page")),

		logger: logger,
	}, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler("login", s.authH.Login))
	outerMux.HandleFunc("GET /password-reset", s.authH.ResetRequestPage)
	outerMux.HandleFunc("POST /password-reset", s.rateLimitedHandler("reset", s.authH.ResetRequest))
	outerMux.HandleFunc("GET /password-reset/confirm", s.authH.ResetConfirmPage)
	outerMux.HandleFunc("POST /password-reset/confirm", s.rateLimitedHandler("reset-confirm", s.authH.ResetConfirm))
	outerMux.Handle("GET /static/", web.Static())
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	// The registry carries revenue and headcount, so it is never public.
	if s.metricsToken != "" {
		outerMux.Handle("GET /metrics", middleware.RequireBearer(s.metricsToken)(s.metrics.Handler()))
	} else {
		protectedMux.Handle("GET /metrics", s.metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.staffStore)
	outerMux.Handle("/", authMiddleware(s.metrics.Middleware(protectedMux)))

	h := s.metrics.Middleware(outerMux)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.RequestID(h)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backup   string `json:"backup"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPing)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Backup: string(s.backups.Status().State)}
	code := http.StatusOK
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check: database unreachable", "error", err)
		resp.Status, resp.Database = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) rateLimitedHandler(scope string, h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return scope + ":" + middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, authAttempts, authWindow)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Pages
	mux.HandleFunc("GET /", s.dashboardH.Dashboard)
	mux.HandleFunc("GET /finance", s.dashboardH.Finance)

	// Members
	mux.HandleFunc("GET /members", s.memberH.List)
	mux.HandleFunc("POST /members", s.memberH.Create)
	mux.HandleFunc("GET /members/{id}/edit", s.memberH.Edit)
	mux.HandleFunc("POST /members/{id}/edit", s.memberH.Update)
	mux.HandleFunc("POST /members/{id}/delete", s.memberH.Delete)

	// Payments
	mux.HandleFunc("GET /members/{id}/payments/new", s.paymentH.New)
	mux.HandleFunc("POST /members/{id}/payments", s.paymentH.Create)
	mux.HandleFunc("POST /payments/{id}/delete", s.paymentH.Delete)

	// Reports
	mux.HandleFunc("GET /reports/general.pdf", s.reportH.General)
	mux.HandleFunc("GET /reports/daily.pdf", s.reportH.Daily)

	// Backups (admin only)
	mux.Handle("GET /admin/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Page)))
	mux.Handle("POST /admin/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Run)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger, s.origins))
}
