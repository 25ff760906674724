package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Services are the application services the handlers call.
type Services struct {
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Savings      *services.SavingService
	Reports      *services.ReportService
	Users        *services.UserService
	Sessions     *services.SessionService
	Resets       *services.PasswordResetService
}

// Options tune the transport. Zero values are usable.
type Options struct {
	Logger        *log.Logger
	Metrics       *metrics.Metrics // nil disables /metrics
	RateLimitRPM  int
	SecureCookies bool
	// Health reports whether the backing store answers.
	Health func(ctx context.Context) error
}

type Server struct {
	http.Server
	svc      Services
	opts     Options
	limiter  *ratelimit.Limiter
	detector *security.Detector
	now      func() time.Time
}

// NewServer wires the routes and the middleware chain:
// trace, security headers, scan detection, rate limit, metrics, routes.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:      svc,
		opts:     opts,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector: security.NewDetector(),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = opts.Metrics.Middleware(routeLabel)(handler)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	auth := s.requireAuth
	authScope := log.ComponentMiddleware(log.ComponentAuth)
	reportScope := log.ComponentMiddleware(log.ComponentReports)
	report := func(h http.HandlerFunc) http.Handler { return reportScope(auth(h)) }

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics.Handler())
	}

	mux.Handle("POST /api/auth/register", authScope(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/auth/login", authScope(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /api/auth/logout", authScope(http.HandlerFunc(s.handleLogout)))
	mux.Handle("POST /api/auth/password/forgot", authScope(http.HandlerFunc(s.handleForgotPassword)))
	mux.Handle("GET /api/auth/password/reset/{token}", authScope(http.HandlerFunc(s.handleValidateReset)))
	mux.Handle("POST /api/auth/password/reset/{token}", authScope(http.HandlerFunc(s.handleResetPassword)))

	mux.Handle("GET /api/profile", auth(s.handleGetProfile))
	mux.Handle("PUT /api/profile", auth(s.handleUpdateProfile))
	mux.Handle("DELETE /api/profile", auth(s.handleDeleteProfile))
	mux.Handle("POST /api/profile/password", auth(s.handleChangePassword))
	mux.Handle("GET /api/profile/stats", auth(s.handleProfileStats))
	mux.Handle("GET /api/profile/export", auth(s.handleExportAccount))

	mux.Handle("GET /api/transactions", auth(s.handleListTransactions))
	mux.Handle("POST /api/transactions", auth(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions/export", auth(s.handleExportTransactions))
	mux.Handle("GET /api/transactions/summary", report(s.handleSummary))
	mux.Handle("GET /api/transactions/{id}", auth(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", auth(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", auth(s.handleDeleteTransaction))

	mux.Handle("GET /api/charts/monthly", report(s.handleMonthlyChart))
	mux.Handle("GET /api/charts/trend", report(s.handleTrendChart))

	mux.Handle("GET /api/categories", auth(s.handleListCategories))
	mux.Handle("POST /api/categories", auth(s.handleCreateCategory))
	mux.Handle("GET /api/categories/analysis", report(s.handleCategoryAnalysis))
	mux.Handle("PUT /api/categories/{id}", auth(s.handleRenameCategory))
	mux.Handle("DELETE /api/categories/{id}", auth(s.handleDeleteCategory))

	mux.Handle("GET /api/budgets", auth(s.handleListBudgets))
	mux.Handle("POST /api/budgets", auth(s.handleCreateBudget))
	mux.Handle("GET /api/budgets/overview", auth(s.handleBudgetOverview))
	mux.Handle("GET /api/budgets/{id}", auth(s.handleGetBudget))
	mux.Handle("PUT /api/budgets/{id}", auth(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", auth(s.handleDeleteBudget))

	mux.Handle("GET /api/savings", auth(s.handleListSavings))
	mux.Handle("POST /api/savings", auth(s.handleCreateSaving))
	mux.Handle("GET /api/savings/summary", auth(s.handleSavingsSummary))
	mux.Handle("GET /api/savings/{id}", auth(s.handleGetSaving))
	mux.Handle("PUT /api/savings/{id}", auth(s.handleUpdateSaving))
	mux.Handle("DELETE /api/savings/{id}", auth(s.handleDeleteSaving))
	mux.Handle("POST /api/savings/{id}/add", auth(s.handleAddToSaving))
}

// routeLabel keeps metric cardinality bounded by labelling with the matched
// pattern instead of the raw path.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.opts.Metrics.RateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Health(ctx); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Health check failed", log.FieldError, err)
			NewResponse().Status(http.StatusServiceUnavailable).JSON(map[string]string{"status": "unavailable"}).Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
