package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"colectas/internal/log"
	"colectas/internal/metrics"
	"colectas/internal/middleware/ratelimit"
	"colectas/internal/middleware/security"
	"colectas/internal/middleware/trace"
	"colectas/internal/services"
	"colectas/internal/session"
)

// Deps are the collaborators the API is built from. Clubs, Reports and
// Issuer are required.
type Deps struct {
	Clubs   *services.ClubService
	Reports *services.ReportService
	Issuer  *session.Issuer
	Metrics *metrics.Metrics
	Logger  *log.Logger

	RateLimitPerMinute int
	TrustedProxies     []string

	// Checks are run by /readyz; any error marks the service unready.
	Checks map[string]func(context.Context) error
}

type Server struct {
	http.Server
	clubs    *services.ClubService
	reports  *services.ReportService
	issuer   *session.Issuer
	metrics  *metrics.Metrics
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	checks   map[string]func(context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		clubs:    deps.Clubs,
		reports:  deps.Reports,
		issuer:   deps.Issuer,
		metrics:  deps.Metrics,
		logger:   logger.WithComponent(log.ComponentHTTP),
		detector: security.NewDetector(logger),
		checks:   deps.Checks,
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	limitCfg := ratelimit.DefaultConfig()
	limitCfg.Logger = logger
	if deps.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}
	if s.metrics != nil {
		limitCfg.OnLimit = s.metrics.RateLimited.Inc
	}
	s.limiter = ratelimit.NewLimiter(limitCfg)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	h = writesOnly(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	}))(h)
	h = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(h)
	h = security.NoStore(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /public/clubs/{club}/colectas/{id}", s.handlePublicColecta)

	colectasResource(s.clubs).register(mux, s)
	aportesResource(s.clubs).register(mux, s)
	gastosResource(s.clubs).register(mux, s)
	ingresosResource(s.clubs).register(mux, s)
	deudasResource(s.clubs).register(mux, s)
	miembrosResource(s.clubs).register(mux, s)
	usuariosResource(s.clubs).register(mux, s)

	mux.Handle("GET /api/colectas/{id}/resumen", s.api(s.handleColectaResumen))
	mux.Handle("POST /api/deudas/{id}/pagos", s.api(s.handleRegistrarPago))
	mux.Handle("GET /api/deudas/{id}/pagos", s.api(s.handleListPagos))
	mux.Handle("GET /api/dashboard", s.api(s.handleDashboard))
	mux.Handle("GET /api/auditoria", s.api(s.handleAudit))

	mux.Handle("GET /api/export/{file}", s.api(s.handleExportCSV))
	mux.Handle("POST /api/export/{entity}/sheets", s.api(s.handleExportSheets))
	mux.Handle("GET /api/export/{entity}/sheets", s.api(s.handleReadSheets))
	mux.Handle("GET /api/reportes/club.pdf", s.api(s.handleReportPDF))
}

// apiHandler is a handler that runs with an authenticated session.
type apiHandler func(http.ResponseWriter, *http.Request, session.Session)

// api authenticates the request and passes the session explicitly.
func (s *Server) api(h apiHandler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).WithClub(sess.ClubID).With(log.FieldUserID, sess.UserID))
		h(w, r.WithContext(ctx), sess)
	})
	return s.issuer.Middleware(s.writeError)(inner)
}

// writesOnly applies limit to state-changing requests.
func writesOnly(limit func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				limited.ServeHTTP(w, r)
			}
		})
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReady runs every readiness check with a short timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "checks", failed)
		NewResponse().Status(http.StatusServiceUnavailable).
			JSON(map[string]any{"status": "unavailable", "failed": failed}).Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
