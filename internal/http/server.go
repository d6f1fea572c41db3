package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"salesdash/internal/cache"
	"salesdash/internal/log"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/services"
	"salesdash/internal/session"
	"salesdash/internal/table"
	appweb "salesdash/web"
)

// Options tunes the server. Zero values fall back to the defaults below.
type Options struct {
	PageSize           int
	DisplayMonths      int
	SessionTTL         time.Duration
	SessionMax         int
	RateLimitPerMinute int // 0 disables rate limiting
	SecureCookie       bool
	CleanupInterval    time.Duration
	Logger             *log.Logger
	Events             *services.EventService
}

const (
	defaultDisplayMonths   = 6
	defaultSessionTTL      = 30 * time.Minute
	defaultSessionMax      = 1000
	defaultCleanupInterval = time.Minute
)

type Server struct {
	http.Server
	templates *template.Template
	dash      *services.Dashboard
	columns   []table.Column
	pageSize  int

	sessions *session.Store
	events   *services.EventService
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, dash *services.Dashboard, opts Options) *Server {
	opts = withDefaults(opts)
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	var sessOpts []session.Option
	if opts.SecureCookie {
		sessOpts = append(sessOpts, session.WithSecureCookie())
	}

	s := &Server{
		dash:     dash,
		columns:  table.Columns(dash.Table, opts.DisplayMonths),
		pageSize: opts.PageSize,
		sessions: session.NewStore(dash.Controller, opts.SessionMax, opts.SessionTTL, sessOpts...),
		events:   opts.Events,
		caches:   cache.NewManager(logger.Logger),
		detector: security.NewDetector(),
		logger:   logger,
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	s.caches.Register("sessions", s.sessions.Cache())
	s.caches.StartCleanup(opts.CleanupInterval)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func withDefaults(opts Options) Options {
	if opts.PageSize <= 0 {
		opts.PageSize = table.DefaultPageSize
	}
	if opts.DisplayMonths <= 0 {
		opts.DisplayMonths = defaultDisplayMonths
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.SessionMax <= 0 {
		opts.SessionMax = defaultSessionMax
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Events == nil {
		opts.Events = services.NewEventService(nil)
	}
	return opts
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/", s.handleIndex)
	r.Get(pathExport, s.handleExport)

	r.Route("/ui", func(r chi.Router) {
		r.Get("/table", s.handleTable)
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware(s.detector.ClientIP, s.onRateLimit))
			}
			r.Post("/checklist", s.handleChecklist)
			r.Post("/select-all", s.handleSelectAll)
		})
	})
	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server", log.FieldSessions, s.sessions.Len())
		s.caches.Stop()
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
		if err := s.events.Close(); err != nil {
			s.logger.Warn("Failed to close event publisher", log.FieldError, err)
		}
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once templates and data are in place.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil || s.dash == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
