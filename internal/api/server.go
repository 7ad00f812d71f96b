package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/ratelimit"
	"github.com/digkill/thumblify/internal/service"
	"github.com/digkill/thumblify/internal/session"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type ThumbnailService interface {
	Generate(ctx context.Context, userID string, req service.GenerateRequest) (*models.Thumbnail, error)
	List(ctx context.Context, userID string) ([]models.Thumbnail, error)
	Get(ctx context.Context, userID, id string) (*models.Thumbnail, error)
	Delete(ctx context.Context, userID, id string) error
}

type PaymentService interface {
	CreateOrder(ctx context.Context, userID, planID string) (*service.OrderResult, error)
	VerifyPayment(ctx context.Context, userID string, req service.VerifyRequest) (bool, error)
}

type PlanCatalogue interface {
	List() []models.Plan
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	TrustedProxies  []netip.Prefix
}

type Deps struct {
	Sessions        *session.Manager
	Auth            AuthService
	Thumbnails      ThumbnailService
	Payments        PaymentService
	Plans           PlanCatalogue
	AuthLimiter     ratelimit.Limiter
	GenerateLimiter ratelimit.Limiter
}

type Server struct {
	cfg      Config
	log      *slog.Logger
	deps     Deps
	validate *validator.Validate
	router   *chi.Mux
}

func NewServer(cfg Config, log *slog.Logger, deps Deps) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 4 * time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(cfg.TrustedProxies))
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.AllowedOrigins))

	s := &Server{
		cfg:      cfg,
		log:      log,
		deps:     deps,
		validate: newValidator(),
		router:   r,
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.limit(deps.AuthLimiter, clientIP)).Post("/register", s.handleRegister)
			r.With(s.limit(deps.AuthLimiter, clientIP)).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.With(s.requireSession).Get("/verify", s.handleVerify)
		})
		r.Route("/thumbnail", func(r chi.Router) {
			r.Use(s.requireSession)
			r.With(s.limit(deps.GenerateLimiter, sessionUser)).Post("/generate", s.handleGenerate)
			r.Delete("/delete/{id}", s.handleDeleteThumbnail)
		})
		r.Route("/user", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/thumbnails", s.handleListThumbnails)
			r.Get("/thumbnail/{id}", s.handleGetThumbnail)
		})
		r.Route("/payment", func(r chi.Router) {
			r.Get("/plans", s.handleListPlans)
			r.Group(func(r chi.Router) {
				r.Use(s.requireSession)
				r.Post("/create-order", s.handleCreateOrder)
				r.Post("/verify-payment", s.handleVerifyPayment)
			})
		})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("api shutdown error", "err", err)
		}
	}()

	s.log.Info("api listening", "addr", s.cfg.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
