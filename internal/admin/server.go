package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/service"
)

type UserAdmin interface {
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	AdjustCredits(ctx context.Context, userID string, delta int) (*models.User, error)
	Thumbnails(ctx context.Context, userID string) ([]models.Thumbnail, error)
}

type PlanCatalogue interface {
	List() []models.Plan
}

type Server struct {
	addr     string
	username string
	password string
	log      *slog.Logger
	users    UserAdmin
	plans    PlanCatalogue
	router   *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, users UserAdmin, plans PlanCatalogue) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		username: username,
		password: password,
		log:      log,
		users:    users,
		plans:    plans,
		router:   r,
	}
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Get("/plans", s.handleListPlans)
		protected.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/{id}/credits", s.handleAdjustCredits)
			r.Get("/{id}/thumbnails", s.handleUserThumbnails)
		})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin shutdown error", "err", err)
		}
	}()

	s.log.Info("admin panel listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin listen: %w", err)
	}
	return nil
}

func (s *Server) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.plans.List())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}
	users, err := s.users.List(r.Context(), limit, offset)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

type creditsRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleAdjustCredits(w http.ResponseWriter, r *http.Request) {
	var req creditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Delta == 0 {
		http.Error(w, "delta must be non-zero", http.StatusBadRequest)
		return
	}
	userID := chi.URLParam(r, "id")
	user, err := s.users.AdjustCredits(r.Context(), userID, req.Delta)
	if errors.Is(err, service.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.log.Info("credits adjusted", "user_id", userID, "delta", req.Delta, "balance", user.CreditBalance)
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserThumbnails(w http.ResponseWriter, r *http.Request) {
	thumbs, err := s.users.Thumbnails(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, thumbs)
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || s.username == "" ||
				subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="thumblify"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("admin handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}
