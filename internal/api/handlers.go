package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/service"
	"github.com/digkill/thumblify/internal/session"
)

type publicUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toPublicUser(u *models.User) publicUser {
	return publicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,bcryptlen"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.deps.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Sessions.Start(r.Context(), w, r, user.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Account created successfully",
		"user":    toPublicUser(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Sessions.Start(r.Context(), w, r, user.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    toPublicUser(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.End(r.Context(), w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())
	user, err := s.deps.Auth.CurrentUser(r.Context(), userID)
	if errors.Is(err, service.ErrUserNotFound) {
		writeMessage(w, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type generateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Prompt      string `json:"prompt" validate:"max=1000"`
	Style       string `json:"style" validate:"required,thumbstyle"`
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,aspectratio"`
	ColorScheme string `json:"color_scheme" validate:"omitempty,colorscheme"`
	TextOverlay bool   `json:"text_overlay"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "invalid title")
		return
	}

	userID, _ := session.UserIDFromContext(r.Context())
	thumb, err := s.deps.Thumbnails.Generate(r.Context(), userID, service.GenerateRequest{
		Title:       req.Title,
		Prompt:      strings.TrimSpace(req.Prompt),
		Style:       models.Style(req.Style),
		AspectRatio: req.AspectRatio,
		ColorScheme: models.ColorScheme(req.ColorScheme),
		TextOverlay: req.TextOverlay,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Thumbnail generated successfully",
		"thumbnail": thumb,
	})
}

func (s *Server) handleListThumbnails(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())
	thumbs, err := s.deps.Thumbnails.List(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if thumbs == nil {
		thumbs = []models.Thumbnail{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"thumbnail": thumbs})
}

func (s *Server) handleGetThumbnail(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())
	thumb, err := s.deps.Thumbnails.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"thumbnail": thumb})
}

func (s *Server) handleDeleteThumbnail(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())
	if err := s.deps.Thumbnails.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Thumbnail delete successfully")
}

func (s *Server) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plans": s.deps.Plans.List()})
}

type createOrderRequest struct {
	PlanID string `json:"planId" validate:"required"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := s.decode(w, r, &req); err != nil {
		writePaymentError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := session.UserIDFromContext(r.Context())
	res, err := s.deps.Payments.CreateOrder(r.Context(), userID, req.PlanID)
	if err != nil {
		s.failPayment(w, r, err)
		return
	}
	if res.Order == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": nil, "amount": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   res.Order,
		"keyId":   res.KeyID,
	})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	PlanID    string `json:"planId" validate:"required"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := s.decode(w, r, &req); err != nil {
		writePaymentError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := session.UserIDFromContext(r.Context())
	if _, err := s.deps.Payments.VerifyPayment(r.Context(), userID, service.VerifyRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		PlanID:    req.PlanID,
	}); err != nil {
		s.failPayment(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Payment verified successfully"})
}

func (s *Server) failPayment(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("payment request failed", "path", r.URL.Path, "err", err)
		msg = "Payment request failed"
	}
	writePaymentError(w, status, msg)
}
