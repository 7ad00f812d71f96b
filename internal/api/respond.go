package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/digkill/thumblify/internal/service"
)

const (
	msgInternal    = "Internal server error"
	maxRequestBody = 1 << 20
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("thumbstyle", func(fl validator.FieldLevel) bool {
		return service.IsValidStyle(fl.Field().String())
	})
	_ = v.RegisterValidation("colorscheme", func(fl validator.FieldLevel) bool {
		return service.IsValidColorScheme(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= service.MaxPasswordBytes
	})
	_ = v.RegisterValidation("aspectratio", func(fl validator.FieldLevel) bool {
		return service.IsValidAspectRatio(fl.Field().String())
	})
	return v
}

// decode reads a JSON body into dst and validates it. The returned error
// is safe to show to the client.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid json body")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s", verrs[0].Field())
		}
		return errors.New("invalid request")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writePaymentError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

// errorStatus maps service errors to a status and client message. Anything
// unrecognized is a 500 with a generic message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidStyle):
		return http.StatusBadRequest, "Invalid style"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusForbidden, "Insufficient credits"
	case errors.Is(err, service.ErrThumbnailNotFound):
		return http.StatusNotFound, "Thumbnail not found"
	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusInternalServerError, "Failed to generate thumbnail"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid email or password"
	case errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password is too long"
	case errors.Is(err, service.ErrInvalidPlan):
		return http.StatusBadRequest, "Invalid plan"
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusBadRequest, "Order not found"
	case errors.Is(err, service.ErrOrderForbidden):
		return http.StatusForbidden, "Order does not belong to this account"
	case errors.Is(err, service.ErrPlanMismatch):
		return http.StatusBadRequest, "Plan does not match order"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeMessage(w, status, msg)
}
