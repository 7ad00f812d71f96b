package service

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrPasswordTooLong     = errors.New("password is too long")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidStyle        = errors.New("invalid style")
	ErrThumbnailNotFound   = errors.New("thumbnail not found")
	ErrGenerationFailed    = errors.New("failed to generate thumbnail")
	ErrInvalidPlan         = errors.New("invalid plan")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderForbidden      = errors.New("order belongs to another user")
	ErrPlanMismatch        = errors.New("plan does not match order")
)
