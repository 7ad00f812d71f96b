package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/repository"
)

type AuthService struct {
	users          UserStore
	defaultCredits int
	defaultPlan    models.PlanID
	hashCost       int
}

func NewAuthService(users UserStore, defaultCredits int, defaultPlan models.PlanID) *AuthService {
	if defaultPlan == "" {
		defaultPlan = models.PlanFree
	}
	return &AuthService{
		users:          users,
		defaultCredits: defaultCredits,
		defaultPlan:    defaultPlan,
		hashCost:       10,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	email = normalizeEmail(email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		Email:         email,
		PasswordHash:  string(hash),
		CreditBalance: s.defaultCredits,
		Plan:          s.defaultPlan,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
