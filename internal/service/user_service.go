package service

import (
	"context"
	"fmt"

	"github.com/digkill/thumblify/internal/models"
)

// UserService backs the operator surface.
type UserService struct {
	users  UserStore
	thumbs ThumbnailStore
}

func NewUserService(users UserStore, thumbs ThumbnailStore) *UserService {
	return &UserService{users: users, thumbs: thumbs}
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// AdjustCredits applies delta and returns the updated user. The balance
// never drops below zero.
func (s *UserService) AdjustCredits(ctx context.Context, userID string, delta int) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.users.AdjustCredits(ctx, userID, delta); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

func (s *UserService) Thumbnails(ctx context.Context, userID string) ([]models.Thumbnail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.thumbs.ListByUser(ctx, userID)
}
