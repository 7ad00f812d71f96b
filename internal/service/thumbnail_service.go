package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/replicate"
	"github.com/digkill/thumblify/internal/storage"
)

const (
	imageResolution      = "1 MP"
	imageOutputQuality   = 80
	imageSafetyTolerance = 2
	finalizeTimeout      = 10 * time.Second

	// FailureReason is what a failed record shows its owner. The cause
	// itself only goes to the log.
	FailureReason = "Thumbnail generation failed. Your credit has been refunded."
)

type GenerateRequest struct {
	Title       string
	Prompt      string
	Style       models.Style
	AspectRatio string
	ColorScheme models.ColorScheme
	TextOverlay bool
}

type ThumbnailService struct {
	log     *slog.Logger
	users   UserStore
	thumbs  ThumbnailStore
	images  ImageGenerator
	media   storage.MediaStore
	scratch ScratchSpace
	timeout time.Duration
	newID   func() string
}

func NewThumbnailService(log *slog.Logger, users UserStore, thumbs ThumbnailStore, images ImageGenerator, media storage.MediaStore, scratch ScratchSpace, timeout time.Duration) *ThumbnailService {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &ThumbnailService{
		log:     log,
		users:   users,
		thumbs:  thumbs,
		images:  images,
		media:   media,
		scratch: scratch,
		timeout: timeout,
		newID:   uuid.NewString,
	}
}

// Generate reserves a credit, renders the thumbnail and publishes it. When
// anything after the reservation fails the record is marked failed and the
// credit is returned.
func (s *ThumbnailService) Generate(ctx context.Context, userID string, req GenerateRequest) (*models.Thumbnail, error) {
	if !IsValidStyle(string(req.Style)) {
		return nil, ErrInvalidStyle
	}
	if req.AspectRatio == "" {
		req.AspectRatio = models.DefaultAspectRatio
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.CreditBalance <= 0 {
		return nil, ErrInsufficientCredits
	}

	thumb := &models.Thumbnail{
		ID:          s.newID(),
		UserID:      userID,
		Title:       req.Title,
		UserPrompt:  req.Prompt,
		PromptUsed:  BuildPrompt(req),
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		ColorScheme: req.ColorScheme,
		TextOverlay: req.TextOverlay,
	}
	reserved, err := s.thumbs.Reserve(ctx, thumb)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrInsufficientCredits
	}

	obj, err := s.render(ctx, thumb)
	if err != nil {
		s.fail(ctx, thumb, err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := s.thumbs.Complete(finalCtx, thumb.ID, obj.URL, obj.Key); err != nil {
		if delErr := s.media.Delete(finalCtx, obj.Key); delErr != nil {
			s.log.Warn("failed to delete orphaned object", "key", obj.Key, "err", delErr)
		}
		s.fail(ctx, thumb, err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	thumb.IsGenerating = false
	thumb.ImageURL = obj.URL
	thumb.ImageKey = obj.Key
	s.log.Info("thumbnail generated", "user_id", userID, "thumbnail_id", thumb.ID)
	return thumb, nil
}

func (s *ThumbnailService) render(ctx context.Context, thumb *models.Thumbnail) (storage.Object, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputURL, err := s.images.Generate(ctx, replicate.Input{
		Prompt:          thumb.PromptUsed,
		Resolution:      imageResolution,
		AspectRatio:     thumb.AspectRatio,
		OutputQuality:   imageOutputQuality,
		SafetyTolerance: imageSafetyTolerance,
	})
	if err != nil {
		return storage.Object{}, fmt.Errorf("generate image: %w", err)
	}

	img, err := s.images.Download(ctx, outputURL)
	if err != nil {
		return storage.Object{}, fmt.Errorf("download image: %w", err)
	}

	path, err := s.scratch.Write(thumb.ID, img.ContentType, img.Bytes)
	if err != nil {
		return storage.Object{}, err
	}
	defer func() {
		if err := s.scratch.Remove(path); err != nil {
			s.log.Warn("failed to remove scratch file", "path", path, "err", err)
		}
	}()

	obj, err := s.media.UploadFile(ctx, path, img.ContentType)
	if err != nil {
		return storage.Object{}, fmt.Errorf("upload image: %w", err)
	}
	return obj, nil
}

// fail runs on a context detached from the request so a disconnecting
// client cannot skip the refund.
func (s *ThumbnailService) fail(ctx context.Context, thumb *models.Thumbnail, cause error) {
	s.log.Error("thumbnail generation failed", "user_id", thumb.UserID, "thumbnail_id", thumb.ID, "err", cause)

	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := s.thumbs.Fail(failCtx, thumb.ID, thumb.UserID, FailureReason); err != nil {
		s.log.Error("failed to refund credit", "user_id", thumb.UserID, "thumbnail_id", thumb.ID, "err", err)
	}
}

func (s *ThumbnailService) List(ctx context.Context, userID string) ([]models.Thumbnail, error) {
	return s.thumbs.ListByUser(ctx, userID)
}

func (s *ThumbnailService) Get(ctx context.Context, userID, id string) (*models.Thumbnail, error) {
	thumb, err := s.thumbs.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if thumb == nil {
		return nil, ErrThumbnailNotFound
	}
	return thumb, nil
}

// Delete removes the record and, best effort, its stored image.
func (s *ThumbnailService) Delete(ctx context.Context, userID, id string) error {
	thumb, err := s.thumbs.DeleteForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if thumb == nil {
		return ErrThumbnailNotFound
	}
	if thumb.ImageKey != "" {
		if err := s.media.Delete(ctx, thumb.ImageKey); err != nil {
			s.log.Warn("failed to delete stored image", "thumbnail_id", id, "key", thumb.ImageKey, "err", err)
		}
	}
	return nil
}
