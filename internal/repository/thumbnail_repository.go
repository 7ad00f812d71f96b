package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/thumblify/internal/models"
)

const thumbnailColumns = `
id, user_id, title, COALESCE(user_prompt, ''), COALESCE(prompt_used, ''), style, aspect_ratio,
COALESCE(color_scheme, ''), text_overlay, is_generating, COALESCE(image_url, ''), COALESCE(image_key, ''),
COALESCE(error_message, ''), created_at, updated_at`

type ThumbnailRepository struct {
	db *sql.DB
}

func NewThumbnailRepository(db *sql.DB) *ThumbnailRepository {
	return &ThumbnailRepository{db: db}
}

// Reserve debits one credit from the owner and inserts the provisional
// record in a single transaction. It returns false, with nothing written,
// when the owner has no credit left.
func (r *ThumbnailRepository) Reserve(ctx context.Context, thumb *models.Thumbnail) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE users SET credit_balance = credit_balance - 1, updated_at = NOW()
WHERE id = ? AND credit_balance > 0`, thumb.UserID)
	if err != nil {
		return false, fmt.Errorf("debit credit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	const insert = `
INSERT INTO thumbnails (id, user_id, title, user_prompt, prompt_used, style, aspect_ratio, color_scheme, text_overlay, is_generating)
VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, 1)`
	if _, err := tx.ExecContext(ctx, insert, thumb.ID, thumb.UserID, thumb.Title, thumb.UserPrompt, thumb.PromptUsed,
		thumb.Style, thumb.AspectRatio, thumb.ColorScheme, thumb.TextOverlay); err != nil {
		return false, fmt.Errorf("insert thumbnail: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reserve tx: %w", err)
	}
	thumb.IsGenerating = true
	return true, nil
}

func (r *ThumbnailRepository) Complete(ctx context.Context, id, imageURL, imageKey string) error {
	const query = `
UPDATE thumbnails SET is_generating = 0, image_url = ?, image_key = ?, error_message = NULL
WHERE id = ? AND is_generating = 1`
	res, err := r.db.ExecContext(ctx, query, imageURL, imageKey, id)
	if err != nil {
		return fmt.Errorf("complete thumbnail: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("thumbnail %s is not generating", id)
	}
	return nil
}

// Fail marks a generating record as failed and refunds its credit. Records
// that already left the generating state are untouched, so the refund
// happens at most once.
func (r *ThumbnailRepository) Fail(ctx context.Context, id, userID, reason string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE thumbnails SET is_generating = 0, error_message = ?
WHERE id = ? AND user_id = ? AND is_generating = 1`, reason, id, userID)
	if err != nil {
		return fmt.Errorf("mark thumbnail failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fail rows affected: %w", err)
	}
	if affected == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET credit_balance = credit_balance + 1, updated_at = NOW() WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("refund credit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fail tx: %w", err)
	}
	return nil
}

func (r *ThumbnailRepository) ListByUser(ctx context.Context, userID string) ([]models.Thumbnail, error) {
	query := `SELECT ` + thumbnailColumns + ` FROM thumbnails WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list thumbnails: %w", err)
	}
	defer rows.Close()

	thumbs := make([]models.Thumbnail, 0)
	for rows.Next() {
		t, err := scanThumbnail(rows)
		if err != nil {
			return nil, err
		}
		thumbs = append(thumbs, *t)
	}
	return thumbs, rows.Err()
}

func (r *ThumbnailRepository) GetForUser(ctx context.Context, id, userID string) (*models.Thumbnail, error) {
	query := `SELECT ` + thumbnailColumns + ` FROM thumbnails WHERE id = ? AND user_id = ?`
	t, err := scanThumbnail(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// DeleteForUser removes the record if userID owns it and returns what was
// deleted, or nil when nothing matched.
func (r *ThumbnailRepository) DeleteForUser(ctx context.Context, id, userID string) (*models.Thumbnail, error) {
	existing, err := r.GetForUser(ctx, id, userID)
	if err != nil || existing == nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM thumbnails WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete thumbnail: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return existing, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThumbnail(row rowScanner) (*models.Thumbnail, error) {
	var t models.Thumbnail
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.UserPrompt, &t.PromptUsed, &t.Style, &t.AspectRatio,
		&t.ColorScheme, &t.TextOverlay, &t.IsGenerating, &t.ImageURL, &t.ImageKey,
		&t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan thumbnail: %w", err)
	}
	return &t, nil
}
