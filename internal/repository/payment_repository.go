package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/thumblify/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	const query = `
INSERT INTO payments (id, user_id, plan, provider, provider_order_id, currency, amount, status, raw_payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, payment.ID, payment.UserID, payment.Plan, payment.Provider, payment.ProviderOrderID,
		payment.Currency, payment.Amount, payment.Status, payment.RawPayload); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByProviderOrder(ctx context.Context, provider, orderID string) (*models.Payment, error) {
	const query = `
SELECT id, user_id, plan, provider, provider_order_id, COALESCE(provider_payment_id, ''), currency, amount, status,
       COALESCE(raw_payload, ''), created_at, COALESCE(updated_at, created_at) as updated_at
FROM payments WHERE provider = ? AND provider_order_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, provider, orderID)
	var p models.Payment
	if err := row.Scan(&p.ID, &p.UserID, &p.Plan, &p.Provider, &p.ProviderOrderID, &p.ProviderPaymentID, &p.Currency,
		&p.Amount, &p.Status, &p.RawPayload, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

// MarkPaid flips the payment to paid and credits its owner in one
// transaction. It returns false when the payment was already paid, in which
// case nothing is credited.
func (r *PaymentRepository) MarkPaid(ctx context.Context, payment *models.Payment, providerPaymentID string, credits int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE payments SET status = ?, provider_payment_id = ?, updated_at = NOW()
WHERE id = ? AND status <> ?`, models.PaymentStatusPaid, providerPaymentID, payment.ID, models.PaymentStatusPaid)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE users SET credit_balance = credit_balance + ?, plan = ?, updated_at = NOW()
WHERE id = ?`, credits, payment.Plan, payment.UserID); err != nil {
		return false, fmt.Errorf("credit user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit payment tx: %w", err)
	}
	return true, nil
}
