package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/digkill/thumblify/internal/models"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *ThumbnailRepository, *PaymentRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return mock, NewThumbnailRepository(db), NewPaymentRepository(db)
}

func sqlFragment(s string) string {
	return regexp.QuoteMeta(s)
}

func pendingThumbnail() *models.Thumbnail {
	return &models.Thumbnail{
		ID:          "t1",
		UserID:      "u1",
		Title:       "I tried 100 coffee shops",
		PromptUsed:  "Create a bold graphic thumbnail",
		Style:       models.StyleBoldGraphic,
		AspectRatio: "16:9",
		ColorScheme: models.ColorNeon,
		TextOverlay: true,
	}
}

func TestReserveDebitsAndInserts(t *testing.T) {
	mock, thumbs, _ := newMock(t)
	thumb := pendingThumbnail()

	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("SET credit_balance = credit_balance - 1, updated_at = NOW() WHERE id = ? AND credit_balance > 0")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlFragment("INSERT INTO thumbnails")).
		WithArgs("t1", "u1", thumb.Title, "", thumb.PromptUsed, thumb.Style, "16:9", thumb.ColorScheme, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := thumbs.Reserve(context.Background(), thumb)
	if err != nil || !ok {
		t.Fatalf("reserve: %v %v", ok, err)
	}
	if !thumb.IsGenerating {
		t.Fatal("reserved thumbnail should be generating")
	}
}

func TestReserveWithoutCreditWritesNothing(t *testing.T) {
	mock, thumbs, _ := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("WHERE id = ? AND credit_balance > 0")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ok, err := thumbs.Reserve(context.Background(), pendingThumbnail())
	if err != nil || ok {
		t.Fatalf("expected rejection, got %v %v", ok, err)
	}
}

func TestReserveRollsBackWhenInsertFails(t *testing.T) {
	mock, thumbs, _ := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("AND credit_balance > 0")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlFragment("INSERT INTO thumbnails")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if ok, err := thumbs.Reserve(context.Background(), pendingThumbnail()); err == nil || ok {
		t.Fatalf("expected error, got %v %v", ok, err)
	}
}

func TestFailRefundsOnce(t *testing.T) {
	mock, thumbs, _ := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("SET is_generating = 0, error_message = ? WHERE id = ? AND user_id = ? AND is_generating = 1")).
		WithArgs("generation failed", "t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlFragment("SET credit_balance = credit_balance + 1, updated_at = NOW() WHERE id = ?")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// The record already left the generating state: no refund.
	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("AND is_generating = 1")).
		WithArgs("generation failed", "t1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := thumbs.Fail(ctx, "t1", "u1", "generation failed"); err != nil {
		t.Fatalf("first fail: %v", err)
	}
	if err := thumbs.Fail(ctx, "t1", "u1", "generation failed"); err != nil {
		t.Fatalf("second fail: %v", err)
	}
}

func TestCompleteRequiresGeneratingRecord(t *testing.T) {
	mock, thumbs, _ := newMock(t)

	mock.ExpectExec(sqlFragment("WHERE id = ? AND is_generating = 1")).
		WithArgs("https://cdn.example.com/a.webp", "a.webp", "t1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := thumbs.Complete(context.Background(), "t1", "https://cdn.example.com/a.webp", "a.webp"); err == nil {
		t.Fatal("expected error for a record that is not generating")
	}
}

func TestMarkPaidCreditsOnce(t *testing.T) {
	mock, _, payments := newMock(t)
	ctx := context.Background()
	payment := &models.Payment{ID: "p1", UserID: "u1", Plan: models.PlanPro, ProviderOrderID: "order_1"}

	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("UPDATE payments SET status = ?, provider_payment_id = ?, updated_at = NOW() WHERE id = ? AND status <> ?")).
		WithArgs(models.PaymentStatusPaid, "pay_1", "p1", models.PaymentStatusPaid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlFragment("SET credit_balance = credit_balance + ?, plan = ?, updated_at = NOW() WHERE id = ?")).
		WithArgs(50, models.PlanPro, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Replayed callback: the status guard matches nothing, so no credit.
	mock.ExpectBegin()
	mock.ExpectExec(sqlFragment("AND status <> ?")).
		WithArgs(models.PaymentStatusPaid, "pay_1", "p1", models.PaymentStatusPaid).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	credited, err := payments.MarkPaid(ctx, payment, "pay_1", 50)
	if err != nil || !credited {
		t.Fatalf("first mark paid: %v %v", credited, err)
	}
	credited, err = payments.MarkPaid(ctx, payment, "pay_1", 50)
	if err != nil || credited {
		t.Fatalf("replay should not credit: %v %v", credited, err)
	}
}
