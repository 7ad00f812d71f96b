package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/razorpay"
)

const providerRazorpay = "razorpay"

type PaymentService struct {
	log      *slog.Logger
	plans    *PlanService
	users    UserStore
	payments PaymentStore
	gateway  PaymentGateway
	currency string
	now      func() time.Time
	newID    func() string
}

func NewPaymentService(log *slog.Logger, plans *PlanService, users UserStore, payments PaymentStore, gateway PaymentGateway, currency string) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		log:      log,
		plans:    plans,
		users:    users,
		payments: payments,
		gateway:  gateway,
		currency: currency,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// OrderResult is nil-Order for free plans, which need no checkout.
type OrderResult struct {
	Order *razorpay.Order
	KeyID string
}

func (s *PaymentService) CreateOrder(ctx context.Context, userID, planID string) (*OrderResult, error) {
	plan, ok := s.plans.Get(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if plan.IsFree() {
		return &OrderResult{}, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   plan.AmountMinorUnits(),
		Currency: s.currency,
		Receipt:  receipt(userID, s.now()),
		Notes: map[string]string{
			"userId": userID,
			"planId": string(plan.ID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	raw, _ := json.Marshal(order)
	record := &models.Payment{
		ID:              s.newID(),
		UserID:          userID,
		Plan:            plan.ID,
		Provider:        providerRazorpay,
		ProviderOrderID: order.ID,
		Currency:        order.Currency,
		Amount:          order.Amount,
		Status:          models.PaymentStatusCreated,
		RawPayload:      string(raw),
	}
	if err := s.payments.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	s.log.Info("order created", "user_id", userID, "order_id", order.ID, "plan", plan.ID)
	return &OrderResult{Order: order, KeyID: s.gateway.KeyID()}, nil
}

type VerifyRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	PlanID    string
}

// VerifyPayment checks the checkout callback and credits the plan. It
// reports whether this call credited the account; a replayed callback
// succeeds without crediting again.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID string, req VerifyRequest) (bool, error) {
	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		return false, ErrInvalidSignature
	}
	plan, ok := s.plans.Get(req.PlanID)
	if !ok {
		return false, ErrInvalidPlan
	}

	payment, err := s.payments.FindByProviderOrder(ctx, providerRazorpay, req.OrderID)
	if err != nil {
		return false, err
	}
	if payment == nil {
		return false, ErrOrderNotFound
	}
	if payment.UserID != userID {
		return false, ErrOrderForbidden
	}
	if payment.Plan != plan.ID {
		return false, ErrPlanMismatch
	}

	credited, err := s.payments.MarkPaid(ctx, payment, req.PaymentID, plan.Credits)
	if err != nil {
		return false, err
	}
	if credited {
		s.log.Info("payment credited", "user_id", userID, "order_id", req.OrderID, "credits", plan.Credits)
	} else {
		s.log.Info("payment already processed", "user_id", userID, "order_id", req.OrderID)
	}
	return credited, nil
}

// receipt stays within the gateway's 40 character limit.
func receipt(userID string, now time.Time) string {
	tail := userID
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}
	return fmt.Sprintf("rec_%s_%d", tail, now.UnixMilli())
}
