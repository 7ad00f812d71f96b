package service

import (
	"context"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/razorpay"
	"github.com/digkill/thumblify/internal/replicate"
)

// The interfaces below are satisfied by the repository, replicate, razorpay
// and storage packages.

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	AdjustCredits(ctx context.Context, userID string, delta int) error
}

type ThumbnailStore interface {
	Reserve(ctx context.Context, thumb *models.Thumbnail) (bool, error)
	Complete(ctx context.Context, id, imageURL, imageKey string) error
	Fail(ctx context.Context, id, userID, reason string) error
	ListByUser(ctx context.Context, userID string) ([]models.Thumbnail, error)
	GetForUser(ctx context.Context, id, userID string) (*models.Thumbnail, error)
	DeleteForUser(ctx context.Context, id, userID string) (*models.Thumbnail, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByProviderOrder(ctx context.Context, provider, orderID string) (*models.Payment, error)
	MarkPaid(ctx context.Context, payment *models.Payment, providerPaymentID string, credits int) (bool, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, input replicate.Input) (string, error)
	Download(ctx context.Context, url string) (*replicate.Image, error)
}

type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, in razorpay.OrderRequest) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type ScratchSpace interface {
	Write(name, contentType string, data []byte) (string, error)
	Remove(path string) error
}
