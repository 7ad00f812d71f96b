package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/razorpay"
	"github.com/digkill/thumblify/internal/replicate"
	"github.com/digkill/thumblify/internal/repository"
	"github.com/digkill/thumblify/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for the MySQL repositories. Every method
// holds one lock, which gives the same all-or-nothing behavior as the
// repository transactions.
type memDB struct {
	mu       sync.Mutex
	users    map[string]*models.User
	thumbs   map[string]*models.Thumbnail
	order    []string
	payments map[string]*models.Payment

	completeErr error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]*models.User{},
		thumbs:   map[string]*models.Thumbnail{},
		payments: map[string]*models.Payment{},
	}
}

func (db *memDB) addUser(id string, credits int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[id] = &models.User{ID: id, Name: id, Email: id + "@example.com", CreditBalance: credits, Plan: models.PlanFree}
}

func (db *memDB) balance(id string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[id].CreditBalance
}

func (db *memDB) thumbnail(id string) *models.Thumbnail {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.thumbs[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

type userFake struct{ *memDB }

func (f userFake) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f userFake) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f userFake) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f userFake) List(_ context.Context, limit, offset int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f userFake) AdjustCredits(_ context.Context, userID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.CreditBalance = max(u.CreditBalance+delta, 0)
	}
	return nil
}

type thumbFake struct{ *memDB }

func (f thumbFake) Reserve(_ context.Context, thumb *models.Thumbnail) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[thumb.UserID]
	if !ok || u.CreditBalance <= 0 {
		return false, nil
	}
	u.CreditBalance--
	thumb.IsGenerating = true
	cp := *thumb
	f.thumbs[thumb.ID] = &cp
	f.order = append(f.order, thumb.ID)
	return true, nil
}

func (f thumbFake) Complete(_ context.Context, id, imageURL, imageKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	t, ok := f.thumbs[id]
	if !ok || !t.IsGenerating {
		return fmt.Errorf("thumbnail %s is not generating", id)
	}
	t.IsGenerating = false
	t.ImageURL = imageURL
	t.ImageKey = imageKey
	return nil
}

func (f thumbFake) Fail(_ context.Context, id, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.thumbs[id]
	if !ok || t.UserID != userID || !t.IsGenerating {
		return nil
	}
	t.IsGenerating = false
	t.ErrorMessage = reason
	f.users[userID].CreditBalance++
	return nil
}

func (f thumbFake) ListByUser(_ context.Context, userID string) ([]models.Thumbnail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Thumbnail{}
	for i := len(f.order) - 1; i >= 0; i-- {
		if t, ok := f.thumbs[f.order[i]]; ok && t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f thumbFake) GetForUser(_ context.Context, id, userID string) (*models.Thumbnail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.thumbs[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f thumbFake) DeleteForUser(_ context.Context, id, userID string) (*models.Thumbnail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.thumbs[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	delete(f.thumbs, id)
	return t, nil
}

type paymentFake struct{ *memDB }

func (f paymentFake) Create(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.payments[p.ProviderOrderID] = &cp
	return nil
}

func (f paymentFake) FindByProviderOrder(_ context.Context, provider, orderID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderID]
	if !ok || p.Provider != provider {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f paymentFake) MarkPaid(_ context.Context, payment *models.Payment, providerPaymentID string, credits int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.payments[payment.ProviderOrderID]
	if p.Status == models.PaymentStatusPaid {
		return false, nil
	}
	p.Status = models.PaymentStatusPaid
	p.ProviderPaymentID = providerPaymentID
	u := f.users[p.UserID]
	u.CreditBalance += credits
	u.Plan = p.Plan
	return true, nil
}

type fakeImages struct {
	mu          sync.Mutex
	generateErr error
	downloadErr error
	calls       int
	lastInput   replicate.Input
}

func (f *fakeImages) Generate(_ context.Context, input replicate.Input) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastInput = input
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return "https://replicate.delivery/out.webp", nil
}

func (f *fakeImages) Download(_ context.Context, url string) (*replicate.Image, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &replicate.Image{URL: url, Bytes: []byte("webp-bytes"), ContentType: "image/webp"}, nil
}

func (f *fakeImages) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMedia struct {
	mu        sync.Mutex
	uploadErr error
	uploaded  []string
	deleted   []string
	seq       int
}

func (f *fakeMedia) UploadFile(_ context.Context, filePath, contentType string) (storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return storage.Object{}, f.uploadErr
	}
	f.seq++
	key := fmt.Sprintf("thumbnails/%d.webp", f.seq)
	f.uploaded = append(f.uploaded, filePath)
	return storage.Object{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func (f *fakeMedia) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeGateway struct {
	secret string
	orders int
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, in razorpay.OrderRequest) (*razorpay.Order, error) {
	g.orders++
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Entity:   "order",
		Amount:   in.Amount,
		Currency: in.Currency,
		Receipt:  in.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifyPaymentSignature(orderID, paymentID, signature, g.secret)
}
