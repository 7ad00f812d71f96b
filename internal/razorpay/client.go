package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MaxReceiptLength is the gateway's limit on order receipts.
const MaxReceiptLength = 40

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

type OrderRequest struct {
	Amount   int               `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID         string          `json:"id"`
	Entity     string          `json:"entity"`
	Amount     int             `json:"amount"`
	AmountPaid int             `json:"amount_paid"`
	AmountDue  int             `json:"amount_due"`
	Currency   string          `json:"currency"`
	Receipt    string          `json:"receipt"`
	Status     string          `json:"status"`
	Attempts   int             `json:"attempts"`
	Notes      json.RawMessage `json:"notes,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// KeyID is the public key the checkout widget needs.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) CreateOrder(ctx context.Context, in OrderRequest) (*Order, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	if len(in.Receipt) > MaxReceiptLength {
		return nil, fmt.Errorf("receipt longer than %d characters", MaxReceiptLength)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build razorpay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		if c.log != nil {
			c.log.Error("razorpay create order failed", "status", resp.StatusCode, "code", apiErr.Error.Code, "description", apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay error: status=%d code=%s description=%s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode razorpay order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("invalid razorpay response (missing order id)")
	}
	return &order, nil
}

// VerifyPaymentSignature checks a checkout callback signature with the
// client's key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(orderID, paymentID, signature, c.keySecret)
}

// Sign computes the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
