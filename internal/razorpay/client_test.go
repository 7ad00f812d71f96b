package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifyPaymentSignature(t *testing.T) {
	const secret = "shh"
	sig := Sign("order_1", "pay_1", secret)

	if !VerifyPaymentSignature("order_1", "pay_1", sig, secret) {
		t.Fatal("valid signature rejected")
	}
	// Razorpay sends lower-case hex; anything else is compared byte for byte.
	if VerifyPaymentSignature("order_1", "pay_1", strings.ToUpper(sig), secret) {
		t.Fatal("upper-case hex signature accepted")
	}

	tampered := []struct {
		name                          string
		orderID, paymentID, signature string
	}{
		{"order id", "order_2", "pay_1", sig},
		{"payment id", "order_1", "pay_2", sig},
		{"signature", "order_1", "pay_1", sig[:len(sig)-1] + flipHex(sig[len(sig)-1])},
		{"empty signature", "order_1", "pay_1", ""},
	}
	for _, tc := range tampered {
		t.Run(tc.name, func(t *testing.T) {
			if VerifyPaymentSignature(tc.orderID, tc.paymentID, tc.signature, secret) {
				t.Fatalf("tampered %s accepted", tc.name)
			}
		})
	}

	if VerifyPaymentSignature("order_1", "pay_1", sig, "other") {
		t.Fatal("signature accepted under the wrong secret")
	}
}

func flipHex(c byte) string {
	if c == '0' {
		return "1"
	}
	return "0"
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var in OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_abc",
			"entity":   "order",
			"amount":   in.Amount,
			"currency": in.Currency,
			"receipt":  in.Receipt,
			"status":   "created",
			"notes":    []any{},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{KeyID: "rzp_key", KeySecret: "rzp_secret", BaseURL: srv.URL}, nil)
	order, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 39900, Currency: "INR", Receipt: "rec_1"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 39900 || order.Currency != "INR" || order.Status != "created" {
		t.Fatalf("unexpected order %+v", order)
	}

	bad := NewClient(Config{KeyID: "rzp_key", KeySecret: "wrong", BaseURL: srv.URL}, nil)
	if _, err := bad.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR", Receipt: "r"}); err == nil || !strings.Contains(err.Error(), "Authentication failed") {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestCreateOrderValidatesLocally(t *testing.T) {
	c := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: "http://127.0.0.1:1"}, nil)
	if _, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 0, Currency: "INR", Receipt: "r"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 1, Currency: "INR", Receipt: strings.Repeat("r", 41)}); err == nil {
		t.Fatal("expected error for long receipt")
	}
}
