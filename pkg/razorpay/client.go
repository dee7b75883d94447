package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpaysdk "github.com/razorpay/razorpay-go"
)

var errEmptyCredentials = errors.New("razorpay key id and secret are required")

// Client wraps the Razorpay SDK for payment-intent creation. A fresh client is
// built per call so admin-rotated credentials take effect immediately.
type Client struct {
	api   *razorpaysdk.Client
	keyID string
}

// NewClient initializes the SDK with the provided credentials.
func NewClient(keyID, keySecret string, timeout time.Duration) (*Client, error) {
	keyID = strings.TrimSpace(keyID)
	keySecret = strings.TrimSpace(keySecret)
	if keyID == "" || keySecret == "" {
		return nil, errEmptyCredentials
	}

	api := razorpaysdk.NewClient(keyID, keySecret)
	if timeout > 0 {
		api.SetTimeout(int16(timeout / time.Second))
	}

	return &Client{api: api, keyID: keyID}, nil
}

// KeyID returns the public key the storefront embeds into its checkout widget.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CreateOrder opens a payment intent with the processor and returns its id.
// amountMinor is in the processor's minor-unit convention (paise).
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order create: response missing id")
	}
	return id, nil
}

// IsAuthError reports whether the processor rejected our credentials, as
// opposed to the request itself.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "key_id") ||
		strings.Contains(msg, "unauthorized")
}
