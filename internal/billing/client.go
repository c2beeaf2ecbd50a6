// Package billing verifies payment status against the billing API before a
// polished-tier draft is generated.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PaymentStatus is the billing API's view of a customer.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentNone    PaymentStatus = "none"
)

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VerifyPayment looks up the payment status recorded for the given email.
// An unknown customer is PaymentNone, not an error.
func (c *Client) VerifyPayment(ctx context.Context, email string) (PaymentStatus, error) {
	if c == nil || c.baseURL == "" {
		return "", errors.New("billing: client not configured")
	}
	if c.apiKey == "" {
		return "", errors.New("billing: API key is missing")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("billing: email required")
	}

	endpoint := c.baseURL + "/v1/payments/status?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("billing: status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return PaymentNone, nil
	}
	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("billing: http %d", resp.StatusCode)
		}
		return "", fmt.Errorf("billing: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Message != "" {
			return "", fmt.Errorf("billing error: %s", out.Message)
		}
		return "", fmt.Errorf("billing: http %d", resp.StatusCode)
	}

	switch PaymentStatus(out.Status) {
	case PaymentPaid, PaymentPending, PaymentNone:
		return PaymentStatus(out.Status), nil
	default:
		return PaymentNone, nil
	}
}
