// Package renderpdf submits composed HTML to an external headless-browser
// conversion service and returns the resulting PDF bytes.
package renderpdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	convertPath    = "/forms/chromium/convert/html"
	defaultBaseURL = "http://localhost:3000"
	defaultTimeout = 30 * time.Second

	// A4 in inches with half-inch margins, backgrounds printed.
	paperWidth  = "8.27"
	paperHeight = "11.69"
	margin      = "0.5"

	// Total attempts per Render call, shared under one deadline.
	maxAttempts = 3
)

// transientStatuses are the upstream statuses considered likely to succeed
// on immediate retry.
var transientStatuses = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
}

// UpstreamError carries the conversion service's status and body for
// diagnostics.
type UpstreamError struct {
	Status   int
	Body     string
	Attempts int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("renderpdf: upstream status %d after %d attempt(s): %s", e.Status, e.Attempts, e.Body)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{httpClient: client, baseURL: base, timeout: timeout}
}

// Render converts the HTML document to a PDF named filename. One deadline
// spans all attempts; transient upstream statuses are retried up to
// maxAttempts total with no backoff, anything else fails immediately with
// the response body attached. Deadline expiry aborts the in-flight request
// and surfaces as an error matching context.DeadlineExceeded.
func (c *Client) Render(ctx context.Context, htmlDoc, filename string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("renderpdf: client not configured")
	}
	if strings.TrimSpace(htmlDoc) == "" {
		return nil, errors.New("renderpdf: html document is empty")
	}
	if filename == "" {
		filename = "report.pdf"
	}

	body, contentType, err := buildForm(htmlDoc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var last *UpstreamError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("renderpdf: conversion deadline exceeded: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("renderpdf: build request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Gotenberg-Output-Filename", strings.TrimSuffix(filename, ".pdf"))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("renderpdf: conversion deadline exceeded: %w", ctx.Err())
			}
			return nil, fmt.Errorf("renderpdf: conversion request: %w", err)
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			if readErr != nil {
				return nil, fmt.Errorf("renderpdf: read pdf body: %w", readErr)
			}
			return data, nil
		}

		last = &UpstreamError{Status: resp.StatusCode, Body: string(data), Attempts: attempt}
		if _, transient := transientStatuses[resp.StatusCode]; !transient {
			return nil, last
		}
	}
	return nil, last
}

// buildForm writes the multipart conversion request once; the same body is
// replayed on each retry.
func buildForm(htmlDoc string) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", fmt.Errorf("renderpdf: build form: %w", err)
	}
	if _, err := io.WriteString(part, htmlDoc); err != nil {
		return nil, "", fmt.Errorf("renderpdf: build form: %w", err)
	}

	fields := map[string]string{
		"paperWidth":      paperWidth,
		"paperHeight":     paperHeight,
		"marginTop":       margin,
		"marginBottom":    margin,
		"marginLeft":      margin,
		"marginRight":     margin,
		"printBackground": "true",
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("renderpdf: build form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("renderpdf: build form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
