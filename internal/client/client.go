// Package client is a thin REST wrapper over the trading API's two
// external endpoints: bar retrieval and indicator signal submission.
// Failures are returned as typed errors (TransportError, HTTPError,
// DecodeError); the client never retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signalgen/internal/model"
)

const (
	// MaxBarLimit is the server-side cap on bars per request.
	MaxBarLimit = 5000

	defaultTimeout = 30 * time.Second
)

// Config configures the API client.
type Config struct {
	BaseURL string // e.g. "https://api.innova-trading.com"
	APIKey  string
	Timeout time.Duration // default 30s
}

// Client talks to the trading API. Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// New creates a Client from the given Config.
func New(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// GetBars fetches up to limit OHLC bars for symbol/timeframe, oldest first.
// limit is clamped to MaxBarLimit. An absent "bars" field decodes to an
// empty slice.
func (c *Client) GetBars(ctx context.Context, symbol string, timeframe, limit int) ([]model.Bar, error) {
	const op = "get bars"

	if limit <= 0 || limit > MaxBarLimit {
		limit = MaxBarLimit
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", strconv.Itoa(timeframe))
	q.Set("limit", strconv.Itoa(limit))

	reqURL := c.baseURL + "/api/external/bars?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("bar fetch failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(raw, 512)))
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: truncate(raw, 512)}
	}

	var body struct {
		Bars []model.Bar `json:"bars"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return body.Bars, nil
}

// SubmitSignals posts a payload to the indicator-scoped endpoint.
// 200 and 201 both count as success.
func (c *Client) SubmitSignals(ctx context.Context, indicatorID string, payload model.SubmissionPayload) (*model.SubmitResult, error) {
	const op = "submit signals"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal payload: %w", op, err)
	}

	reqURL := c.baseURL + "/api/external/indicators/" + url.PathEscape(indicatorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Error("signal submission failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(raw, 512)))
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: truncate(raw, 512)}
	}

	var result model.SubmitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
