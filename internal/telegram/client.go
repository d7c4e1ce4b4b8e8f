package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryPolicy sets the attempt count and base delay of API calls.
func WithRetryPolicy(attempts uint, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// Client calls the Bot API. Server errors, transport errors and flood
// control responses are retried; flood control waits the advertised
// retry_after first.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	logger     *slog.Logger
	attempts   uint
	delay      time.Duration
	retryAfter time.Duration
}

// NewClient builds a Client for token against baseURL
// (https://api.telegram.org in production).
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		http:       &http.Client{Timeout: 90 * time.Second},
		logger:     slog.Default().With("component", "telegram"),
		attempts:   4,
		delay:      500 * time.Millisecond,
		retryAfter: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage delivers one message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.call(ctx, "sendMessage", req, nil)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message"},
	}, &updates)
	return updates, err
}

func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	endpoint := c.baseURL + "/bot" + c.token + "/" + method

	return retry.Do(
		func() error {
			err := c.do(ctx, method, endpoint, body, out)
			recordAPICall(method, err)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying telegram call", "method", method, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(c.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Unrecoverable(ctx.Err())
		}
		return c.redact(err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		decodeErr := fmt.Errorf("telegram %s: status %d: undecodable response: %w", method, resp.StatusCode, err)
		if resp.StatusCode >= http.StatusInternalServerError {
			return decodeErr
		}
		return retry.Unrecoverable(decodeErr)
	}

	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			if err := c.wait(ctx, time.Duration(apiErr.RetryAfter)*c.retryAfter); err != nil {
				return retry.Unrecoverable(err)
			}
			return apiErr
		case apiErr.Code >= http.StatusInternalServerError:
			return apiErr
		default:
			return retry.Unrecoverable(apiErr)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode %s result: %w", method, err))
	}
	return nil
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// redact strips the bot token from transport errors.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if c.token != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<redacted>")
	}
	return err
}
