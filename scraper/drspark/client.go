package drspark

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"drspark-watcher/config"
	"drspark-watcher/utils"
)

const snippetLimit = 500

// Client fetches the listing page over plain HTTP with bounded retry.
// The underlying http.Client is reused across cycles; only idempotent GETs
// are issued, so retrying is always safe.
type Client struct {
	http   *http.Client
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// NewClient creates a ready-to-use Client.
func NewClient(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: cfg.FetchTimeout},
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.FetchAttempts,
			BaseDelay:   700 * time.Millisecond,
			Logger:      logger,
			Retryable:   retryableFetchError,
		},
	}
}

// Fetch GETs url and returns the body text. Attempts are retried with
// exponential back-off only on connection failure or on a status in
// retryableStatus; any other non-2xx fails immediately with a *StatusError.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	c.logger.Info("Fetching: %s", url)

	var body string
	err := c.retry.Do("fetch "+url, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &TransportError{URL: url, Err: err}
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return &TransportError{URL: url, Err: err}
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return &TransportError{URL: url, Err: err}
		}

		if resp.StatusCode >= 400 {
			snippet := Snippet(string(b), snippetLimit)
			c.logger.Warn("HTTP %d for %s | body[:%d]=%s", resp.StatusCode, url, snippetLimit, snippet)
			return &StatusError{URL: url, Code: resp.StatusCode, Snippet: snippet}
		}

		body = string(b)
		return nil
	})
	if err != nil {
		c.logger.Error("Fetch failed: %s | %v", url, err)
		return "", err
	}
	return body, nil
}

func retryableFetchError(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return retryableStatus[se.Code]
	}
	return false
}

// Snippet returns the first limit runes of s with newlines flattened,
// for one-line diagnostic logging of response bodies.
func Snippet(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > limit {
		r = r[:limit]
	}
	return string(r)
}
