package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// apiError is the error body of Web API responses.
type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

const maxRetries = 3

// get makes an authenticated GET request to the Web API and decodes the
// JSON response into out, retrying rate limits and server errors.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	backoff := c.backoff
	refreshed := false

	for i := 0; i < maxRetries; i++ {
		c.logDebugf("spotify: GET %s (attempt %d/%d)", path, i+1, maxRetries)

		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetryNetworkError(err) && i < maxRetries-1 {
				c.logDebugf("spotify: network error, retrying: %v", err)
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return fmt.Errorf("http request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		}

		apiErr := parseError(resp.StatusCode, body)

		// An expired token gets one refresh, not counted against retries
		if resp.StatusCode == http.StatusUnauthorized && !refreshed {
			refreshed = true
			c.invalidateToken()
			i--
			continue
		}

		if apiErr.Temporary() && i < maxRetries-1 {
			lastErr = apiErr
			wait := backoff
			if d := retryAfter(resp); d > 0 {
				wait = d
			}
			c.logDebugf("spotify: temporary error, retrying in %v: %v", wait, apiErr)
			if !sleep(ctx, wait) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		return apiErr
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func parseError(status int, body []byte) *Error {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return &Error{Status: status, Message: e.Error.Message}
	}
	return &Error{Status: status, Message: http.StatusText(status)}
}

// retryAfter reads the Retry-After header in seconds
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// shouldRetryNetworkError checks if a network error is retryable.
func shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	if urlErr, ok := err.(*url.Error); ok {
		if _, ok := urlErr.Err.(net.Error); ok {
			return true
		}
	}

	return false
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}

// nextBackoff doubles the backoff, capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
