package textgen

import (
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"
)

const (
	maxRetries    = 3
	baseBackoffMs = 500
	maxBackoffMs  = 10000
)

// retryClient wraps an http.Client with retry on 429 and 5xx responses.
type retryClient struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	backoff    func(attempt int) time.Duration
}

func newRetryClient(baseURL string, headers map[string]string) *retryClient {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &retryClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 20 * time.Second,
				MaxIdleConns:          20,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseURL: baseURL,
		headers: headers,
		backoff: backoff,
	}
}

// do sends a request, retrying retryable statuses. body must be seekable
// when it is non-nil so it can be replayed.
func (c *retryClient) do(ctx context.Context, method, path string, body io.ReadSeeker) (*http.Response, error) {
	var lastErr error
	for attempt := range maxRetries + 1 {
		if attempt > 0 {
			if err := sleepWithContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("context cancelled during retry backoff: %w", err)
			}
			if body != nil {
				if _, err := body.Seek(0, io.SeekStart); err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
			}
		}

		var reader io.Reader
		if body != nil {
			reader = body
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request for %s %s: %w", method, path, err)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("http request failed: %w", err)
			}
			lastErr = err
			continue
		}
		if !isRetryable(resp.StatusCode) || attempt == maxRetries {
			return resp, nil
		}
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
	}
	return nil, fmt.Errorf("http request failed after retries: %w", lastErr)
}

func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func backoff(attempt int) time.Duration {
	ms := float64(baseBackoffMs) * math.Pow(2, float64(attempt))
	if ms > maxBackoffMs {
		ms = maxBackoffMs
	}
	return time.Duration(ms) * time.Millisecond
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
