package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/scrolluniversity/certificate-node/internal/log"
)

const defaultTimeout = 10 * time.Second

const (
	retryWaitMin = 100 * time.Millisecond
	retryWaitMax = 2 * time.Second
)

// Client posts json payloads to outbound webhooks. 5xx answers and transport errors are retried
// with backoff, 4xx answers are final.
type Client struct {
	base http.Client
}

// NewRetryClient returns a client that retries failed requests up to retryMax times
func NewRetryClient(retryMax int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = nil
	return &Client{base: http.Client{
		Timeout:   defaultTimeout,
		Transport: &retryablehttp.RoundTripper{Client: rc},
	}}
}

// Post sends body to url as json. The request id of ctx, if any, is forwarded.
func (c *Client) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		r.Header.Set(middleware.RequestIDHeader, requestID)
	}

	resp, err := c.base.Do(r)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error(ctx, "can not close body", "err", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Errorf("webhook answered with status %v: %v", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
