// Package httpx is the REST client used for every external collaborator.
// Calls run under a bounded timeout; non-2xx responses map onto the fault
// taxonomy. Idempotent GETs retry with exponential backoff, writes never do.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/megamart/orderflow/pkg/fault"
)

const defaultMaxRetries = 3

type Client struct {
	service string
	base    string
	hc      *http.Client
	log     *slog.Logger
	retries uint64
}

// New builds a client for one upstream service. service names the upstream
// in errors and logs; base is its URL prefix without a trailing slash.
func New(service, base string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		service: service,
		base:    base,
		hc:      &http.Client{Timeout: timeout},
		log:     log,
		retries: defaultMaxRetries,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	op := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err != nil && !fault.IsUnavailable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	return backoff.Retry(op, bo)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fault.Unavailable(c.service, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fault.Unavailable(c.service, fmt.Errorf("decode %s %s: %w", method, path, err))
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fault.NotFound(c.service, path)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fault.Invalid("request", fmt.Sprintf("%s %s: %d %s", method, path, resp.StatusCode, detail))
	default:
		return fault.Unavailable(c.service, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}
}
