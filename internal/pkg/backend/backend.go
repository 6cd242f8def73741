// Package backend is the JSON client for the identity server's REST API.
//
// Every request carries the caller's bearer token and is traced through an
// otelhttp transport. GET requests are retried with exponential backoff on
// transport errors, 429 and 5xx; writes are never retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// ErrBaseURLRequired is returned by New when BaseURL is empty or invalid.
var ErrBaseURLRequired = errors.New("backend: base url is required")

const maxErrorBody = 4 * 1024

// StatusError is a non-2xx answer from the identity server.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s %s: status %d", e.Method, e.Path, e.Status)
}

// Retryable reports whether a GET may be tried again.
func (e *StatusError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// Token is sent when the request context carries no authenticated
	// claims, e.g. from the terminal client.
	Token        string
	Timeout      time.Duration
	MaxRetries   uint64
	RetryBackoff time.Duration

	TracerProvider trace.TracerProvider
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks JSON to the identity server.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	retries uint64
	backoff time.Duration
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, ErrBaseURLRequired
	}

	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	return &Client{
		base:    base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(rt, opts...)},
		retries: cfg.MaxRetries,
		backoff: backoff,
	}, nil
}

// Get decodes the JSON answer of GET path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, nil, out)

		var se *StatusError
		if err == nil || (errors.As(err, &se) && !se.Retryable()) || ctx.Err() != nil {
			return err
		}

		slog.WarnContext(ctx, "backend get failed, retrying", "path", path, "error", err)
		return retry.RetryableError(err)
	})
}

// Post sends in as JSON and decodes the answer into out. out may be nil.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// Patch sends in as JSON and decodes the answer into out. out may be nil.
func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+"/"+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		req.Header.Set("X-Correlation-ID", cID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		//nolint:errcheck // best effort for diagnostics only
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if clm := jwt.GetAuth(ctx); clm != nil && clm.Raw != "" {
		return clm.Raw
	}
	return c.token
}
