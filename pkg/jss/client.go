// Package jss talks to the Jamf Software Server classic API: records are
// fetched and saved as XML under /JSSResource.
package jss

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/normalize"
	"github.com/Honestpuck/jss-tools/pkg/record"
	"github.com/kumarabd/gokit/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const resourcePrefix = "/JSSResource"

var (
	// ErrNotFound is returned when the JSS has no record with the given id.
	ErrNotFound = errors.New("record not found")
	// ErrCircuitOpen is returned while the JSS is considered unavailable.
	ErrCircuitOpen = errors.New("jss circuit open")
)

// RequestError is a non-success response from the JSS.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Sprintf("jss %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// Unwrap maps 404 responses to ErrNotFound.
func (e *RequestError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

func (e *RequestError) retryable() bool {
	return e.StatusCode >= 500
}

// Summary is one entry of a resource listing.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is a JSS API client.
type Client struct {
	base       string
	username   string
	password   string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	http       *http.Client
	breaker    *breaker
	tracer     trace.Tracer
	log        *logger.Handler
	metric     *metrics.Handler
}

// NewClient validates cfg and returns a client.
func NewClient(cfg *Config, l *logger.Handler, m *metrics.Handler) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed JSS certificates
	}

	return &Client{
		base:       strings.TrimRight(cfg.URL, "/") + resourcePrefix,
		username:   cfg.Username,
		password:   cfg.Password,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		http:       &http.Client{Transport: transport},
		breaker:    newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
		tracer:     otel.Tracer("jss-tools/jss"),
		log:        l,
		metric:     m,
	}, nil
}

// Get fetches one record, e.g. Get(ctx, "computers", "22").
func (c *Client) Get(ctx context.Context, resource, id string) (*record.Record, error) {
	body, err := c.do(ctx, http.MethodGet, resource, recordPath(resource, id), nil)
	if err != nil {
		return nil, err
	}
	rec, err := record.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", resource, id, err)
	}
	return rec, nil
}

// Put saves rec as the record with the given id.
func (c *Client) Put(ctx context.Context, resource, id string, rec *record.Record) error {
	body, err := rec.Bytes()
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", resource, id, err)
	}
	_, err = c.do(ctx, http.MethodPut, resource, recordPath(resource, id), body)
	return err
}

// List returns the id and name of every record of a resource.
func (c *Client) List(ctx context.Context, resource string) ([]Summary, error) {
	body, err := c.do(ctx, http.MethodGet, resource, "/"+url.PathEscape(resource), nil)
	if err != nil {
		return nil, err
	}
	rec, err := record.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	var out []Summary
	for _, item := range rec.Children() {
		if item.Tag() == "size" {
			continue
		}
		id, _ := item.FindText("id")
		name, _ := item.FindText("name")
		out = append(out, Summary{ID: id, Name: name})
	}
	return out, nil
}

// Saver returns the persist hook for one record.
func (c *Client) Saver(resource, id string) normalize.Saver {
	return normalize.SaverFunc(func(ctx context.Context, rec *record.Record) error {
		return c.Put(ctx, resource, id, rec)
	})
}

func recordPath(resource, id string) string {
	return "/" + url.PathEscape(resource) + "/id/" + url.PathEscape(id)
}

// do sends one logical request, retrying transport errors and 5xx
// responses with jittered backoff.
func (c *Client) do(ctx context.Context, method, resource, path string, body []byte) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "jss."+strings.ToLower(method))
	defer span.End()
	span.SetAttributes(
		attribute.String("jss.resource", resource),
		attribute.String("http.method", method),
		attribute.String("jss.path", path),
	)

	if c.breaker.open() {
		span.RecordError(ErrCircuitOpen)
		span.SetStatus(codes.Error, ErrCircuitOpen.Error())
		c.metric.IncJSSRequestsTotal(resource, method, "circuit_open")
		return nil, ErrCircuitOpen
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		data, status, err := c.attempt(ctx, method, path, body)
		c.metric.IncJSSRequestsTotal(resource, method, status)
		if err == nil {
			c.breaker.success()
			c.metric.ObserveJSSRequestLatency(time.Since(start), resource, method, true)
			span.SetAttributes(attribute.Int("jss.attempts", attempt+1))
			return data, nil
		}
		lastErr = err

		var reqErr *RequestError
		if errors.As(err, &reqErr) && !reqErr.retryable() {
			// The server answered; it is up.
			c.breaker.success()
			break
		}
		if ctx.Err() != nil {
			break
		}

		c.log.Warn().Err(err).
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Msg("jss request failed")

		if attempt < c.maxRetries {
			if err := c.backoff(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}
	}

	if ctx.Err() == nil && unavailable(lastErr) {
		c.breaker.fail()
	}
	c.metric.ObserveJSSRequestLatency(time.Since(start), resource, method, false)
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

// backoff waits before the next attempt, returning early with the context's
// error if it is cancelled.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	// jittered backoff
	d := c.baseDelay*time.Duration(attempt+1) + time.Duration(rand.Intn(25))*time.Millisecond
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// unavailable reports whether err means the JSS could not serve the request
// at all, as opposed to rejecting it.
func unavailable(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.retryable()
	}
	return err != nil
}

// attempt performs a single round trip and returns the body, a status
// label for metrics and any error.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte) ([]byte, string, error) {
	// per-attempt timeout
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(tctx, method, c.base+path, reader)
	if err != nil {
		return nil, "error", err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/xml")
	if body != nil {
		req.Header.Set("Content-Type", "text/xml")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "error", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	status := strconv.Itoa(resp.StatusCode)
	if err != nil {
		return nil, status, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, status, &RequestError{
			Method:     method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}
	return data, status, nil
}
