// Package lookup calls the external postcode API.
//
// Lookup never returns an error: transport failures, non-2xx responses and
// malformed payloads all become a Failure result. There are no retries; a
// failed lookup sends the user straight to manual entry.
package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"addresslookup/internal/addresslookup/metrics"
	"addresslookup/internal/addresslookup/models"
	dErrors "addresslookup/pkg/domain-errors"
	"addresslookup/pkg/platform/circuit"
	"addresslookup/pkg/requestcontext"
)

const (
	tracerName   = "addresslookup/lookup"
	maxBodyBytes = 1 << 20
)

var errEmptyBody = errors.New("empty body")

// Client queries the postcode API configured for one step.
type Client struct {
	endpoint      *url.URL
	authorization string
	http          *http.Client
	timeout       time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	breaker       *circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds each outbound request. It applies to the client given
// by WithHTTPClient whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(cl *Client) {
		if t != nil {
			cl.tracer = t
		}
	}
}

// WithBreaker short-circuits lookups while the upstream keeps failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

// New builds a Client. A missing or relative hostname is a configuration error.
func New(settings models.APISettings, opts ...Option) (*Client, error) {
	endpoint, err := url.Parse(strings.TrimSpace(settings.Hostname))
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "apiSettings.hostname must be an absolute URL")
	}
	c := &Client{
		endpoint:      endpoint,
		authorization: settings.Authorization,
		http:          &http.Client{Timeout: 5 * time.Second},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// Lookup issues exactly one request for an already normalised postcode.
func (c *Client) Lookup(ctx context.Context, postcode string) models.LookupResult {
	outward, _, _ := strings.Cut(postcode, " ")
	ctx, span := c.tracer.Start(ctx, "postcode.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("postcode.outward", outward)),
	)
	defer span.End()

	start := time.Now()
	if c.breaker != nil && !c.breaker.Allow() {
		result := models.FailedResult(models.FailureUnavailable)
		c.finish(ctx, span, outward, result, nil, start)
		return result
	}

	candidates, err := c.fetch(ctx, postcode)
	var result models.LookupResult
	if err != nil {
		result = models.FailedResult(ReasonOf(err))
		c.recordBreaker(false)
	} else {
		result = models.NewLookupResult(candidates)
		c.recordBreaker(true)
	}
	c.finish(ctx, span, outward, result, err, start)
	return result
}

func (c *Client) fetch(ctx context.Context, postcode string) ([]models.AddressCandidate, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("postcode", postcode)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(models.FailureTransport, 0, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(models.FailureTransport, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, newError(models.FailureTransport, resp.StatusCode, "read body", err)
	}
	return parseResponse(resp.StatusCode, body)
}

func (c *Client) recordBreaker(ok bool) {
	if c.breaker == nil {
		return
	}
	var change circuit.StateChange
	if ok {
		_, change = c.breaker.RecordSuccess()
	} else {
		_, change = c.breaker.RecordFailure()
	}
	if change.Opened {
		c.logger.Warn("postcode lookup circuit opened", "breaker", c.breaker.Name())
	}
	if change.Closed {
		c.logger.Info("postcode lookup circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *Client) finish(ctx context.Context, span trace.Span, outward string, result models.LookupResult, err error, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.ObserveLookup(string(result.Kind), string(result.Reason), elapsed)
	span.SetAttributes(
		attribute.String("lookup.outcome", string(result.Kind)),
		attribute.Int("lookup.candidates", len(result.Candidates)),
	)

	if result.Kind != models.LookupFailure {
		c.logger.DebugContext(ctx, "postcode lookup finished",
			"outcome", result.Kind,
			"candidates", len(result.Candidates),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}

	span.SetAttributes(attribute.String("lookup.failure_reason", string(result.Reason)))
	if err != nil {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, string(result.Reason))

	attrs := []any{
		"reason", result.Reason,
		"postcode_outward", outward,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	c.logger.WarnContext(ctx, "postcode lookup failed", attrs...)
}
