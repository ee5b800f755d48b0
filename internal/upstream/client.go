package upstream

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/agentboard/dashboard-service/internal/logging"
	"github.com/agentboard/dashboard-service/internal/metrics"
)

const (
	// DefaultTimeout bounds every outbound call
	DefaultTimeout = 30 * time.Second

	// DefaultCallerService is sent in CallerHeader on every request
	DefaultCallerService = "dashboard-service"

	// CallerHeader identifies this service to the upstreams
	CallerHeader = "X-Caller-Service"

	requestIDHeader = "X-Request-ID"
	tracerName      = "github.com/agentboard/dashboard-service/internal/upstream"
)

// Client issues GET requests against the gateway and billing services.
// A single Client is shared by all inbound requests for the lifetime of the process.
type Client struct {
	httpClient    *http.Client
	callerService string
	limiter       *rate.Limiter
	logger        *slog.Logger
	tracer        trace.Tracer
}

// ClientOption configures the upstream client
type ClientOption func(*Client)

// WithHTTPClient uses a copy of client, so later options never modify the caller's client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client == nil {
			return
		}
		clone := *client
		if clone.Timeout == 0 {
			clone.Timeout = c.httpClient.Timeout
		}
		c.httpClient = &clone
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCallerService overrides the value of the caller header
func WithCallerService(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.callerService = name
		}
	}
}

// WithRateLimit caps outbound requests per second. A limit of zero disables limiting.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new upstream client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		callerService: DefaultCallerService,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch GETs rawURL and decodes the JSON body into a generic value
// (map[string]any, []any, string, float64, bool or nil).
func (c *Client) Fetch(ctx context.Context, rawURL string) (any, error) {
	start := time.Now()
	host := hostLabel(rawURL)

	ctx, span := c.tracer.Start(ctx, "upstream.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", rawURL)))
	defer span.End()

	value, err := c.fetch(ctx, rawURL)

	outcome := "success"
	if err != nil {
		outcome = Kind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordUpstreamError(host, outcome)
		c.logger.WarnContext(ctx, "upstream call failed",
			slog.String("url", rawURL),
			slog.String("kind", outcome),
			slog.String("error", err.Error()))
	}
	metrics.RecordUpstreamCall(host, outcome, time.Since(start))

	return value, err
}

func (c *Client) fetch(ctx context.Context, rawURL string) (any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UnknownError{URL: rawURL, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UnknownError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(CallerHeader, c.callerService)
	if requestID := logging.RequestID(ctx); requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectError(err) {
			return nil, &UnreachableError{URL: rawURL, Err: err}
		}
		return nil, &UnknownError{URL: rawURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleError(resp, rawURL)
	}

	var value any
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return nil, &UnknownError{URL: rawURL, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.DebugContext(ctx, "upstream call succeeded",
		slog.String("url", rawURL),
		slog.Int("status", resp.StatusCode))

	return value, nil
}

// CloseIdleConnections releases pooled connections; called once at shutdown
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// handleError converts a non-2xx response to an HTTPError
func (c *Client) handleError(resp *http.Response, rawURL string) error {
	body, _ := io.ReadAll(resp.Body)
	return &HTTPError{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// isConnectError reports whether err happened while establishing the connection
// (dial, DNS or TLS handshake), before any request bytes reached the upstream.
// Connect timeouts are not included; they surface as unknown errors.
func isConnectError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return !opErr.Timeout()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return !dnsErr.IsTimeout
	}

	return isTLSHandshakeError(err)
}

func isTLSHandshakeError(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		alertErr     tls.AlertError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.Is(err, http.ErrSchemeMismatch) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

func hostLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
