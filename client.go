package plantuml

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"plantuml-go/internal/metrics"
	"plantuml-go/internal/tracing"
)

// DefaultServerURL is the renderer used when none is configured.
const DefaultServerURL = "http://127.0.0.1:8000/plantuml/"

// maxErrorBodyBytes caps how much of a renderer error body is carried in a
// StatusError.
const maxErrorBodyBytes = 2048

// Client fetches rendered diagrams from a PlantUML server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryPolicy sets the retry policy for renderer fetches.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the PlantUML server at baseURL. An empty
// baseURL selects DefaultServerURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryPolicy(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured renderer base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// StatusError is returned when the renderer answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("renderer returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("renderer returned status %d: %s", e.StatusCode, e.Body)
}

// DiagramURL builds the renderer URL for an encoded token.
func (c *Client) DiagramURL(token string, format Format) string {
	return c.baseURL + string(format) + "/" + token
}

// Fetch retrieves the rendered image for an already-encoded token. Transient
// failures are retried under the client's policy; 4xx renderer answers are
// returned immediately.
func (c *Client) Fetch(ctx context.Context, token string, format Format) ([]byte, error) {
	ctx, span := tracing.FetchSpan(ctx, string(format), len(token))
	defer span.End()

	var image []byte
	err := withRetry(ctx, c.retry, "fetch", func() error {
		data, err := c.fetchOnce(ctx, token, format)
		if err != nil {
			return err
		}
		image = data
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("render.image_bytes", len(image)))
	return image, nil
}

func (c *Client) fetchOnce(ctx context.Context, token string, format Format) ([]byte, error) {
	url := c.DiagramURL(token, format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RendererRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("renderer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return io.ReadAll(resp.Body)
}

// Render normalizes source text, encodes it, and fetches the rendered image
// in one call. Marker wrapping and PNG quality directives are applied here,
// exactly once.
func (c *Client) Render(ctx context.Context, source string, format Format) ([]byte, error) {
	prepared := PrepareSource(source, format)
	token, err := Encode(prepared)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("rendering diagram",
		"format", format,
		"source_bytes", len(prepared),
		"token_bytes", len(token),
	)
	metrics.EncodedTokenBytes.Observe(float64(len(token)))

	return c.Fetch(ctx, token, format)
}

// ValidationResult reports whether diagram source renders successfully.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate checks diagram source by attempting an SVG render. The codec
// cannot validate PlantUML syntax on its own, so validity is defined by the
// renderer accepting the document.
func (c *Client) Validate(ctx context.Context, source string) ValidationResult {
	if _, err := c.Render(ctx, source, FormatSVG); err != nil {
		return ValidationResult{Valid: false, Error: err.Error()}
	}
	return ValidationResult{Valid: true}
}
