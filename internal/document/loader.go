package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/swipereader/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/tracing"
)

const (
	// MaxDocumentSize caps a fetched document at 10MB.
	MaxDocumentSize = 10 * 1024 * 1024

	defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"
)

var ErrNotHTML = errors.New("response is not an HTML document")

// LoaderConfig configures remote document fetching.
type LoaderConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
	// Tracer records a span per fetch when set.
	Tracer *tracing.Tracer
}

// DefaultLoaderConfig returns conservative defaults for a third-party site.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		UserAgent:         defaultUserAgent,
	}
}

// Loader fetches documents over HTTP with rate limiting and a circuit breaker.
type Loader struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	tracer  *tracing.Tracer
}

// NewLoader creates a loader.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetTransport(retryClient.HTTPClient.Transport)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	breaker := resilience.New("document-loader", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Loader{client: client, limiter: limiter, breaker: breaker, tracer: cfg.Tracer}
}

// Load fetches uri and parses it into a Static document.
func (l *Loader) Load(ctx context.Context, uri string) (_ *Static, err error) {
	span, ctx := l.tracer.StartSpan(ctx, "document.load")
	span.SetTag("uri", uri)
	defer func() {
		span.SetError(err)
		l.tracer.End(span)
	}()

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	headers := http.Header{}
	tracing.Inject(ctx, headers)

	resp, err := resilience.Execute(l.breaker, func() (*resty.Response, error) {
		req := l.client.R().SetContext(ctx)
		for k := range headers {
			req.SetHeader(k, headers.Get(k))
		}
		resp, err := req.Get(uri)
		if err != nil {
			return nil, err
		}
		span.SetStatus(resp.StatusCode())
		if resp.StatusCode() < 200 || resp.StatusCode() >= 400 {
			return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode(), uri)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}

	body := resp.Body()
	if len(body) > MaxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", MaxDocumentSize)
	}

	root, err := ParseHTML(body, resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}
	return NewStatic(uri, root), nil
}

// BreakerState exposes the loader's circuit state.
func (l *Loader) BreakerState() resilience.State {
	return l.breaker.State()
}

// ParseHTML checks that body is HTML and decodes it to UTF-8 using the
// Content-Type charset, falling back to detection.
func ParseHTML(body []byte, contentType string) (*html.Node, error) {
	detected := mimetype.Detect(body)
	if !detected.Is("text/html") && !detected.Is("application/xhtml+xml") && !detected.Is("text/plain") {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, detected.String())
	}

	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = params["charset"]
	}
	if label == "" {
		label = detectCharset(body)
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return html.Parse(bytes.NewReader(body))
	}
	return html.Parse(reader)
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
