package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

// HTTPError represents an HTTP request failure reported back to the guest.
type HTTPError struct {
	Err  error
	Code string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// HTTPOption is a functional option for configuring HTTP request behavior.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	transport       http.RoundTripper
	timeout         time.Duration
	maxRedirects    int
	maxBodySize     int
	followRedirects bool
}

func defaultHTTPConfig() httpConfig {
	return httpConfig{
		timeout:         30 * time.Second,
		maxRedirects:    10,
		followRedirects: true,
		maxBodySize:     10 * 1024 * 1024, // 10MB
	}
}

// WithHTTPRequestTimeout sets the HTTP request timeout.
func WithHTTPRequestTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPMaxRedirects sets the maximum number of redirects to follow. Zero answers
// with the redirect response itself.
func WithHTTPMaxRedirects(n int) HTTPOption {
	return func(c *httpConfig) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithHTTPFollowRedirects controls whether to follow redirects.
func WithHTTPFollowRedirects(follow bool) HTTPOption {
	return func(c *httpConfig) {
		c.followRedirects = follow
	}
}

// WithHTTPMaxBodySize sets the maximum response body size. Longer bodies are truncated.
func WithHTTPMaxBodySize(size int) HTTPOption {
	return func(c *httpConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithHTTPTransport replaces the round tripper used for requests.
func WithHTTPTransport(rt http.RoundTripper) HTTPOption {
	return func(c *httpConfig) {
		c.transport = rt
	}
}

// PerformHTTPRequest performs an HTTP request on behalf of a guest.
// This is a pure Go implementation with no WASM runtime dependencies.
//
// Any response, including 4xx and 5xx statuses, is an outcome. Only failures to send
// the request or to read the response are errors.
func PerformHTTPRequest(ctx context.Context, req entities.HTTPRequest, opts ...HTTPOption) (entities.HTTPRequestOutcome, error) {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if req.URL == "" {
		return entities.HTTPRequestOutcome{}, &HTTPError{Code: "INVALID_REQUEST", Err: errors.New("URL is required")}
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return entities.HTTPRequestOutcome{}, &HTTPError{Code: "INVALID_REQUEST", Err: err}
	}
	for k, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := createHTTPClient(cfg).Do(httpReq)
	if err != nil {
		return entities.HTTPRequestOutcome{}, classifyHTTPError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return readHTTPResponse(resp, cfg.maxBodySize)
}

// createHTTPClient creates an HTTP client with the appropriate redirect policy.
func createHTTPClient(cfg httpConfig) *http.Client {
	rt := cfg.transport
	if rt == nil {
		rt = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	client := &http.Client{
		Timeout:   cfg.timeout,
		Transport: rt,
	}

	if !cfg.followRedirects || cfg.maxRedirects == 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.maxRedirects)
			}
			return nil
		}
	}

	return client
}

// classifyHTTPError attaches a failure code to a transport error.
func classifyHTTPError(ctx context.Context, err error) *HTTPError {
	code := "REQUEST_FAILED"
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		code = "TIMEOUT"
	case strings.Contains(err.Error(), "redirect"):
		code = "TOO_MANY_REDIRECTS"
	case strings.Contains(err.Error(), "no such host"):
		code = "HOST_NOT_FOUND"
	case strings.Contains(err.Error(), "connection refused"):
		code = "CONNECTION_REFUSED"
	}
	return &HTTPError{Code: code, Err: err}
}

// readHTTPResponse reads the response body through a BoundedBuffer.
func readHTTPResponse(resp *http.Response, maxBodySize int) (entities.HTTPRequestOutcome, error) {
	buf := NewBoundedBuffer(maxBodySize)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return entities.HTTPRequestOutcome{}, &HTTPError{Code: "READ_BODY_FAILED", Err: err}
	}

	body := buf.String()
	return entities.HTTPRequestOutcome{
		StatusCode: uint16(resp.StatusCode),
		Headers:    map[string][]string(resp.Header),
		Body:       &body,
	}, nil
}
