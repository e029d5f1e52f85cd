package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yildizm/TabSum/internal/logger"
)

const (
	EndpointAnalyze = "/analyze"
	EndpointCompare = "/compare"
	EndpointHealth  = "/"

	// maxErrorBody bounds how much of a failed response is read for an error message
	maxErrorBody = 64 << 10
)

// Config configures the backend client
type Config struct {
	BaseURL           string
	Timeout           time.Duration // 0 means no client-side deadline
	RequestsPerSecond float64       // 0 disables pacing
	Burst             int
	UserAgent         string
}

// DefaultConfig returns the client defaults, matching a locally started backend
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://127.0.0.1:8000",
		Burst:     1,
		UserAgent: "tabsum",
	}
}

// Validate checks the client configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL: %s", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must be non-negative")
	}
	return nil
}

// Client talks to the analysis backend
type Client struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	limiter *rate.Limiter
	log     *logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the client logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a backend client
func New(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
		log:     logger.New("backend", nil),
	}

	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Analyze uploads a file as multipart field "file" and returns the column analysis
func (c *Client) Analyze(ctx context.Context, name string, content io.Reader) (*Analysis, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", uploadName(name))
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, EndpointAnalyze, MsgAnalyzeUnavailable, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, EndpointAnalyze, MsgAnalyzeUnavailable, err)
	}
	if err := writer.Close(); err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, EndpointAnalyze, MsgAnalyzeUnavailable, err)
	}

	resp, err := c.do(ctx, http.MethodPost, EndpointAnalyze, body, writer.FormDataContentType(), MsgAnalyzeUnavailable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	// The analyze contract reports only the status code on failure
	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, NewStatusError(EndpointAnalyze, resp.StatusCode)
	}

	var result Analysis
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, decodeError(ctx, EndpointAnalyze, err)
	}

	c.log.InfoWithFields("analysis received", []logger.Field{
		logger.F("file", name),
		logger.F("columns", len(result.Columns)),
		logger.F("charts", result.ChartCount()),
	})
	return &result, nil
}

// uploadName is the multipart filename sent for path. The backend matches
// extensions case-sensitively, so the extension is lower-cased.
func uploadName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + strings.ToLower(ext)
}

// Compare asks the backend to compare two columns of the given file content
func (c *Client) Compare(ctx context.Context, req *CompareRequest) (*Comparison, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, EndpointCompare, MsgCompareUnavailable, err)
	}

	resp, err := c.do(ctx, http.MethodPost, EndpointCompare, bytes.NewReader(jsonData), "application/json", MsgCompareUnavailable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var errorResp ErrorResponse
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Error != "" {
			return nil, &Error{
				Type:       ErrTypeServer,
				Endpoint:   EndpointCompare,
				StatusCode: resp.StatusCode,
				Message:    errorResp.Error,
			}
		}
		return nil, NewStatusError(EndpointCompare, resp.StatusCode)
	}

	var result Comparison
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, decodeError(ctx, EndpointCompare, err)
	}

	c.log.InfoWithFields("comparison received", []logger.Field{
		logger.F("type", result.Type),
		logger.F("group_col", req.GroupCol),
		logger.F("value_col", req.ValueCol),
	})
	return &result, nil
}

// Health queries the backend root endpoint
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, EndpointHealth, http.NoBody, "", MsgHealthUnavailable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return nil, NewStatusError(EndpointHealth, resp.StatusCode)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, decodeError(ctx, EndpointHealth, err)
	}
	return &status, nil
}

// do paces, builds and sends a request. Transport failures are reported
// with unavailable as the user-facing message.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType, unavailable string) (*http.Response, error) {
	if c.limiter != nil {
		// Wait also fails early when the token would arrive after the deadline
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewErrorWithCause(ErrTypeCancelled, endpoint, MsgRequestCancelled, err)
		}
	}

	target := c.baseURL.JoinPath(endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, endpoint, unavailable, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isCancellation(ctx, err) {
			return nil, NewErrorWithCause(ErrTypeCancelled, endpoint, MsgRequestCancelled, err)
		}
		c.log.WarnWithFields("request failed", []logger.Field{
			logger.F("endpoint", endpoint),
			logger.F("request_id", requestID),
			logger.Error(err),
		})
		return nil, NewErrorWithCause(ErrTypeNetwork, endpoint, unavailable, err)
	}

	c.log.DebugWithFields("response", []logger.Field{
		logger.F("endpoint", endpoint),
		logger.F("request_id", requestID),
		logger.F("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	})
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// isCancellation covers caller cancellation, context deadlines and the
// http.Client timeout
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeError(ctx context.Context, endpoint string, err error) *Error {
	if isCancellation(ctx, err) {
		return NewErrorWithCause(ErrTypeCancelled, endpoint, MsgRequestCancelled, err)
	}
	return NewErrorWithCause(ErrTypeDecode, endpoint, MsgInvalidResponse, err)
}
