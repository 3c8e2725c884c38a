// Package apiclient is the typed REST client of the ERP backend. Every call
// goes through one resource+verb table and decodes the standard response
// envelope into the caller's response type.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const userAgent = "erpctl/1.0"

// Client talks to the backend. It holds the session token; it never
// retries, a failed call is returned to the caller as is.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	validate   *validator.Validate
	logger     *zap.Logger

	mu               sync.RWMutex
	token            string
	onSessionExpired func()
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the API rooted at cfg.BaseURL
func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	validate := validator.New()
	validate.SetTagName("binding")

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		validate:   validate,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken installs the session token sent with every call
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current session token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ClearToken drops the session token
func (c *Client) ClearToken() {
	c.SetToken("")
}

// OnSessionExpired registers a callback run after a 401 cleared the session
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSessionExpired = fn
}

// Call performs one resource verb and decodes the envelope's data into Resp.
// body is validated against its binding tags before anything is sent.
func Call[Resp any](ctx context.Context, c *Client, resource Resource, verb Verb, params Params, body any) (Resp, error) {
	var out Resp
	raw, err := c.Do(ctx, resource, verb, params, body)
	if err != nil {
		return out, err
	}
	if len(raw.Body) == 0 {
		return out, nil
	}

	var env envelope[Resp]
	if err := json.Unmarshal(raw.Body, &env); err != nil {
		return out, &Error{Kind: KindNetwork, Status: raw.Status, Message: "malformed response", Err: err}
	}
	return env.Data, nil
}

// RawResponse is an undecoded successful response
type RawResponse struct {
	Status      int
	ContentType string
	FileName    string
	Body        []byte
}

// IsJSON reports whether the body is a JSON envelope
func (r *RawResponse) IsJSON() bool {
	return strings.HasPrefix(r.ContentType, "application/json")
}

type envelope[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data"`
	Error   *errorInfo `json:"error"`
}

type errorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// Do performs one resource verb and returns the successful response
// undecoded. Failures come back as *Error.
func (c *Client) Do(ctx context.Context, resource Resource, verb Verb, params Params, body any) (*RawResponse, error) {
	ep, ok := Lookup(resource, verb)
	if !ok {
		return nil, fmt.Errorf("apiclient: no endpoint for %s %s", verb, resource)
	}
	if err := c.preflight(body); err != nil {
		return nil, err
	}

	path, query, err := ep.expand(params)
	if err != nil {
		return nil, err
	}
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	if u.Path, err = url.PathUnescape(u.RawPath); err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "reading response body", Err: err}
	}

	c.logger.Debug("API call",
		zap.String("method", ep.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &RawResponse{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			FileName:    attachmentName(resp.Header.Get("Content-Disposition")),
			Body:        data,
		}, nil
	}
	return nil, c.failure(resp.StatusCode, data, token != "")
}

// preflight blocks a call whose body fails its binding tags
func (c *Client) preflight(body any) error {
	if body == nil {
		return nil
	}
	v := reflect.ValueOf(body)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := c.validate.Struct(body)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return &Error{
		Kind:    KindValidation,
		Code:    "ERR_VALIDATION",
		Message: strings.Join(msgs, "; "),
		Err:     err,
	}
}

func (c *Client) failure(status int, data []byte, hadSession bool) error {
	apiErr := &Error{Kind: kindForStatus(status), Status: status, Message: http.StatusText(status)}

	var env envelope[json.RawMessage]
	if json.Unmarshal(data, &env) == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.RequestID = env.Error.RequestID
	}

	if status == http.StatusUnauthorized && hadSession {
		c.mu.Lock()
		c.token = ""
		hook := c.onSessionExpired
		c.mu.Unlock()

		apiErr.Err = ErrSessionExpired
		c.logger.Info("Session expired, token cleared", zap.String("code", apiErr.Code))
		if hook != nil {
			hook()
		}
	}
	return apiErr
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
