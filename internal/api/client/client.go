package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/reportconsole/internal/auth"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("API error: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("API error: %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Client talks JSON to the report backend. Session cookies are kept between
// calls; a bearer token is sent when configured.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request. Zero keeps the transport default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying client, cookie jar included.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Jar: jar},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.token != "" {
		info, err := auth.Inspect(c.token, time.Now())
		switch {
		case err != nil:
			c.log.Warn("api token is not a JWT", zap.Error(err))
		case info.Expired:
			c.log.Warn("api token has expired", zap.Time("expires_at", info.ExpiresAt), zap.String("subject", info.Subject))
		}
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) post(ctx context.Context, endpoint string, query url.Values, data, v interface{}) error {
	return c.send(ctx, http.MethodPost, endpoint, query, data, v)
}

func (c *Client) put(ctx context.Context, endpoint string, data, v interface{}) error {
	return c.send(ctx, http.MethodPut, endpoint, nil, data, v)
}

// postRaw returns the undecoded response body.
func (c *Client) postRaw(ctx context.Context, endpoint string, query url.Values, data interface{}) ([]byte, error) {
	body, err := encode(data)
	if err != nil {
		return nil, err
	}
	resp, err := c.doRequest(ctx, http.MethodPost, endpoint, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return raw, nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, data, v interface{}) error {
	body, err := encode(data)
	if err != nil {
		return err
	}
	resp, err := c.doRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode response of %s: %w", endpoint, err)
	}
	return nil
}

func encode(data interface{}) (io.Reader, error) {
	if data == nil {
		return nil, nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(jsonData), nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("api request", zap.String("method", method), zap.String("url", u.String()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Method: method, URL: u.String(), StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"Message"`
		}
		switch {
		case json.Unmarshal(raw, &errResp) == nil && errResp.Error != "":
			apiErr.Body = errResp.Error
		case errResp.Message != "":
			apiErr.Body = errResp.Message
		default:
			apiErr.Body = string(bytes.TrimSpace(raw))
		}
		return nil, apiErr
	}

	return resp, nil
}
