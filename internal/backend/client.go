// Package backend is a client for the hosted backend-as-a-service the app
// persists to: a PostgREST-style table API under /rest/v1 and a GoTrue-style
// auth API under /auth/v1.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNotConfigured = errors.New("backend configuration is missing, set the backend url and anon key")

const defaultTimeout = 30 * time.Second

type Config struct {
	URL     string
	AnonKey string
	// optional, an otelhttp instrumented client with a default timeout is used when nil
	HTTPClient *http.Client
}

type Client struct {
	baseURL     *url.URL
	anonKey     string
	accessToken string
	httpClient  *http.Client
}

// New returns ErrNotConfigured when URL or AnonKey is empty. Callers treat
// that as "no backend": every data access degrades to an empty result.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, ErrNotConfigured
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("backend url [%s] must be absolute", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		}
	}

	return &Client{
		baseURL:    baseURL,
		anonKey:    cfg.AnonKey,
		httpClient: httpClient,
	}, nil
}

// WithAccessToken returns a copy of the client acting on behalf of a signed
// in user, so row level security applies to every query it makes.
func (c *Client) WithAccessToken(token string) *Client {
	cp := *c
	cp.accessToken = token
	return &cp
}

func (c *Client) AccessToken() string {
	return c.accessToken
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

type request struct {
	method  string
	path    string
	params  url.Values
	headers http.Header
	body    any
	token   string
}

// do performs the request and decodes a 2xx JSON body into out (when out is
// not nil). Non 2xx answers are decoded into *APIError.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		bodyBytes, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.endpoint(req.path, req.params), body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	for k, vals := range req.headers {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("apikey", c.anonKey)
	token := req.token
	if token == "" {
		token = c.accessToken
	}
	if token == "" {
		token = c.anonKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBytes)
	}

	if out == nil || len(bytes.TrimSpace(respBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
