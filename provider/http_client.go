package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig holds configuration for the provider HTTP client
type HTTPClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxIdleConns int
}

// ProviderHTTPClient wraps http.Client with the request shapes bank gateways
// expect. Failures come back as *TransportError so handlers can map them to
// a gateway-error status without string matching.
type ProviderHTTPClient struct {
	client   *http.Client
	baseURL  string
	provider string
}

// CreateHTTPClientConfig returns client settings for a provider base URL.
// Production gets a longer timeout since bank gateways can be slow under
// load and a dropped provisioning request is worse than a slow one.
func CreateHTTPClientConfig(baseURL string, isProduction bool) HTTPClientConfig {
	timeout := 30 * time.Second
	if isProduction {
		timeout = 60 * time.Second
	}
	return HTTPClientConfig{
		BaseURL: baseURL,
		Timeout: timeout,
	}
}

// NewProviderHTTPClient creates an HTTP client for a payment provider
func NewProviderHTTPClient(cfg HTTPClientConfig) *ProviderHTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}

	return &ProviderHTTPClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxIdle,
				MaxIdleConnsPerHost: maxIdle,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// SetProvider sets the provider name used in transport errors
func (c *ProviderHTTPClient) SetProvider(name string) {
	c.provider = name
}

// SendForm posts url-encoded form values and returns the raw response body
func (c *ProviderHTTPClient) SendForm(ctx context.Context, endpoint string, values url.Values) ([]byte, int, error) {
	return c.send(ctx, http.MethodPost, endpoint, []byte(values.Encode()), "application/x-www-form-urlencoded")
}

// SendFormEncodedBody posts an already-encoded body with a form content type.
// Some gateways require form-urlencoded as the content type even when the
// body is an XML document.
func (c *ProviderHTTPClient) SendFormEncodedBody(ctx context.Context, endpoint string, body []byte) ([]byte, int, error) {
	return c.send(ctx, http.MethodPost, endpoint, body, "application/x-www-form-urlencoded")
}

// SendJSON posts a JSON body and returns the raw response body
func (c *ProviderHTTPClient) SendJSON(ctx context.Context, endpoint string, body []byte) ([]byte, int, error) {
	return c.send(ctx, http.MethodPost, endpoint, body, "application/json")
}

func (c *ProviderHTTPClient) send(ctx context.Context, method, endpoint string, body []byte, contentType string) ([]byte, int, error) {
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		fullURL = c.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &TransportError{Provider: c.provider, Endpoint: fullURL, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Provider: c.provider, Endpoint: fullURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Provider: c.provider, Endpoint: fullURL, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return respBody, resp.StatusCode, &TransportError{
			Provider: c.provider,
			Endpoint: fullURL,
			Err:      fmt.Errorf("gateway returned HTTP %d", resp.StatusCode),
		}
	}

	return respBody, resp.StatusCode, nil
}
