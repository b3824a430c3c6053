package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for HTTP requests to the payment platform backend.
// Every request carries a caller context so in-flight calls can be aborted.
type Client struct {
	r *resty.Client
}

// New creates a new HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(30 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithBaseURL sets the base URL prepended to all request paths.
func (c *Client) WithBaseURL(u string) *Client {
	c.r.SetBaseURL(u)
	return c
}

// WithHeader sets a custom header.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// WithBearerToken sets a bearer token for authentication.
func (c *Client) WithBearerToken(token string) *Client {
	c.r.SetAuthToken(token)
	return c
}

// WithTransport overrides the underlying transport. Used by tests to point
// the client at an httptest server.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.r.SetTransport(rt)
	return c
}

// Get sends a GET request and returns the status code and response body.
func (c *Client) Get(ctx context.Context, url string) (int, []byte, error) {
	resp, err := c.r.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}

// Post sends a POST request with a JSON body and returns the status code
// and response body.
func (c *Client) Post(ctx context.Context, url string, body interface{}) (int, []byte, error) {
	req := c.r.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(url)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}

// Raw returns the underlying resty client for advanced usage.
func (c *Client) Raw() *resty.Client {
	return c.r
}
