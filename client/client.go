// Package client is the authenticated HTTP layer every domain API
// sits on: it attaches the bearer credential to outgoing requests and
// transparently survives one token refresh cycle per request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/tokenstore"
)

// DefaultTimeout bounds every API call, refresh and replay included.
const DefaultTimeout = 10 * time.Second

// Config carries the client's connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client issues JSON requests against the Mekteb API through the
// authenticated transport. One instance exists per application run.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New wires the client with the refresh pipeline. The store supplies
// the outbound bearer token, the session controller persists
// refreshed pairs and broadcasts forced logouts, and the refresher
// performs the actual refresh call outside this transport.
func New(cfg Config, store tokenstore.Repo, session SessionController, refresher Refresher, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newAuthTransport(nil, store, session, refresher, log),
		},
		log: log.With().Str("component", "client").Logger(),
	}
}

// Get issues a GET request and decodes the response body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// PostRaw issues a POST with a prebuilt body, used for multipart
// uploads. The body is buffered so the transport can replay it after
// a token refresh.
func (c *Client) PostRaw(ctx context.Context, path, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "client: building request")
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(req, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "client: encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrapf(err, "client: building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "client: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "client: reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "client: decoding response body")
	}
	return nil
}

// apiError maps a non-2xx response to an APIError, keeping the server
// message intact for display.
func apiError(status int, body []byte) error {
	var env Envelope
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			message = env.Error
		} else if env.Message != "" {
			message = env.Message
		}
	}

	apiErr := &APIError{Status: status, Message: message}
	switch status {
	case http.StatusUnauthorized:
		apiErr.err = errors.ErrUnauthorized
	case http.StatusNotFound:
		apiErr.err = errors.ErrNotFound
	}
	return apiErr
}
