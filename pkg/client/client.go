// Package client talks to the animal REST API: list, create, update and
// delete. Every non-2xx answer is returned as a *StatusError.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-crudview/pkg/animal"
)

// DefaultResourcePath is the collection path used when none is configured.
const DefaultResourcePath = "/api/resources"

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithResourcePath overrides the collection path.
func WithResourcePath(path string) Option {
	return func(c *Client) {
		if p := strings.TrimSpace(path); p != "" {
			c.path = "/" + strings.Trim(p, "/")
		}
	}
}

// WithTimeout sets a per-request timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			clone := *c.http
			clone.Timeout = d
			c.http = &clone
		}
	}
}

// Client is safe for concurrent use.
type Client struct {
	base *url.URL
	path string
	http *http.Client
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base: base,
		path: DefaultResourcePath,
		http: &http.Client{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// List fetches the full collection in server order.
func (c *Client) List(ctx context.Context) ([]animal.Animal, error) {
	var out []animal.Animal
	if err := c.do(ctx, http.MethodGet, c.collectionURL(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create POSTs a record without id and returns the server's copy, which
// carries the assigned id.
func (c *Client) Create(ctx context.Context, a animal.Animal) (animal.Animal, error) {
	a.ID = 0
	var created animal.Animal
	if err := c.do(ctx, http.MethodPost, c.collectionURL(), a, &created); err != nil {
		return animal.Animal{}, err
	}
	if !created.HasID() {
		return animal.Animal{}, fmt.Errorf("client: create response carries no id")
	}
	return created, nil
}

// Update PUTs the full record.
func (c *Client) Update(ctx context.Context, a animal.Animal) error {
	if !a.HasID() {
		return errors.New("client: update requires an id")
	}
	return c.do(ctx, http.MethodPut, c.itemURL(a.ID), a, nil)
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) collectionURL() string {
	return c.base.JoinPath(c.path).String()
}

func (c *Client) itemURL(id int64) string {
	return c.base.JoinPath(c.path, strconv.FormatInt(id, 10)).String()
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s body: %w", method, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("client: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, URL: target, StatusCode: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, target, err)
	}
	return nil
}
