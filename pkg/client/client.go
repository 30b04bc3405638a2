// Package client talks to the generic REST resource API
// (/api/resource/<type>[/<id>]) that backs every record type.
package client

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordforms/internal/logging"
)

// ResourcePrefix is the collection root of the resource API.
const ResourcePrefix = "/api/resource/"

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// Record is one decoded resource.
type Record map[string]any

// ID returns the record identifier (id, then _id, then name).
func (r Record) ID() string {
	for _, key := range []string{"id", "_id", "name"} {
		if value, ok := r[key]; ok && value != nil {
			if s := strings.TrimSpace(fmt.Sprint(value)); s != "" {
				return s
			}
		}
	}
	return ""
}

// String returns the trimmed string form of key, or "" when absent.
func (r Record) String(key string) string {
	value, ok := r[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout, Transport: c.http.Transport}
		}
	}
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithLogger routes request logs to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides the correlation id generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// Client is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	token     string
	logger    logrus.FieldLogger
	requestID func() string
}

// New builds a client rooted at baseURL (scheme and host, optional path
// prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("client: base URL is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base URL %q must be absolute", baseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logging.Discard(),
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// List fetches the collection of doctype filtered by query.
func (c *Client) List(ctx context.Context, doctype string, query url.Values) ([]Record, error) {
	var envelope struct {
		Data []Record `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, c.path(doctype, ""), query, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return []Record{}, nil
	}
	return envelope.Data, nil
}

// Get fetches a single record.
func (c *Client) Get(ctx context.Context, doctype, id string, query url.Values) (Record, error) {
	return c.single(ctx, http.MethodGet, c.path(doctype, id), query, nil)
}

// Create posts body to the doctype collection.
func (c *Client) Create(ctx context.Context, doctype string, body any) (Record, error) {
	return c.single(ctx, http.MethodPost, c.path(doctype, ""), nil, body)
}

// Update puts body to the record.
func (c *Client) Update(ctx context.Context, doctype, id string, query url.Values, body any) (Record, error) {
	return c.single(ctx, http.MethodPut, c.path(doctype, id), query, body)
}

// Delete removes the record.
func (c *Client) Delete(ctx context.Context, doctype, id string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, c.path(doctype, id), query, nil, nil)
}

func (c *Client) single(ctx context.Context, method, path string, query url.Values, body any) (Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, query, body, &raw); err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

func (c *Client) path(doctype, id string) string {
	p := ResourcePrefix + url.PathEscape(strings.TrimSpace(doctype))
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := *c.base
	target.Path = c.base.Path + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	requestID := c.requestID()
	req.Header.Set(HeaderRequestID, requestID)

	logger := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Debug("resource request failed")
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("resource request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeRecord(raw json.RawMessage) (Record, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Record{}, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("client: decode record: %w", err)
	}
	if data, ok := envelope["data"]; ok {
		var record Record
		if err := json.Unmarshal(data, &record); err == nil && record != nil {
			return record, nil
		}
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("client: decode record: %w", err)
	}
	return record, nil
}

func errorMessage(data []byte) string {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	switch typed := payload.Error.(type) {
	case string:
		if msg := strings.TrimSpace(typed); msg != "" {
			return msg
		}
	case map[string]any:
		if msg, ok := typed["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
	}
	return strings.TrimSpace(payload.Message)
}
