// Package gateway is the single choke point for all backend calls.
// It attaches the bearer token, enforces the call deadline, classifies
// failures and normalizes every success into a response envelope.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/queueless/queueless-go/internal/models"
)

// DefaultTimeout bounds every backend call unless configured otherwise.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the persisted bearer token and clears it when
// the server reports the session dead. The credential store implements
// it; the gateway never mutates session state beyond this.
type TokenSource interface {
	Token() (string, error)
	Clear() error
}

// Request describes one backend call.
type Request struct {
	Method       string
	Endpoint     string // path relative to the base URL, e.g. "/concert"
	Body         any    // JSON-encoded when non-nil
	RequiresAuth bool
}

// Client is the HTTP request gateway.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	tokens  TokenSource

	mu        sync.Mutex
	onExpired func()
}

// New creates a gateway for the given backend. timeout <= 0 selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		tokens:  tokens,
	}
}

// OnSessionExpired registers the callback fired when a 401 is observed.
// The gateway holds exactly one callback; the last registration wins.
// Registering a no-op is the way to unregister.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// Do performs one backend call. On success the returned envelope is
// always populated: a server body already wrapped in the envelope shape
// is decoded as-is, anything else is wrapped around the raw body.
func (c *Client) Do(ctx context.Context, req Request) (*models.Envelope, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, cancel, err := c.newRequest(ctx, req.Method, req.Endpoint, body, req.RequiresAuth)
	if err != nil {
		return nil, err
	}
	defer cancel()
	httpReq.Header.Set("Content-Type", "application/json")

	return c.send(httpReq)
}

// Upload performs a multipart POST carrying form fields plus one file
// attachment. Used for payment-proof submission.
func (c *Client) Upload(ctx context.Context, endpoint string, fields map[string]string, fileField, fileName string, file io.Reader, requiresAuth bool) (*models.Envelope, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	part, err := form.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	httpReq, cancel, err := c.newRequest(ctx, http.MethodPost, endpoint, &buf, requiresAuth)
	if err != nil {
		return nil, err
	}
	defer cancel()
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	return c.send(httpReq)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, requiresAuth bool) (*http.Request, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("X-Request-Id", uuid.NewString())

	if requiresAuth {
		// A missing token is not pre-empted here; the server decides
		// whether the call needed one.
		token, err := c.tokens.Token()
		if err != nil {
			log.Printf("gateway: failed to read token: %v", err)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, cancel, nil
}

func (c *Client) send(req *http.Request) (*models.Envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessionExpired()
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(raw, resp),
		}
	}

	return normalize(raw, resp.StatusCode), nil
}

// sessionExpired clears the stored credentials and fires the registered
// callback. Called at most once per gateway call, only on 401.
func (c *Client) sessionExpired() {
	if err := c.tokens.Clear(); err != nil {
		log.Printf("gateway: failed to clear credentials: %v", err)
	}

	c.mu.Lock()
	fn := c.onExpired
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// serverMessage extracts the server-supplied error message, falling
// back to a generic status line when the body is not parseable.
func serverMessage(raw []byte, resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// normalize returns the server body as an envelope, synthesizing one
// when the body is not already wrapped.
func normalize(raw []byte, statusCode int) *models.Envelope {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err == nil {
		if _, wrapped := probe["success"]; wrapped {
			var env models.Envelope
			if err := json.Unmarshal(raw, &env); err == nil {
				if env.StatusCode == 0 {
					env.StatusCode = statusCode
				}
				return &env
			}
		}
	}

	return &models.Envelope{
		Success:    true,
		Data:       json.RawMessage(raw),
		StatusCode: statusCode,
	}
}
