package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/credentials"
)

const (
	defaultTimeout = 10 * time.Second

	// maxResponseSize bounds the bytes read from any identity response.
	maxResponseSize = 1 << 20
)

// Client talks to the remote pairing and identity service.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL. A non-positive timeout
// uses the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type pairRequest struct {
	DeviceID string `json:"device_id"`
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
}

// Pair registers deviceID with the service and returns the issued
// identity credentials.
func (c *Client) Pair(ctx context.Context, deviceID string) (credentials.Credentials, error) {
	var out credentialsBody
	if err := c.do(ctx, http.MethodPost, "/pair", "", pairRequest{DeviceID: deviceID}, &out); err != nil {
		return credentials.Credentials{}, fmt.Errorf("pair: %w", err)
	}

	creds := credentials.Credentials{Username: out.Username, Password: out.Password, Scope: credentials.ScopeHumeUser}
	if !creds.Valid() {
		return credentials.Credentials{}, fmt.Errorf("pair: %w: missing username or password", ErrMalformedResponse)
	}
	return creds, nil
}

// Login opens a session with previously issued identity credentials.
func (c *Client) Login(ctx context.Context, creds credentials.Credentials) (credentials.Session, error) {
	var out loginResponse
	body := credentialsBody{Username: creds.Username, Password: creds.Password}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return credentials.Session{}, fmt.Errorf("login: %w", err)
	}

	if out.SessionID == "" {
		return credentials.Session{}, fmt.Errorf("login: %w: missing session_id", ErrMalformedResponse)
	}
	return credentials.Session{ID: out.SessionID}, nil
}

// BrokerCredentials fetches message transport credentials delegated to the
// session.
func (c *Client) BrokerCredentials(ctx context.Context, sess credentials.Session) (credentials.Credentials, error) {
	var out credentialsBody
	if err := c.do(ctx, http.MethodGet, "/broker-credentials", "Session "+sess.ID, nil, &out); err != nil {
		return credentials.Credentials{}, fmt.Errorf("broker credentials: %w", err)
	}

	creds := credentials.Credentials{Username: out.Username, Password: out.Password, Scope: credentials.ScopeBroker}
	if !creds.Valid() {
		return credentials.Credentials{}, fmt.Errorf("broker credentials: %w: missing username or password", ErrMalformedResponse)
	}
	return creds, nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path, authorization string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d", ErrRejected, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
