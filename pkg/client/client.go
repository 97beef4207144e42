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
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNotLoggedIn is returned by calls that need a session when none is set.
var ErrNotLoggedIn = errors.New("not logged in: call Login or use WithBearerToken")

// APIError is a non-2xx response the SDK could not map to a domain value.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a tokend server.
type Client struct {
	base       string
	httpClient *http.Client

	// guarded by mu
	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client. Later options never modify it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a session token obtained earlier.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// WithTimeout overrides the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
		return nil
	}
}

// New creates a Client for the server at base, e.g. "http://localhost:8080".
func New(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, errors.New("server URL is required")
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Token returns the current session token, or "".
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerToken
}

// Login opens a session for userID and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, userID string) (*LoginResult, error) {
	var out LoginResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/session", map[string]string{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.bearerToken = out.Token
	c.mu.Unlock()
	return &out, nil
}

// Logout ends the session and forgets the token.
func (c *Client) Logout(ctx context.Context) (*Status, error) {
	if c.Token() == "" {
		return nil, ErrNotLoggedIn
	}
	var out struct {
		Status Status `json:"status"`
	}
	if err := c.call(ctx, http.MethodDelete, "/api/v1/session", nil, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.bearerToken = ""
	c.mu.Unlock()
	return &out.Status, nil
}

// Me returns the dashboard of the logged-in identity.
func (c *Client) Me(ctx context.Context) (*Dashboard, error) {
	if c.Token() == "" {
		return nil, ErrNotLoggedIn
	}
	var out Dashboard
	if err := c.call(ctx, http.MethodGet, "/api/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Info returns the token summary.
func (c *Client) Info(ctx context.Context) (*TokenInfo, error) {
	var out TokenInfo
	if err := c.call(ctx, http.MethodGet, "/api/v1/token", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance returns the balance of any identity; unknown identities hold 0.
func (c *Client) Balance(ctx context.Context, userID string) (*BalanceResult, error) {
	var out BalanceResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/balances/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balances returns every known identity and its balance.
func (c *Client) Balances(ctx context.Context) (map[string]int64, error) {
	var out struct {
		Balances map[string]int64 `json:"balances"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/balances", nil, &out); err != nil {
		return nil, err
	}
	return out.Balances, nil
}

// Holders returns explorer rows, largest balance first.
func (c *Client) Holders(ctx context.Context) ([]Holder, error) {
	var out struct {
		Holders []Holder `json:"holders"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/holders", nil, &out); err != nil {
		return nil, err
	}
	return out.Holders, nil
}

// Recent returns up to limit transactions, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	return c.transactions(ctx, "recent", limit)
}

// History returns the full transaction history, oldest first.
func (c *Client) History(ctx context.Context) ([]Transaction, error) {
	return c.transactions(ctx, "oldest", 0)
}

func (c *Client) transactions(ctx context.Context, order string, limit int) ([]Transaction, error) {
	q := url.Values{"order": {order}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/transactions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// Transfer sends amount tokens from the logged-in identity to to.
// A rejection by the ledger is returned in Outcome.Result with a nil error.
func (c *Client) Transfer(ctx context.Context, to string, amount int64) (*Outcome, error) {
	return c.act(ctx, "/api/v1/transfers", to, amount)
}

// Mint creates amount tokens for to. Only the creator's session succeeds.
func (c *Client) Mint(ctx context.Context, to string, amount int64) (*Outcome, error) {
	return c.act(ctx, "/api/v1/mints", to, amount)
}

func (c *Client) act(ctx context.Context, path, to string, amount int64) (*Outcome, error) {
	if c.Token() == "" {
		return nil, ErrNotLoggedIn
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, map[string]any{"to": to, "amount": amount})
	if err != nil {
		return nil, err
	}
	code, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}

	switch code {
	case http.StatusOK, http.StatusBadRequest, http.StatusUnprocessableEntity:
		var out Outcome
		if err := json.Unmarshal(body, &out); err == nil && out.Status.Message != "" {
			return &out, nil
		}
	}
	return nil, apiError(code, body)
}

// Journal returns the journal length and root hash.
func (c *Client) Journal(ctx context.Context) (*JournalOverview, error) {
	var out JournalOverview
	if err := c.call(ctx, http.MethodGet, "/api/v1/journal", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyJournal asks the server to walk the journal chain. A broken chain
// is returned as an error.
func (c *Client) VerifyJournal(ctx context.Context) error {
	var out struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/journal/verify", nil, &out); err != nil {
		return err
	}
	if !out.Valid {
		return fmt.Errorf("journal invalid: %s", out.Error)
	}
	return nil
}

// call performs a JSON request and decodes a 2xx body into out.
func (c *Client) call(ctx context.Context, method, path string, reqBody, out any) error {
	req, err := c.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	code, body, err := c.doStatusBody(req)
	if err != nil {
		return err
	}
	if code >= 300 {
		return apiError(code, body)
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, reqBody any) (*http.Request, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doStatusBody returns (statusCode, body, error) without failing on 4xx
// responses. The caller interprets the status code.
func (c *Client) doStatusBody(req *http.Request) (int, []byte, error) {
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(code int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{StatusCode: code, Message: msg}
}
