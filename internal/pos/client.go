// Package pos talks to the external point-of-sale provider.  The sync
// is strictly best-effort: a checkout is already durable before any
// call here runs, and every failure is reported to the caller as an
// error to log, never to propagate into the checkout result.
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AuthMode selects how requests to the provider are authenticated.
// The mode is fixed at construction; nothing is re-sniffed per call.
type AuthMode int

const (
	// AuthOAuth obtains a bearer token for the store from a
	// TokenSource the host application wires in (the token refresh
	// plumbing itself lives outside this engine).
	AuthOAuth AuthMode = iota
	// AuthStatic authenticates with fixed client credentials and a
	// contract id.
	AuthStatic
)

// TokenSource supplies an access token for a POS store.  Implemented
// by the host application's OAuth layer.
type TokenSource interface {
	Token(ctx context.Context, storeID string) (string, error)
}

// Config carries the provider endpoint and credentials.
type Config struct {
	BaseURL      string
	Mode         AuthMode
	ClientID     string
	ClientSecret string
	ContractID   string
}

// Client is an HTTP client for the provider's transaction API.
type Client struct {
	cfg    Config
	tokens TokenSource
	http   *http.Client
}

// New constructs a Client.  tokens may be nil when cfg.Mode is
// AuthStatic.
func New(cfg Config, tokens TokenSource) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ErrNoReceipt is returned when the provider accepted the transaction
// but its response carried no usable receipt id.
var ErrNoReceipt = errors.New("pos response contained no receipt id")

// RegisterTransaction posts one transaction and returns the receipt
// reference assigned by the provider.
func (c *Client) RegisterTransaction(ctx context.Context, storeID string, tran *Transaction) (string, error) {
	body, err := json.Marshal(tran)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	switch c.cfg.Mode {
	case AuthStatic:
		req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
		req.Header.Set("X-Contract-Id", c.cfg.ContractID)
	default:
		if c.tokens == nil {
			return "", errors.New("pos: no token source configured for oauth mode")
		}
		token, err := c.tokens.Token(ctx, storeID)
		if err != nil {
			return "", fmt.Errorf("pos: obtain token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pos: transaction rejected with status %d: %s", resp.StatusCode, snippet)
	}
	var out struct {
		TransactionHeadID string `json:"transactionHeadId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.TransactionHeadID == "" {
		return "", ErrNoReceipt
	}
	return out.TransactionHeadID, nil
}
