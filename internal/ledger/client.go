// Package ledger is the HTTP/JSON client for the ledger engine. The engine
// authoritatively owns remaining_amount and status; this client only moves
// records over the wire and surfaces the engine's error details verbatim.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"splitbook/internal/core"
)

// CreateObligationRequest is the POST /obligations body.
type CreateObligationRequest struct {
	PersonName       string              `json:"person_name"`
	Type             core.ObligationType `json:"type"`
	Direction        core.Direction      `json:"direction"`
	TotalAmount      core.Money          `json:"total_amount"`
	ExpectedPerCycle core.Money          `json:"expected_per_cycle,omitempty"`
	Note             string              `json:"note,omitempty"`
	TrxnID           string              `json:"trxn_id,omitempty"`
}

// UpdateObligationRequest is the PATCH /obligations/{id} body. Nil fields
// are omitted and left unchanged by the engine.
type UpdateObligationRequest struct {
	PersonName       *string     `json:"person_name,omitempty"`
	TotalAmount      *core.Money `json:"total_amount,omitempty"`
	ExpectedPerCycle *core.Money `json:"expected_per_cycle,omitempty"`
	Note             *string     `json:"note,omitempty"`
}

// TransactionRequest is the POST /obligations/{id}/transactions body.
type TransactionRequest struct {
	Amount core.Money `json:"amount"`
	Note   string     `json:"note,omitempty"`
}

// Client talks to one ledger engine instance.
type Client struct {
	baseURL string
	hc      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches obligations, optionally scoped to a status. An empty status
// returns everything.
func (c *Client) List(ctx context.Context, status core.Status) ([]core.Obligation, error) {
	path := "/obligations"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var out []core.Obligation
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single obligation by id.
func (c *Client) Get(ctx context.Context, id string) (core.Obligation, error) {
	var out core.Obligation
	err := c.do(ctx, http.MethodGet, "/obligations/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Create creates one obligation and returns the engine's copy of it.
func (c *Client) Create(ctx context.Context, req CreateObligationRequest) (core.Obligation, error) {
	var out core.Obligation
	err := c.do(ctx, http.MethodPost, "/obligations", req, &out)
	return out, err
}

// Update patches the editable fields of an obligation.
func (c *Client) Update(ctx context.Context, id string, req UpdateObligationRequest) (core.Obligation, error) {
	var out core.Obligation
	err := c.do(ctx, http.MethodPatch, "/obligations/"+url.PathEscape(id), req, &out)
	return out, err
}

// Delete removes an obligation permanently.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/obligations/"+url.PathEscape(id), nil, nil)
}

// AddTransaction records a payment against an obligation.
func (c *Client) AddTransaction(ctx context.Context, id string, req TransactionRequest) (core.Obligation, error) {
	var out core.Obligation
	err := c.do(ctx, http.MethodPost, "/obligations/"+url.PathEscape(id)+"/transactions", req, &out)
	return out, err
}

// Settle marks an obligation fully resolved.
func (c *Client) Settle(ctx context.Context, id string) (core.Obligation, error) {
	var out core.Obligation
	err := c.do(ctx, http.MethodPost, "/obligations/"+url.PathEscape(id)+"/settle", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
