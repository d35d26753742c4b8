// Package gateway is the live broker backend: an HTTP client for the
// brokerage gateway sidecar that fronts the real account.
//
// The sidecar normalizes the brokerage API into two endpoints:
//   - GET  /v1/account  -> net liquidation, available funds, margin, positions
//   - POST /v1/orders   -> submit a market/limit order, returns the fill view
//
// Any transport failure or non-2xx status is surfaced as an error so the
// account cache and dispatcher fail closed.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/execbridge/account"
	"github.com/rustyeddy/execbridge/broker"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a gateway client. token is sent as a bearer credential
// on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type apiPosition struct {
	Symbol      string   `json:"symbol"`
	Quantity    float64  `json:"quantity"`
	AverageCost float64  `json:"average_cost"`
	MarketValue *float64 `json:"market_value,omitempty"`
}

type apiAccount struct {
	NetLiquidation    float64       `json:"net_liquidation"`
	AvailableFunds    float64       `json:"available_funds"`
	MarginUtilization *float64      `json:"margin_utilization,omitempty"`
	Positions         []apiPosition `json:"positions"`
}

func (c *Client) GetAccountInfo(ctx context.Context) (account.Snapshot, error) {
	var out apiAccount
	if err := c.do(ctx, http.MethodGet, "/v1/account", nil, &out); err != nil {
		return account.Snapshot{}, fmt.Errorf("get account: %w", err)
	}

	snap := account.Snapshot{
		Time:              time.Now().UTC(),
		NetLiquidation:    out.NetLiquidation,
		AvailableFunds:    out.AvailableFunds,
		MarginUtilization: out.MarginUtilization,
	}
	for _, p := range out.Positions {
		snap.Positions = append(snap.Positions, account.Position{
			Symbol:      p.Symbol,
			Quantity:    p.Quantity,
			AverageCost: p.AverageCost,
			MarketValue: p.MarketValue,
		})
	}
	return snap, nil
}

type apiOrderRequest struct {
	Ticker     string   `json:"ticker"`
	Quantity   float64  `json:"quantity"`
	Side       string   `json:"side"`
	OrderType  string   `json:"order_type"`
	LimitPrice *float64 `json:"limit_price,omitempty"`
	StopPrice  *float64 `json:"stop_price,omitempty"`
	AuditTag   string   `json:"audit_tag,omitempty"`
}

type apiOrderResult struct {
	OrderID        string  `json:"order_id"`
	Status         string  `json:"status"`
	FilledQuantity float64 `json:"filled_quantity"`
	FilledPrice    float64 `json:"filled_price"`
}

func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	body := apiOrderRequest{
		Ticker:     req.Ticker,
		Quantity:   req.Quantity,
		Side:       string(req.Side),
		OrderType:  string(req.Type),
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		AuditTag:   req.AuditTag,
	}

	var out apiOrderResult
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &out); err != nil {
		return broker.OrderResult{}, fmt.Errorf("submit order %s %s: %w", req.Side, req.Ticker, err)
	}

	return broker.OrderResult{
		OrderID:        out.OrderID,
		Status:         out.Status,
		FilledQuantity: out.FilledQuantity,
		FilledPrice:    out.FilledPrice,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
