package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"parimarket/internal/config"
)

// Client fetches spot prices from a Binance-style ticker endpoint
// (GET <endpoint>?symbol=BTCUSDT -> {"symbol":"BTCUSDT","price":"..."}).
// No API key required.
type Client struct {
	HTTP     *http.Client
	Endpoint string
}

func NewClient(cfg config.PriceFeedConfig) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: cfg.Timeout},
		Endpoint: cfg.Endpoint,
	}
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (c *Client) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return decimal.Zero, fmt.Errorf("price feed endpoint not configured")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, fmt.Errorf("symbol required")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseTicker(body)
}

// ParseTicker decodes a ticker response body into a price.
func ParseTicker(body []byte) (decimal.Decimal, error) {
	var ticker tickerResponse
	if err := json.Unmarshal(body, &ticker); err != nil {
		return decimal.Zero, fmt.Errorf("decode ticker: %w", err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(ticker.Price))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", ticker.Price, err)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("non-positive price %s", price)
	}
	return price, nil
}
