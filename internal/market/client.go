package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"coinSage/internal/model"
)

// Client wraps the CoinGecko REST API. Calls are rate limited but carry no
// explicit timeout; transport defaults apply.
type Client struct {
	baseURL    string
	vsCurrency string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a CoinGecko client. rps bounds outgoing requests per
// second to stay inside the free-tier budget.
func NewClient(baseURL, vsCurrency string, rps float64, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		vsCurrency: vsCurrency,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// CoinsList returns the full coin catalog.
func (c *Client) CoinsList(ctx context.Context) ([]model.CoinCatalogEntry, error) {
	var catalog []model.CoinCatalogEntry
	if err := c.getJSON(ctx, "/coins/list", nil, &catalog); err != nil {
		return nil, err
	}
	c.logger.Debug("coin catalog retrieved", zap.Int("coins", len(catalog)))
	return catalog, nil
}

// CoinMarkets returns market rows for the given ids in one batched call.
func (c *Client) CoinMarkets(ctx context.Context, ids []string) ([]model.CoinMarket, error) {
	params := url.Values{}
	params.Set("vs_currency", c.vsCurrency)
	params.Set("ids", strings.Join(ids, ","))

	var markets []model.CoinMarket
	if err := c.getJSON(ctx, "/coins/markets", params, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// coinDetail returns current market metrics for one coin, with the unneeded
// sub-objects suppressed.
func (c *Client) coinDetail(ctx context.Context, id string) (coinDetailResponse, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "true")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")
	params.Set("sparkline", "false")

	var detail coinDetailResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id), params, &detail); err != nil {
		return coinDetailResponse{}, err
	}
	return detail, nil
}

// marketChart returns the daily price series for the trailing window.
func (c *Client) marketChart(ctx context.Context, id string, days int) (marketChartResponse, error) {
	params := url.Values{}
	params.Set("vs_currency", c.vsCurrency)
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("interval", "daily")

	var chart marketChartResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", params, &chart); err != nil {
		return marketChartResponse{}, err
	}
	return chart, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: HTTP %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
