package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// MarketChart holds [unix millis, value] pairs.
type MarketChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// GetMarketChart retrieves the price history of a coin over the last days.
func (c *CoinGeckoAPIClient) GetMarketChart(ctx context.Context, id, vsCurrency string, days int, opts ...CoinGeckoAPIClientOption) (*MarketChart, error) {
	o := c.override(opts)

	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("days", strconv.Itoa(days))

	var chart MarketChart
	if err := o.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", query, &chart); err != nil {
		return nil, fmt.Errorf("market chart %q: %w", id, err)
	}
	return &chart, nil
}
