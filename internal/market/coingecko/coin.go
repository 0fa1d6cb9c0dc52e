package coingecko

import (
	"context"
	"fmt"
	"net/url"
)

// Coin is the subset of the coin detail payload the bot consumes.
// Currency maps hold nil for fields the API reports as null.
type Coin struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name"`
	Image      CoinImage   `json:"image"`
	MarketData *MarketData `json:"market_data"`
}

type CoinImage struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

type MarketData struct {
	CurrentPrice                       map[string]*float64 `json:"current_price"`
	MarketCap                          map[string]*float64 `json:"market_cap"`
	TotalVolume                        map[string]*float64 `json:"total_volume"`
	PriceChangePercentage1hInCurrency  map[string]*float64 `json:"price_change_percentage_1h_in_currency"`
	PriceChangePercentage24hInCurrency map[string]*float64 `json:"price_change_percentage_24h_in_currency"`
	PriceChangePercentage7dInCurrency  map[string]*float64 `json:"price_change_percentage_7d_in_currency"`
}

// GetCoin retrieves current data for the coin with the given id.
func (c *CoinGeckoAPIClient) GetCoin(ctx context.Context, id string, opts ...CoinGeckoAPIClientOption) (*Coin, error) {
	o := c.override(opts)

	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")
	query.Set("sparkline", "false")

	var coin Coin
	if err := o.getJSON(ctx, "/coins/"+url.PathEscape(id), query, &coin); err != nil {
		return nil, fmt.Errorf("coin %q: %w", id, err)
	}
	return &coin, nil
}
