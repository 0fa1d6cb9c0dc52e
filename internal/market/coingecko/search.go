package coingecko

import (
	"context"
	"fmt"
	"net/url"
)

// SearchCoin is a coin entry of the search endpoint.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

type searchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// Search looks up coins matching query. Results keep the API order, which
// ranks coins by market capitalization.
func (c *CoinGeckoAPIClient) Search(ctx context.Context, query string, opts ...CoinGeckoAPIClientOption) ([]SearchCoin, error) {
	o := c.override(opts)

	var body searchResponse
	if err := o.getJSON(ctx, "/search", url.Values{"query": {query}}, &body); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if body.Coins == nil {
		return []SearchCoin{}, nil
	}
	return body.Coins, nil
}
