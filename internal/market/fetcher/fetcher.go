package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"pricebot/internal/market"
	"pricebot/internal/market/coingecko"
)

const vsCurrency = "usd"

// CoinSource is the slice of the CoinGecko client the fetcher needs.
type CoinSource interface {
	GetCoin(ctx context.Context, id string, opts ...coingecko.CoinGeckoAPIClientOption) (*coingecko.Coin, error)
	GetMarketChart(ctx context.Context, id, vsCurrency string, days int, opts ...coingecko.CoinGeckoAPIClientOption) (*coingecko.MarketChart, error)
}

type Config struct {
	// ChartDays is the history window used by History. Defaults to 1.
	ChartDays int
}

// Fetcher turns provider payloads into validated market values.
// Each call issues exactly one request; there is no retry.
type Fetcher struct {
	cfg    Config
	source CoinSource
}

func New(cfg Config, source CoinSource) *Fetcher {
	if cfg.ChartDays <= 0 {
		cfg.ChartDays = 1
	}
	return &Fetcher{cfg: cfg, source: source}
}

// Fetch returns the current snapshot for id. Errors are *market.FetchError of
// kind market.ErrUpstreamUnavailable or market.ErrIncompleteData.
func (f *Fetcher) Fetch(ctx context.Context, id market.CoinID) (market.Snapshot, error) {
	coin, err := f.source.GetCoin(ctx, string(id))
	if err != nil {
		return market.Snapshot{}, classify(ctx, id, err)
	}
	return snapshotFromCoin(id, coin)
}

// History returns the USD price series of id over the configured window,
// oldest first. Fewer than two usable points is ErrIncompleteData.
func (f *Fetcher) History(ctx context.Context, id market.CoinID) ([]market.PricePoint, error) {
	chart, err := f.source.GetMarketChart(ctx, string(id), vsCurrency, f.cfg.ChartDays)
	if err != nil {
		return nil, classify(ctx, id, err)
	}

	points := make([]market.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 || !finite(p[0]) || !finite(p[1]) {
			continue
		}
		points = append(points, market.PricePoint{Time: time.UnixMilli(int64(p[0])).UTC(), Price: p[1]})
	}
	if len(points) < 2 {
		return nil, &market.FetchError{ID: id, Kind: market.ErrIncompleteData, Err: fmt.Errorf("price history has %d points", len(points))}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// classify maps client errors onto the fetch error taxonomy. An undecodable
// body means a required field was absent or not numeric.
// A canceled or expired request is never blamed on the payload.
func classify(ctx context.Context, id market.CoinID, err error) error {
	if ctx.Err() == nil && errors.Is(err, coingecko.ErrMalformedResponse) {
		return &market.FetchError{ID: id, Kind: market.ErrIncompleteData, Err: err}
	}
	return &market.FetchError{ID: id, Kind: market.ErrUpstreamUnavailable, Err: err}
}

func snapshotFromCoin(id market.CoinID, coin *coingecko.Coin) (market.Snapshot, error) {
	var missing []string
	incomplete := func() error {
		return &market.FetchError{ID: id, Kind: market.ErrIncompleteData, Err: fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))}
	}

	if coin == nil || coin.MarketData == nil {
		missing = append(missing, "market_data")
		return market.Snapshot{}, incomplete()
	}
	if strings.TrimSpace(coin.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(coin.Symbol) == "" {
		missing = append(missing, "symbol")
	}

	md := coin.MarketData
	field := func(name string, m map[string]*float64) float64 {
		v, ok := m[vsCurrency]
		if !ok || v == nil || !finite(*v) {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	s := market.Snapshot{
		ID:           id,
		Symbol:       strings.ToUpper(strings.TrimSpace(coin.Symbol)),
		Name:         strings.TrimSpace(coin.Name),
		PriceUSD:     field("current_price", md.CurrentPrice),
		MarketCapUSD: field("market_cap", md.MarketCap),
		Volume24hUSD: field("total_volume", md.TotalVolume),
		Change1h:     field("price_change_percentage_1h_in_currency", md.PriceChangePercentage1hInCurrency),
		Change24h:    field("price_change_percentage_24h_in_currency", md.PriceChangePercentage24hInCurrency),
		Change7d:     field("price_change_percentage_7d_in_currency", md.PriceChangePercentage7dInCurrency),
		LogoURL:      coin.Image.Large,
	}
	if len(missing) > 0 {
		return market.Snapshot{}, incomplete()
	}
	return s, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
