// Package resolver maps user tickers such as "BTC" to CoinGecko coin ids.
//
// Lookup is a fixed table first and the provider's search endpoint second.
// The search step is best-effort: ticker symbols are not unique across listed
// assets, and the first matching search result (CoinGecko ranks them by market
// capitalization) is taken as the answer. For ambiguous symbols this may pick
// a different asset than the user meant.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"pricebot/internal/market"
	"pricebot/internal/market/coingecko"
)

// Searcher queries the provider's coin search endpoint.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...coingecko.CoinGeckoAPIClientOption) ([]coingecko.SearchCoin, error)
}

// DefaultSymbols maps upper-case tickers to CoinGecko ids for the most requested assets.
var DefaultSymbols = map[string]market.CoinID{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"USDC":  "usd-coin",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"TON":   "the-open-network",
	"ADA":   "cardano",
	"TRX":   "tron",
	"AVAX":  "avalanche-2",
	"SHIB":  "shiba-inu",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"BCH":   "bitcoin-cash",
	"LTC":   "litecoin",
	"NEAR":  "near",
	"MATIC": "matic-network",
	"UNI":   "uniswap",
	"XLM":   "stellar",
	"ATOM":  "cosmos",
	"XMR":   "monero",
	"ETC":   "ethereum-classic",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"SUI":   "sui",
	"PEPE":  "pepe",
	"FIL":   "filecoin",
}

// Resolver maps tickers to coin ids.
type Resolver struct {
	symbols  map[string]market.CoinID
	ids      map[string]market.CoinID
	searcher Searcher
	log      logrus.FieldLogger
}

// New returns a Resolver over symbols (DefaultSymbols when nil). A nil
// searcher disables the search fallback.
func New(symbols map[string]market.CoinID, searcher Searcher, log logrus.FieldLogger) *Resolver {
	if symbols == nil {
		symbols = DefaultSymbols
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Resolver{
		symbols:  make(map[string]market.CoinID, len(symbols)),
		ids:      make(map[string]market.CoinID, len(symbols)),
		searcher: searcher,
		log:      log,
	}
	for sym, id := range symbols {
		r.symbols[strings.ToUpper(sym)] = id
		r.ids[strings.ToLower(string(id))] = id
	}
	return r
}

// Resolve returns the coin id for ticker. Errors are *market.ResolutionError
// of kind market.ErrNotFound or market.ErrUpstreamUnavailable.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (market.CoinID, error) {
	query := strings.TrimSpace(ticker)
	if query == "" {
		return "", &market.ResolutionError{Ticker: ticker, Kind: market.ErrNotFound}
	}
	if id, ok := r.symbols[strings.ToUpper(query)]; ok {
		return id, nil
	}
	if id, ok := r.ids[strings.ToLower(query)]; ok {
		return id, nil
	}
	if r.searcher == nil {
		return "", &market.ResolutionError{Ticker: query, Kind: market.ErrNotFound}
	}

	coins, err := r.searcher.Search(ctx, query)
	if err != nil {
		return "", &market.ResolutionError{Ticker: query, Kind: market.ErrUpstreamUnavailable, Err: err}
	}

	if coin, ok := topMatch(coins, query); ok {
		r.log.WithFields(logrus.Fields{"ticker": query, "coin_id": coin.ID, "candidates": len(coins)}).
			Debug("resolved ticker via search")
		return market.CoinID(coin.ID), nil
	}
	return "", &market.ResolutionError{Ticker: query, Kind: market.ErrNotFound, Err: errors.New("no search result matches")}
}

// topMatch returns the first coin, in provider order, whose symbol or id
// equals query ignoring case. Fuzzy name matches are never accepted.
func topMatch(coins []coingecko.SearchCoin, query string) (coingecko.SearchCoin, bool) {
	for _, c := range coins {
		if c.ID == "" {
			continue
		}
		if strings.EqualFold(c.Symbol, query) || strings.EqualFold(c.ID, query) {
			return c, true
		}
	}
	return coingecko.SearchCoin{}, false
}
