package market

import (
	"errors"
	"fmt"
	"time"
)

// CoinID is the provider-internal key of an asset, e.g. "bitcoin".
type CoinID string

// Snapshot is the point-in-time market data for one asset, normalized to USD.
// It is produced once per request and never cached.
type Snapshot struct {
	ID           CoinID
	Symbol       string
	Name         string
	PriceUSD     float64
	MarketCapUSD float64
	Volume24hUSD float64
	Change1h     float64
	Change24h    float64
	Change7d     float64
	LogoURL      string
}

// PricePoint is one sample of a price series.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Error kinds. Resolution and fetch errors match these with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrIncompleteData      = errors.New("incomplete data")
)

// ResolutionError is returned when a ticker cannot be mapped to a CoinID.
// Kind is ErrNotFound or ErrUpstreamUnavailable.
type ResolutionError struct {
	Ticker string
	Kind   error
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %q: %v: %v", e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("resolve %q: %v", e.Ticker, e.Kind)
}

func (e *ResolutionError) Is(target error) bool { return target == e.Kind }

func (e *ResolutionError) Unwrap() error { return e.Err }

// FetchError is returned when market data for a CoinID cannot be produced.
// Kind is ErrIncompleteData or ErrUpstreamUnavailable.
type FetchError struct {
	ID   CoinID
	Kind error
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %q: %v: %v", e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %q: %v", e.ID, e.Kind)
}

func (e *FetchError) Is(target error) bool { return target == e.Kind }

func (e *FetchError) Unwrap() error { return e.Err }
