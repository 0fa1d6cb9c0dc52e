package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"pricebot/internal/market"
	"pricebot/internal/render"
)

// Resolver maps a ticker to a coin id.
//
//go:generate mockgen -package=bot_test -destination=mock_pipeline_test.go -source=pipeline.go
type Resolver interface {
	Resolve(ctx context.Context, ticker string) (market.CoinID, error)
}

// Fetcher loads the current snapshot of a coin.
type Fetcher interface {
	Fetch(ctx context.Context, id market.CoinID) (market.Snapshot, error)
}

// Renderer formats a snapshot. It does not fail.
type Renderer interface {
	Render(ctx context.Context, s market.Snapshot, mode render.Mode) render.Response
}

// DefaultTimeout bounds each outbound stage when none is configured.
const DefaultTimeout = 5 * time.Second

// Pipeline runs one command: resolve, fetch, render. Resolution and fetch
// failures end the run with a short user-facing text; rendering degrades
// internally and always yields a reply.
type Pipeline struct {
	resolver Resolver
	fetcher  Fetcher
	renderer Renderer
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewPipeline(resolver Resolver, fetcher Fetcher, renderer Renderer, timeout time.Duration, log logrus.FieldLogger) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{resolver: resolver, fetcher: fetcher, renderer: renderer, timeout: timeout, log: log}
}

// Run produces the reply for ticker in the given mode.
func (p *Pipeline) Run(ctx context.Context, ticker string, mode render.Mode) render.Response {
	log := p.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"ticker":     ticker,
		"mode":       mode.String(),
	})
	start := time.Now()

	id, err := p.resolve(ctx, ticker)
	if err != nil {
		log.WithError(err).Info("resolution failed")
		return render.TextResponse(UserMessage(ticker, err))
	}
	log = log.WithField("coin_id", id)

	snapshot, err := p.fetch(ctx, id)
	if err != nil {
		log.WithError(err).Warn("fetch failed")
		return render.TextResponse(UserMessage(ticker, err))
	}

	rctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	resp := p.renderer.Render(rctx, snapshot, mode)

	kind := "text"
	if resp.Kind == render.KindImage {
		kind = "image"
	}
	log.WithFields(logrus.Fields{"reply": kind, "elapsed": time.Since(start).Round(time.Millisecond)}).Info("rendered")
	return resp
}

// resolve runs the resolver under the stage timeout. Anything other than a
// clean "not found" counts as the lookup service being unavailable.
func (p *Pipeline) resolve(ctx context.Context, ticker string) (market.CoinID, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	id, err := p.resolver.Resolve(ctx, ticker)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, market.ErrNotFound) || errors.Is(err, market.ErrUpstreamUnavailable) {
		return "", err
	}
	return "", &market.ResolutionError{Ticker: ticker, Kind: market.ErrUpstreamUnavailable, Err: err}
}

// fetch runs the fetcher under the stage timeout. Only validated payload
// problems are reported as incomplete data.
func (p *Pipeline) fetch(ctx context.Context, id market.CoinID) (market.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	s, err := p.fetcher.Fetch(ctx, id)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, market.ErrIncompleteData) || errors.Is(err, market.ErrUpstreamUnavailable) {
		return market.Snapshot{}, err
	}
	return market.Snapshot{}, &market.FetchError{ID: id, Kind: market.ErrUpstreamUnavailable, Err: err}
}

// UserMessage is the chat text shown for a failed resolution or fetch.
func UserMessage(ticker string, err error) string {
	t := displayTicker(ticker)
	switch {
	case errors.Is(err, market.ErrNotFound):
		return fmt.Sprintf("❌ Coin not found: %s. Try a ticker like BTC or an id like bitcoin.", t)
	case errors.Is(err, market.ErrIncompleteData):
		return fmt.Sprintf("❌ Incomplete market data for %s, please try again later.", t)
	case errors.Is(err, market.ErrUpstreamUnavailable):
		return "❌ Price service unavailable, please try again later."
	}
	return "❌ Could not retrieve token data."
}

func displayTicker(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > 32 {
		s = string(r[:32]) + "…"
	}
	return s
}
