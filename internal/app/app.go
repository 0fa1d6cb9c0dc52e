// Package app wires configuration into the command pipeline shared by the
// bot and the fetch CLI.
package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"pricebot/internal/bot"
	"pricebot/internal/config"
	"pricebot/internal/httpx"
	"pricebot/internal/market/coingecko"
	"pricebot/internal/market/fetcher"
	"pricebot/internal/market/resolver"
	"pricebot/internal/render"
)

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.Log) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", cfg.Format)
	}
	return log, nil
}

// Timeout is the per-stage deadline configured for outbound calls.
func Timeout(cfg config.Config) time.Duration {
	if cfg.CoinGecko.RequestTimeoutSec <= 0 {
		return bot.DefaultTimeout
	}
	return time.Duration(cfg.CoinGecko.RequestTimeoutSec) * time.Second
}

// NewPipeline builds the resolve, fetch and render chain from cfg.
func NewPipeline(cfg config.Config, log logrus.FieldLogger) (*bot.Pipeline, error) {
	timeout := Timeout(cfg)
	httpClient := httpx.New(timeout)

	opts := []coingecko.CoinGeckoAPIClientOption{coingecko.WithHTTPClient(httpClient)}
	if cfg.CoinGecko.BaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(strings.TrimRight(cfg.CoinGecko.BaseURL, "/")))
	}
	client, err := coingecko.NewCoinGeckoAPIClient(cfg.CoinGecko.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("coingecko client: %w", err)
	}

	fonts := render.FileFonts{BoldPath: cfg.Render.BoldFontPath, RegularPath: cfg.Render.RegularFontPath}
	if _, err := fonts.LoadFonts(); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"bold_font":    fonts.BoldPath,
			"regular_font": fonts.RegularPath,
		}).Warn("image fonts unavailable, card and chart replies fall back to text until FONT_BOLD_PATH and FONT_REGULAR_PATH point at TTF files")
	}

	market := fetcher.New(fetcher.Config{ChartDays: cfg.CoinGecko.ChartDays}, client)
	renderer := render.New(
		render.Options{Watermark: cfg.Render.Watermark},
		fonts,
		render.HTTPLogoSource{Client: httpClient},
		market,
		log.WithField("component", "render"),
	)

	return bot.NewPipeline(
		resolver.New(nil, client, log.WithField("component", "resolver")),
		market,
		renderer,
		timeout,
		log,
	), nil
}
