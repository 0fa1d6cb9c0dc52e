package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"pricebot/internal/app"
	"pricebot/internal/config"
	"pricebot/internal/render"
)

func main() {
	var symbol string
	var modeName string
	var out string
	var configPath string
	var timeout int

	flag.StringVar(&symbol, "symbol", "BTC", "ticker or coin id to look up")
	flag.StringVar(&modeName, "mode", "text", "reply mode: text, card or chart")
	flag.StringVar(&out, "out", "card.png", "output file for image replies")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.IntVar(&timeout, "timeout", 0, "request timeout seconds (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if timeout > 0 {
		cfg.CoinGecko.RequestTimeoutSec = timeout
	}
	mode, err := render.ParseMode(modeName)
	if err != nil {
		logrus.Fatal(err)
	}

	log, err := app.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	pipeline, err := app.NewPipeline(cfg, log)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	resp := pipeline.Run(ctx, symbol, mode)
	if resp.Kind == render.KindImage {
		if err := os.WriteFile(out, resp.Image, 0o644); err != nil {
			log.Fatalf("write %s: %v", out, err)
		}
		log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Infof("wrote %s (%d bytes)", out, len(resp.Image))
		return
	}
	fmt.Println(resp.Text)
}
