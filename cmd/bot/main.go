package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"pricebot/internal/app"
	"pricebot/internal/bot"
	"pricebot/internal/config"
	"pricebot/internal/server"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
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

	b, err := bot.New(bot.Config{
		Token:          cfg.Bot.Token,
		Debug:          cfg.Bot.Debug,
		PollTimeoutSec: cfg.Bot.PollTimeoutSec,
	}, pipeline, log)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	log.WithField("username", b.Username()).Info("bot authorized")

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.Server.Port != "" {
		srv = server.New(cfg.Server.Port, pipeline, log)
		go func() {
			log.Infof("server listening on :%s", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("server: %v", err)
				stop()
			}
		}()
	}

	if err := b.Run(ctx); err != nil {
		log.Errorf("bot: %v", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	log.Info("bot stopped")
}
