package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingToken is returned by Validate when no bot token is configured.
var ErrMissingToken = errors.New("config: bot token is required (set BOT_TOKEN)")

type Bot struct {
	Token          string `json:"token"`
	Debug          bool   `json:"debug"`
	PollTimeoutSec int    `json:"poll_timeout_sec"`
}

type CoinGecko struct {
	BaseURL           string `json:"base_url"`
	APIKey            string `json:"api_key"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	ChartDays         int    `json:"chart_days"`
}

type Render struct {
	BoldFontPath    string `json:"bold_font_path"`
	RegularFontPath string `json:"regular_font_path"`
	Watermark       string `json:"watermark"`
}

// Server is the optional status and preview listener. An empty port disables it.
type Server struct {
	Port string `json:"port"`
}

type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	Bot       Bot       `json:"bot"`
	CoinGecko CoinGecko `json:"coingecko"`
	Render    Render    `json:"render"`
	Server    Server    `json:"server"`
	Log       Log       `json:"log"`
}

func Default() Config {
	return Config{
		Bot: Bot{PollTimeoutSec: 60},
		CoinGecko: CoinGecko{
			BaseURL:           "https://api.coingecko.com/api/v3",
			RequestTimeoutSec: 5,
			ChartDays:         1,
		},
		// Font files are not bundled; images degrade to text until they exist.
		Render: Render{
			BoldFontPath:    "assets/fonts/Roboto-Bold.ttf",
			RegularFontPath: "assets/fonts/Roboto-Regular.ttf",
			Watermark:       "@pricebot",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports configuration the bot cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = strings.TrimSpace(v)
	}
	envBool("BOT_DEBUG", &cfg.Bot.Debug)
	envInt("BOT_POLL_TIMEOUT_SEC", 1, &cfg.Bot.PollTimeoutSec)

	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.CoinGecko.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	envInt("REQUEST_TIMEOUT_SEC", 1, &cfg.CoinGecko.RequestTimeoutSec)
	envInt("CHART_DAYS", 1, &cfg.CoinGecko.ChartDays)

	if v := os.Getenv("FONT_BOLD_PATH"); v != "" {
		cfg.Render.BoldFontPath = v
	}
	if v := os.Getenv("FONT_REGULAR_PATH"); v != "" {
		cfg.Render.RegularFontPath = v
	}
	if v, ok := os.LookupEnv("WATERMARK"); ok {
		cfg.Render.Watermark = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
}

// envInt sets *dst from key when it parses as an integer of at least min.
func envInt(key string, min int, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err == nil && x >= min {
		*dst = x
	}
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
}
