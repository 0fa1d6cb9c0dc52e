package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Token string
	Debug bool
	// PollTimeoutSec is the long polling timeout of getUpdates.
	PollTimeoutSec int
}

// Bot receives Telegram updates by long polling and handles each command on
// its own goroutine.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	cfg     Config
	log     logrus.FieldLogger
	wg      sync.WaitGroup
}

// New logs in with cfg.Token. The token comes from configuration loaded at startup.
func New(cfg Config, pipeline Runner, log logrus.FieldLogger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	if cfg.PollTimeoutSec <= 0 {
		cfg.PollTimeoutSec = 60
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram login")
	}
	api.Debug = cfg.Debug
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{api: api, handler: NewHandler(api, pipeline), cfg: cfg, log: log}, nil
}

func (b *Bot) Username() string { return b.api.Self.UserName }

// Run polls until ctx is canceled, then waits for in-flight commands. Commands
// already started finish under their own stage deadlines.
func (b *Bot) Run(ctx context.Context) error {
	work := context.WithoutCancel(ctx)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				if err := b.handler.Handle(work, msg); err != nil {
					b.log.WithError(err).WithField("chat_id", msg.Chat.ID).Error("reply failed")
				}
			}()
		}
	}
}
