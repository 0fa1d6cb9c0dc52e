package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"pricebot/internal/render"
)

const helpText = "🤖 Crypto Price Bot\n" +
	"/p <token> - price card with chart\n" +
	"/chart <token> - price chart\n" +
	"/price <token> - price as text\n" +
	"Example: /p btc or /p ethereum"

// Sender delivers a message to Telegram. *tgbotapi.BotAPI implements it.
//
//go:generate mockgen -package=bot_test -destination=mock_handler_test.go -source=handler.go
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Runner produces the reply for one command.
type Runner interface {
	Run(ctx context.Context, ticker string, mode render.Mode) render.Response
}

// commands maps command names to reply modes.
var commands = map[string]render.Mode{
	"p":     render.ModeCard,
	"card":  render.ModeCard,
	"chart": render.ModeChart,
	"c":     render.ModeChart,
	"price": render.ModeText,
}

// Handler dispatches command messages to the pipeline and sends the replies.
type Handler struct {
	sender   Sender
	pipeline Runner
}

func NewHandler(sender Sender, pipeline Runner) *Handler {
	return &Handler{sender: sender, pipeline: pipeline}
}

// Handle processes one message. Non-command messages and unknown commands are ignored.
func (h *Handler) Handle(ctx context.Context, msg *tgbotapi.Message) error {
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}

	cmd := strings.ToLower(msg.Command())
	if cmd == "start" || cmd == "help" {
		return h.reply(msg, render.TextResponse(helpText))
	}
	mode, ok := commands[cmd]
	if !ok {
		return nil
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return h.reply(msg, render.TextResponse(fmt.Sprintf("❌ Please provide a token. Example: /%s bitcoin", cmd)))
	}
	return h.reply(msg, h.pipeline.Run(ctx, args[0], mode))
}

func (h *Handler) reply(msg *tgbotapi.Message, resp render.Response) error {
	chatID := msg.Chat.ID

	if resp.Kind == render.KindImage {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "card.png", Bytes: resp.Image})
		photo.ReplyToMessageID = msg.MessageID
		if _, err := h.sender.Send(photo); err != nil {
			return errors.Wrapf(err, "send photo to chat %d", chatID)
		}
		return nil
	}

	text := tgbotapi.NewMessage(chatID, resp.Text)
	text.ReplyToMessageID = msg.MessageID
	if _, err := h.sender.Send(text); err != nil {
		return errors.Wrapf(err, "send message to chat %d", chatID)
	}
	return nil
}
