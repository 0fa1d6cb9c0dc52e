package bot_test

import (
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"pricebot/internal/bot"
	"pricebot/internal/render"
)

const chatID int64 = 42

// command builds a message whose leading entity marks a bot command.
func command(text string) *tgbotapi.Message {
	n := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		n = i
	}
	return &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}
}

// expectText asserts the next send is a text reply and returns a pointer to the captured text.
func expectText(t *testing.T, sender *MockSender) *string {
	t.Helper()
	var got string
	sender.EXPECT().
		Send(gomock.Any()).
		DoAndReturn(func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
			msg, ok := c.(tgbotapi.MessageConfig)
			require.Truef(t, ok, "expected a text message, got %T", c)
			require.Equal(t, chatID, msg.ChatID)
			require.Equal(t, 7, msg.ReplyToMessageID)
			got = msg.Text
			return tgbotapi.Message{}, nil
		}).
		Times(1)
	return &got
}

func TestHandle_CardCommandSendsPhoto(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().
		Run(gomock.Any(), "BTC", render.ModeCard).
		Return(render.ImageResponse([]byte("png-bytes")))

	sender := NewMockSender(ctrl)
	sender.EXPECT().
		Send(gomock.Any()).
		DoAndReturn(func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
			photo, ok := c.(tgbotapi.PhotoConfig)
			require.Truef(t, ok, "expected a photo, got %T", c)
			require.Equal(t, chatID, photo.ChatID)
			require.Equal(t, 7, photo.ReplyToMessageID)
			file, ok := photo.File.(tgbotapi.FileBytes)
			require.True(t, ok)
			require.Equal(t, "card.png", file.Name)
			require.Equal(t, []byte("png-bytes"), file.Bytes)
			return tgbotapi.Message{}, nil
		})

	// Act
	err := bot.NewHandler(sender, runner).Handle(t.Context(), command("/p BTC"))

	// Assert
	require.NoError(t, err)
}

func TestHandle_CommandModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		ticker string
		mode   render.Mode
	}{
		{"/price eth", "eth", render.ModeText},
		{"/card sol", "sol", render.ModeCard},
		{"/chart doge", "doge", render.ModeChart},
		{"/c ADA extra words", "ADA", render.ModeChart},
		{"/chart@pricebot_bot ton", "ton", render.ModeChart},
		{"/P btc", "btc", render.ModeCard},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			runner := NewMockRunner(ctrl)
			runner.EXPECT().
				Run(gomock.Any(), tt.ticker, tt.mode).
				Return(render.TextResponse("reply"))
			sender := NewMockSender(ctrl)
			got := expectText(t, sender)

			require.NoError(t, bot.NewHandler(sender, runner).Handle(t.Context(), command(tt.text)))
			require.Equal(t, "reply", *got)
		})
	}
}

func TestHandle_MissingArgument(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	sender := NewMockSender(ctrl)
	got := expectText(t, sender)

	require.NoError(t, bot.NewHandler(sender, runner).Handle(t.Context(), command("/p")))
	require.Equal(t, "❌ Please provide a token. Example: /p bitcoin", *got)
}

func TestHandle_Help(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"/start", "/help"} {
		ctrl := gomock.NewController(t)
		sender := NewMockSender(ctrl)
		got := expectText(t, sender)

		require.NoError(t, bot.NewHandler(sender, NewMockRunner(ctrl)).Handle(t.Context(), command(text)))
		require.Contains(t, *got, "/p <token>")
	}
}

func TestHandle_IgnoresNonCommands(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any()).Times(0)
	h := bot.NewHandler(sender, NewMockRunner(ctrl))

	require.NoError(t, h.Handle(t.Context(), nil))
	require.NoError(t, h.Handle(t.Context(), &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: "hello"}))
	require.NoError(t, h.Handle(t.Context(), command("/unknown btc")))
}

func TestHandle_SendErrorIsReturned(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), "btc", render.ModeText).Return(render.TextResponse("reply"))
	cause := errors.New("Bad Request: chat not found")
	sender := NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any()).Return(tgbotapi.Message{}, cause)

	err := bot.NewHandler(sender, runner).Handle(t.Context(), command("/price btc"))

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "chat 42")
}
