// Package telegram pushes bot replies to the Telegram Bot API. It is a
// thin delivery layer: choices become an inline keyboard, nothing else is
// interpreted.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/sergeysynergy/omegabot/internal/bot"
	"github.com/sergeysynergy/omegabot/pkg/logger"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	sendTimeout    = 5 * time.Second
)

type Sender struct {
	token   string
	baseURL string
	rest    *resty.Client
	log     zerolog.Logger
}

type Option func(*Sender)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Sender) {
		s.log = log
	}
}

// WithBaseURL points the sender at a different API host, mainly for tests
// and local Bot API servers.
func WithBaseURL(url string) Option {
	return func(s *Sender) {
		s.baseURL = url
	}
}

func NewSender(token string, opts ...Option) *Sender {
	s := &Sender{
		token:   token,
		baseURL: defaultBaseURL,
		rest:    resty.New().SetTimeout(sendTimeout),
		log:     logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessage struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

// Send delivers one render instruction to the chat, one button per row.
func (s *Sender) Send(ctx context.Context, chatID int64, reply *bot.Reply) error {
	if s.token == "" || reply == nil {
		return nil
	}

	msg := sendMessage{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if len(reply.Choices) > 0 {
		keyboard := make([][]inlineButton, 0, len(reply.Choices))
		for _, c := range reply.Choices {
			keyboard = append(keyboard, []inlineButton{{Text: c.Label, CallbackData: c.Data}})
		}
		msg.ReplyMarkup = &replyMarkup{InlineKeyboard: keyboard}
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(url)
	if err != nil {
		return fmt.Errorf("failed to send message - %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram answered %d: %s", resp.StatusCode(), resp.String())
	}

	s.log.Debug().Int64("chat", chatID).Msg("message delivered")
	return nil
}
