// Package bot implements the conversational core of the reseller bot: a
// per-user order session state machine that drives the H2H client, plus
// transaction history. It consumes discriminated user actions and returns
// render instructions; the chat transport itself stays outside.
package bot

import (
	"github.com/rs/zerolog"

	"github.com/sergeysynergy/omegabot/pkg/logger"
)

type Bot struct {
	storage Storer
	gateway Gateway
	log     zerolog.Logger

	Sessions *Sessions
}

type Option func(*Bot)

func WithLogger(log zerolog.Logger) Option {
	return func(b *Bot) {
		b.log = log
	}
}

func New(st Storer, gw Gateway, opts ...Option) *Bot {
	b := &Bot{
		storage:  st,
		gateway:  gw,
		log:      logger.Get(),
		Sessions: newSessions(),
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}
