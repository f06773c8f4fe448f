// Package handlers exposes the bot core over HTTP: a webhook route for
// chat-platform updates, a provider status callback and a health probe.
// It only translates wire shapes to bot actions; all conversation logic
// stays in the bot package.
package handlers

import (
	"context"
	"encoding/json"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/sergeysynergy/omegabot/internal/bot"
	"github.com/sergeysynergy/omegabot/pkg/logger"
)

const (
	ContentTypeApplicationJSON = "application/json"
	ContentTypeTextPlain       = "text/plain"
)

// Pinger is the readiness probe the health route runs against the
// configured storage.
type Pinger interface {
	Ping() error
}

// Sender delivers a reply to the user's chat out of band. Without one the
// webhook answer itself carries the reply.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply *bot.Reply) error
}

// PriceLister serves the provider's published price list.
type PriceLister interface {
	FetchPriceList(ctx context.Context) (json.RawMessage, error)
}

type handler struct {
	r      chi.Router
	bot    *bot.Bot
	pinger Pinger
	sender Sender
	prices PriceLister
	log    zerolog.Logger
}

type Option func(*handler)

func WithLogger(log zerolog.Logger) Option {
	return func(h *handler) {
		h.log = log
	}
}

// WithPinger plugs a database-backed store into the health route. Without
// it the route only reports process liveness.
func WithPinger(p Pinger) Option {
	return func(h *handler) {
		h.pinger = p
	}
}

func WithSender(s Sender) Option {
	return func(h *handler) {
		h.sender = s
	}
}

// WithPriceLister enables the public price-list route.
func WithPriceLister(p PriceLister) Option {
	return func(h *handler) {
		h.prices = p
	}
}

func New(b *bot.Bot, opts ...Option) *handler {
	h := &handler{
		r:   chi.NewRouter(),
		bot: b,
		log: logger.Get(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.r.Use(middleware.Compress(3, "gzip"))
	h.r.Use(middleware.RequestID)
	h.r.Use(middleware.RealIP)
	h.r.Use(middleware.Recoverer)

	h.setRoutes()

	return h
}

func (h *handler) GetRouter() chi.Router {
	return h.r
}
