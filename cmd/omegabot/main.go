package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"golang.org/x/sync/errgroup"

	"github.com/sergeysynergy/omegabot/internal/api/handlers"
	"github.com/sergeysynergy/omegabot/internal/basicstorage"
	"github.com/sergeysynergy/omegabot/internal/bot"
	"github.com/sergeysynergy/omegabot/internal/db"
	"github.com/sergeysynergy/omegabot/internal/otomax"
	"github.com/sergeysynergy/omegabot/internal/telegram"
	"github.com/sergeysynergy/omegabot/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type config struct {
	Addr           string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	Endpoint       string `env:"H2H_ADDRESS"`
	EndpointBackup string `env:"H2H_BACKUP_ADDRESS"`
	PriceListURL   string `env:"H2H_PRICELIST_URL"`
	MemberID       string `env:"H2H_MEMBER_ID"`
	PIN            string `env:"H2H_PIN"`
	Password       string `env:"H2H_PASSWORD"`
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	LogLevel       string `env:"LOG_LEVEL"`
	LogPretty      bool   `env:"LOG_PRETTY"`
}

func main() {
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "a", ":8080", "Service run address")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "Database DSN: Postgres URI or SQLite path; empty keeps history in memory")
	flag.StringVar(&cfg.Endpoint, "r", "", "Reseller H2H primary address")
	flag.StringVar(&cfg.EndpointBackup, "b", "", "Reseller H2H backup address")
	flag.StringVar(&cfg.MemberID, "m", "", "Reseller member ID")
	flag.StringVar(&cfg.LogLevel, "l", "info", "Log level: debug, info, warn, error")
	flag.Parse()
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Str("addr", cfg.Addr).Msg("starting omegabot")

	if cfg.Endpoint == "" || cfg.MemberID == "" {
		log.Fatal().Msg("reseller H2H address and member ID needed")
	}

	var st bot.Storer
	var pinger handlers.Pinger
	if cfg.DatabaseURI != "" {
		storage, err := db.New(cfg.DatabaseURI, db.WithLogger(log))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database storage")
		}
		defer storage.Shutdown()
		st = storage
		pinger = storage
	} else {
		log.Warn().Msg("no database DSN given, transaction history will not survive restarts")
		st = basicstorage.New()
	}

	gw := otomax.New(otomax.Config{
		Endpoint:       cfg.Endpoint,
		EndpointBackup: cfg.EndpointBackup,
		PriceListURL:   cfg.PriceListURL,
		Credentials: otomax.Credentials{
			MemberID: cfg.MemberID,
			PIN:      cfg.PIN,
			Password: cfg.Password,
		},
		Profile: otomax.DefaultProfile(),
	}, otomax.WithLogger(log))

	b := bot.New(st, gw, bot.WithLogger(log))

	hOpts := []handlers.Option{handlers.WithLogger(log)}
	if pinger != nil {
		hOpts = append(hOpts, handlers.WithPinger(pinger))
	}
	if cfg.TelegramToken != "" {
		hOpts = append(hOpts, handlers.WithSender(telegram.NewSender(cfg.TelegramToken, telegram.WithLogger(log))))
	}
	if cfg.PriceListURL != "" {
		hOpts = append(hOpts, handlers.WithPriceLister(gw))
	}
	h := handlers.New(b, hOpts...)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: h.GetRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("omegabot stopped")
}
