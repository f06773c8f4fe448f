// Package db implements bot.Storer on database/sql. SQLite keeps the
// single-binary deployment the bot started with; a Postgres DSN switches to
// the pgx driver.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/zerolog"

	"github.com/sergeysynergy/omegabot/pkg/logger"
)

const initTimeout = 60 * time.Second

type Storage struct {
	db     *sql.DB
	ctx    context.Context
	cancel context.CancelFunc
	dsn    string
	driver string
	log    zerolog.Logger
}

type Option func(*Storage)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Storage) {
		s.log = log
	}
}

func New(dsn string, opts ...Option) (*Storage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN needed")
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Storage{
		ctx:    ctx,
		cancel: cancel,
		dsn:    dsn,
		driver: driverFor(dsn),
		log:    logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(); err != nil {
		cancel()
		return nil, fmt.Errorf("database initialization failed - %w", err)
	}

	return s, nil
}

func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx"
	}
	return "sqlite3"
}

func (s *Storage) init() error {
	var err error
	s.db, err = sql.Open(s.driver, s.dsn)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(s.ctx, initTimeout)
	defer cancel()

	if err = s.initTransactions(ctx); err != nil {
		return fmt.Errorf(`failed to create 'transactions' table - %w`, err)
	}

	if s.driver == "pgx" {
		s.db.SetMaxOpenConns(40)
		s.db.SetMaxIdleConns(20)
		s.db.SetConnMaxIdleTime(60 * time.Second)
	} else {
		// SQLite: a single writer avoids SQLITE_BUSY under concurrency.
		s.db.SetMaxOpenConns(1)
	}

	return nil
}

// rebind rewrites `?` placeholders to `$N` for the pgx driver, so every
// query is written once.
func (s *Storage) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Storage) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	return s.db.PingContext(ctx)
}

func (s *Storage) Shutdown() error {
	s.cancel()

	if err := s.db.Close(); err != nil {
		return err
	}

	s.log.Debug().Msg("connection to database closed")
	return nil
}
