package db

import (
	"context"
	"strings"
	"time"

	"github.com/sergeysynergy/omegabot/internal/bot"
)

const createTransactionsSQLite = `
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		ref_id TEXT UNIQUE NOT NULL,
		product_code TEXT NOT NULL,
		product_name TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL,
		price INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'PENDING',
		sn TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
`

const createTransactionsPostgres = `
	CREATE TABLE IF NOT EXISTS transactions (
		id bigserial PRIMARY KEY,
		user_id bigint NOT NULL,
		ref_id varchar UNIQUE NOT NULL,
		product_code varchar NOT NULL,
		product_name varchar NOT NULL DEFAULT '',
		destination varchar NOT NULL,
		price bigint NOT NULL DEFAULT 0,
		status varchar NOT NULL DEFAULT 'PENDING',
		sn varchar NOT NULL DEFAULT '',
		message varchar NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL,
		updated_at timestamptz NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
`

func (s *Storage) initTransactions(ctx context.Context) error {
	query := createTransactionsSQLite
	if s.driver == "pgx" {
		query = createTransactionsPostgres
	}

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Storage) AddTransaction(tr *bot.Transaction) error {
	now := time.Now()
	tr.CreatedAt = now
	tr.UpdatedAt = now

	query := s.rebind(`
		INSERT INTO transactions
			(user_id, ref_id, product_code, product_name, destination, price, status, sn, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(s.ctx, query,
		tr.UserID, tr.RefID, tr.ProductCode, tr.ProductName, tr.Destination,
		tr.Price, tr.Status, tr.SN, tr.Message, tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return bot.ErrTransactionExists
		}
		return err
	}

	return nil
}

func (s *Storage) UpdateTransaction(refID string, upd bot.TransactionUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if upd.Status != "" {
		sets = append(sets, "status = ?")
		args = append(args, upd.Status)
	}
	if upd.SN != "" {
		sets = append(sets, "sn = ?")
		args = append(args, upd.SN)
	}
	if upd.Message != "" {
		sets = append(sets, "message = ?")
		args = append(args, upd.Message)
	}
	if upd.Price > 0 {
		sets = append(sets, "price = ?")
		args = append(args, upd.Price)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, refID)

	query := s.rebind("UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE ref_id = ?")

	res, err := s.db.ExecContext(s.ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bot.ErrTransactionNotFound
	}

	return nil
}

func (s *Storage) UserTransactions(userID int64, limit int) ([]*bot.Transaction, error) {
	query := s.rebind(`
		SELECT id, user_id, ref_id, product_code, product_name, destination, price, status, sn, message, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`)

	rows, err := s.db.QueryContext(s.ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trs := make([]*bot.Transaction, 0, limit)
	for rows.Next() {
		tr := &bot.Transaction{}
		err = rows.Scan(&tr.ID, &tr.UserID, &tr.RefID, &tr.ProductCode, &tr.ProductName,
			&tr.Destination, &tr.Price, &tr.Status, &tr.SN, &tr.Message, &tr.CreatedAt, &tr.UpdatedAt)
		if err != nil {
			return nil, err
		}
		trs = append(trs, tr)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trs, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite3
		strings.Contains(msg, "duplicate key value") // postgres
}
