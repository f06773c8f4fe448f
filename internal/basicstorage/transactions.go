package basicstorage

import (
	"time"

	"github.com/sergeysynergy/omegabot/internal/bot"
)

func (s *Storage) AddTransaction(tr *bot.Transaction) error {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()

	if _, ok := s.transactionsByRef[tr.RefID]; ok {
		return bot.ErrTransactionExists
	}

	s.counter++
	tr.ID = s.counter
	now := time.Now()
	tr.CreatedAt = now
	tr.UpdatedAt = now

	s.transactionsByRef[tr.RefID] = tr
	s.transactionsOrder = append(s.transactionsOrder, tr.RefID)

	return nil
}

func (s *Storage) UpdateTransaction(refID string, upd bot.TransactionUpdate) error {
	s.transactionsMu.Lock()
	defer s.transactionsMu.Unlock()

	tr, ok := s.transactionsByRef[refID]
	if !ok {
		return bot.ErrTransactionNotFound
	}

	if upd.Status != "" {
		tr.Status = upd.Status
	}
	if upd.SN != "" {
		tr.SN = upd.SN
	}
	if upd.Message != "" {
		tr.Message = upd.Message
	}
	if upd.Price > 0 {
		tr.Price = upd.Price
	}
	tr.UpdatedAt = time.Now()

	return nil
}

// UserTransactions returns the user's records, newest first, at most limit.
func (s *Storage) UserTransactions(userID int64, limit int) ([]*bot.Transaction, error) {
	s.transactionsMu.RLock()
	defer s.transactionsMu.RUnlock()

	trs := make([]*bot.Transaction, 0, limit)
	for i := len(s.transactionsOrder) - 1; i >= 0 && len(trs) < limit; i-- {
		tr := s.transactionsByRef[s.transactionsOrder[i]]
		if tr.UserID == userID {
			trs = append(trs, tr)
		}
	}

	return trs, nil
}
