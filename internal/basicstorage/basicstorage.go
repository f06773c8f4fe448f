// Package basicstorage is the in-memory bot.Storer implementation: enough
// for development and tests, with the same semantics as the SQL store.
package basicstorage

import (
	"sync"

	"github.com/sergeysynergy/omegabot/internal/bot"
)

type Storage struct {
	counter uint64

	transactionsMu    sync.RWMutex
	transactionsByRef map[string]*bot.Transaction
	transactionsOrder []string
}

func New() *Storage {
	return &Storage{
		transactionsByRef: make(map[string]*bot.Transaction),
	}
}
