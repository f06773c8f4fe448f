package bot

import (
	"context"
	"time"

	"github.com/sergeysynergy/omegabot/internal/otomax"
)

// Gateway is the reseller client surface the bot core drives. Every
// operation folds remote failures into the Result sum type.
type Gateway interface {
	CheckBalance(ctx context.Context) *otomax.Result
	ListProducts(ctx context.Context, categoryCode, dest string) *otomax.Result
	CheckPrice(ctx context.Context, categoryCode, dest, productID string) *otomax.Result
	SubmitOrder(ctx context.Context, productCode, dest, productID string) *otomax.Result
	RequestDeposit(ctx context.Context, amount uint64) *otomax.Result
}

// Transaction is one recorded order attempt. Unlike sessions, history
// survives restarts: it is the only thing worth keeping, since the remote
// API remains the ground truth for money and delivery.
type Transaction struct {
	ID          uint64
	UserID      int64
	RefID       string
	ProductCode string
	ProductName string
	Destination string
	Price       uint64
	Status      string
	SN          string
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionUpdate carries the outcome fields applied to a recorded
// transaction once the remote has answered.
type TransactionUpdate struct {
	Status  string
	SN      string
	Message string
	Price   uint64
}

// Storer persists transaction history.
type Storer interface {
	AddTransaction(*Transaction) error
	UpdateTransaction(refID string, upd TransactionUpdate) error
	UserTransactions(userID int64, limit int) ([]*Transaction, error)
}
