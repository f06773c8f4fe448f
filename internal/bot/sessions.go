package bot

import (
	"sync"

	"github.com/sergeysynergy/omegabot/internal/otomax"
)

// State of an order session. A session walks destination entry, then either
// direct product-code entry or catalog selection, and is deleted as soon as
// a terminal outcome has been reported.
type State int

const (
	StateAwaitingDestination State = iota
	StateAwaitingProductCode
	StateAwaitingProductSelection
	StateAwaitingConfirmation
	StateCompleted
)

// Session is one user's progress through the order flow. Mutated in place as
// the user supplies each field; one session per user identifier.
type Session struct {
	UserID int64
	State  State

	// Category is the catalog listing code; empty for the direct-entry flow.
	Category string
	// Destination is stored verbatim: phone number, meter ID, game ID, ...
	Destination string
	// Products caches the listing shown to the user, for the duration of
	// the selection step only.
	Products []otomax.Product
	// ProductID is the chosen catalog item. ProductName and Price snapshot
	// it for the confirmation step and the history record.
	ProductID   string
	ProductName string
	Price       uint64

	// busy marks a network call in flight for this session. While set, any
	// further action for the same user is rejected, never queued.
	busy bool
}

func (s *Session) catalog() bool {
	return s.Category != ""
}

// Sessions is the in-process session store: a mutex-guarded map keyed by
// user identifier, owned by the Bot aggregate and passed by handle. Sessions
// do not survive a restart; in-flight flows are silently dropped.
type Sessions struct {
	mu     sync.Mutex
	byUser map[int64]*Session
}

func newSessions() *Sessions {
	return &Sessions{
		byUser: make(map[int64]*Session),
	}
}

// Start replaces any previous (non-busy) session for the user with a fresh
// one awaiting the destination.
func (sns *Sessions) Start(userID int64, category string) (*Session, error) {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	if old, ok := sns.byUser[userID]; ok && old.busy {
		return nil, ErrSessionBusy
	}

	s := &Session{
		UserID:   userID,
		State:    StateAwaitingDestination,
		Category: category,
	}
	sns.byUser[userID] = s

	return s, nil
}

// Update runs fn on the user's session under the store lock. A busy session
// is never handed out: the second action loses, the in-flight call wins.
func (sns *Sessions) Update(userID int64, fn func(*Session) error) error {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	s, ok := sns.byUser[userID]
	if !ok {
		return ErrNoSession
	}
	if s.busy {
		return ErrSessionBusy
	}

	return fn(s)
}

// BeginCall marks the user's session busy for the duration of a network
// call. It fails if another call is already in flight.
func (sns *Sessions) BeginCall(userID int64) (*Session, error) {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	s, ok := sns.byUser[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if s.busy {
		return nil, ErrSessionBusy
	}
	s.busy = true

	return s, nil
}

// EndCall clears the busy mark set by BeginCall.
func (sns *Sessions) EndCall(userID int64) {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	if s, ok := sns.byUser[userID]; ok {
		s.busy = false
	}
}

// EndCallUpdate clears the busy mark and applies fn in the same critical
// section, so no other action for the user can land between the end of a
// network call and the state transition its result drives.
func (sns *Sessions) EndCallUpdate(userID int64, fn func(*Session) error) error {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	s, ok := sns.byUser[userID]
	if !ok {
		return ErrNoSession
	}
	s.busy = false

	return fn(s)
}

// Delete drops the user's session, discarding partial input.
func (sns *Sessions) Delete(userID int64) {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	delete(sns.byUser, userID)
}

// Len reports the number of live sessions.
func (sns *Sessions) Len() int {
	sns.mu.Lock()
	defer sns.mu.Unlock()

	return len(sns.byUser)
}
