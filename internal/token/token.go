// Package token implements an in-memory fungible token ledger.
//
// A FungibleToken owns a balance table keyed by opaque identity strings,
// the total supply, the creator identity (the only principal allowed to
// mint) and an append-only transaction history. Domain failures such as an
// insufficient balance are reported through Result values rather than Go
// errors; the only error the package returns is from New.
//
// The ledger keeps two invariants at all times: the sum of all balances
// equals the total supply, and no balance is negative. Identities are never
// removed from the balance table, so an account debited to zero still counts
// as a holder.
package token

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNegativeSupply is returned by New when initialSupply is below zero.
var ErrNegativeSupply = errors.New("initial supply must not be negative")

// FungibleToken is a thread-safe in-memory token ledger.
type FungibleToken struct {
	name      string
	symbol    string
	creatorID string

	mu          sync.RWMutex
	totalSupply int64
	balances    map[string]int64
	history     []Transaction

	now func() time.Time
}

// New creates a ledger and credits the full initialSupply to creatorID.
// A zero initial supply is accepted; the creator still appears as a holder.
func New(name, symbol string, initialSupply int64, creatorID string) (*FungibleToken, error) {
	if initialSupply < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeSupply, initialSupply)
	}
	return &FungibleToken{
		name:        name,
		symbol:      symbol,
		creatorID:   creatorID,
		totalSupply: initialSupply,
		balances:    map[string]int64{creatorID: initialSupply},
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(name, symbol string, initialSupply int64, creatorID string) *FungibleToken {
	t, err := New(name, symbol, initialSupply, creatorID)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *FungibleToken) Name() string      { return t.name }
func (t *FungibleToken) Symbol() string    { return t.symbol }
func (t *FungibleToken) CreatorID() string { return t.creatorID }

// IsCreator reports whether userID may mint.
func (t *FungibleToken) IsCreator(userID string) bool {
	return userID == t.creatorID
}

// Balance returns the balance of userID, or 0 for an identity that has
// never been credited.
func (t *FungibleToken) Balance(userID string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balances[userID]
}

// TotalSupply returns the number of tokens in circulation.
func (t *FungibleToken) TotalSupply() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply
}

// AllBalances returns a snapshot of every known identity and its balance.
// Identities debited to zero are included.
func (t *FungibleToken) AllBalances() map[string]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int64, len(t.balances))
	for id, bal := range t.balances {
		out[id] = bal
	}
	return out
}

// Transfer moves amount tokens from fromUserID to toUserID. Checks run in
// order: positive amount, distinct parties, sufficient balance. A rejected
// transfer leaves the ledger untouched.
func (t *FungibleToken) Transfer(fromUserID, toUserID string, amount int64) Result {
	if amount <= 0 {
		return failure(MsgAmountNotPositive)
	}
	if fromUserID == toUserID {
		return failure(MsgSelfTransfer)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fromBalance := t.balances[fromUserID]
	if fromBalance < amount {
		return failure(MsgInsufficient)
	}

	t.balances[fromUserID] = fromBalance - amount
	t.balances[toUserID] += amount

	tx := t.record(TxTransfer, fromUserID, toUserID, amount)
	return Result{
		Success:     true,
		Message:     fmt.Sprintf("Successfully transferred %d %s to %s", amount, t.symbol, toUserID),
		Transaction: &tx,
	}
}

// Mint creates amount new tokens for recipientID. Only the creator may mint;
// authorization is checked before the amount.
func (t *FungibleToken) Mint(requesterID, recipientID string, amount int64) Result {
	if requesterID != t.creatorID {
		return failure(MsgNotCreator)
	}
	if amount <= 0 {
		return failure(MsgAmountNotPositive)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalSupply += amount
	t.balances[recipientID] += amount

	tx := t.record(TxMint, SystemSender, recipientID, amount)
	return Result{
		Success:     true,
		Message:     fmt.Sprintf("Successfully minted %d %s to %s", amount, t.symbol, recipientID),
		Transaction: &tx,
	}
}

// record appends a transaction. Caller must hold t.mu for writing.
func (t *FungibleToken) record(typ TxType, from, to string, amount int64) Transaction {
	tx := Transaction{
		ID:        uuid.New(),
		Seq:       len(t.history),
		Type:      typ,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: t.now(),
	}
	t.history = append(t.history, tx)
	return tx
}

// TransactionHistory returns every recorded transaction, oldest first.
func (t *FungibleToken) TransactionHistory() []Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Transaction, len(t.history))
	copy(out, t.history)
	return out
}

// Info returns the token summary. TotalHolders counts every key in the
// balance table, zero balances included.
func (t *FungibleToken) Info() TokenInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TokenInfo{
		Name:         t.name,
		Symbol:       t.symbol,
		TotalSupply:  t.totalSupply,
		CreatorID:    t.creatorID,
		TotalHolders: len(t.balances),
	}
}

// CheckInvariants reports an error if any balance is negative or the
// balances do not sum to the total supply.
func (t *FungibleToken) CheckInvariants() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sum int64
	for id, bal := range t.balances {
		if bal < 0 {
			return fmt.Errorf("negative balance %d for %q", bal, id)
		}
		sum += bal
	}
	if sum != t.totalSupply {
		return fmt.Errorf("balances sum to %d, total supply is %d", sum, t.totalSupply)
	}
	return nil
}
