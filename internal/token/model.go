package token

import (
	"time"

	"github.com/google/uuid"
)

// SystemSender is the From value recorded on every mint transaction.
const SystemSender = "system"

// TxType identifies the kind of ledger mutation a Transaction records.
type TxType string

const (
	TxTransfer TxType = "transfer"
	TxMint     TxType = "mint"
)

// Transaction is an accepted ledger mutation. It is never modified after it
// has been appended to the history.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	Seq       int       `json:"seq"`
	Type      TxType    `json:"type"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of Transfer and Mint. A rejected operation has
// Success=false, a reason in Message, and a nil Transaction.
type Result struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Message: msg}
}

// TokenInfo is the summary shown in the token header.
type TokenInfo struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	TotalSupply  int64  `json:"total_supply"`
	CreatorID    string `json:"creator_id"`
	TotalHolders int    `json:"total_holders"`
}

// Holder is one row of the holder explorer.
type Holder struct {
	UserID  string  `json:"user_id"`
	Balance int64   `json:"balance"`
	Share   float64 `json:"share_percent"` // of total supply, 0-100
}

// Rejection reasons returned in Result.Message.
const (
	MsgAmountNotPositive = "Amount must be positive"
	MsgSelfTransfer      = "Cannot transfer to yourself"
	MsgInsufficient      = "Insufficient balance"
	MsgNotCreator        = "Only the creator can mint tokens"
)
