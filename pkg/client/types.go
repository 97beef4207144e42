package client

import "time"

// TokenInfo mirrors GET /api/v1/token.
type TokenInfo struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	TotalSupply  int64  `json:"total_supply"`
	CreatorID    string `json:"creator_id"`
	TotalHolders int    `json:"total_holders"`
}

// Transaction is one recorded transfer or mint.
type Transaction struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Type      string    `json:"type"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Holder is one explorer row.
type Holder struct {
	UserID  string  `json:"user_id"`
	Balance int64   `json:"balance"`
	Share   float64 `json:"share_percent"`
}

// Result is the ledger's verdict on a transfer or mint.
type Result struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// Status is the user-facing message attached to most responses.
type Status struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session describes the logged-in identity.
type Session struct {
	UserID    string    `json:"user_id"`
	CanMint   bool      `json:"can_mint"`
	StartedAt time.Time `json:"started_at"`
}

// Dashboard bundles balance, token summary, holders and the recent feed.
type Dashboard struct {
	User    string        `json:"user,omitempty"`
	Balance int64         `json:"balance"`
	CanMint bool          `json:"can_mint"`
	Info    TokenInfo     `json:"info"`
	Holders []Holder      `json:"holders"`
	Feed    []Transaction `json:"feed"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresIn int       `json:"expires_in"`
	Session   Session   `json:"session"`
	Status    Status    `json:"status"`
	Dashboard Dashboard `json:"dashboard"`
}

// Outcome is returned by Transfer and Mint.
type Outcome struct {
	Result    Result     `json:"result"`
	Status    Status     `json:"status"`
	Dashboard *Dashboard `json:"dashboard,omitempty"`
}

// BalanceResult is returned by Balance.
type BalanceResult struct {
	UserID    string `json:"user_id"`
	Balance   int64  `json:"balance"`
	Formatted string `json:"formatted"`
	Status    Status `json:"status"`
}

// JournalOverview is returned by Journal.
type JournalOverview struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
}
