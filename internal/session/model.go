package session

import (
	"time"

	"github.com/jmerrifield20/edutoken/internal/token"
)

// Level classifies a Status for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Status is the user-facing message produced by every controller action.
type Status struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func success(msg string) Status { return Status{Level: LevelSuccess, Message: msg} }
func failed(msg string) Status  { return Status{Level: LevelError, Message: msg} }
func info(msg string) Status    { return Status{Level: LevelInfo, Message: msg} }

// Session is the logged-in identity. It is passed explicitly to every
// action; the controller keeps no "current user".
type Session struct {
	UserID    string    `json:"user_id"`
	CanMint   bool      `json:"can_mint"` // display hint only; Mint re-checks
	StartedAt time.Time `json:"started_at"`
}

// Dashboard bundles the views re-rendered after each action.
type Dashboard struct {
	User    string              `json:"user,omitempty"`
	Balance int64               `json:"balance"`
	CanMint bool                `json:"can_mint"`
	Info    token.TokenInfo     `json:"info"`
	Holders []token.Holder      `json:"holders"`
	Feed    []token.Transaction `json:"feed"`
}

// Outcome is returned by Transfer and Mint.
//
// Invalid is set when the request never reached the ledger because a field
// was missing or not numeric. Dashboard is only populated on success.
type Outcome struct {
	Result    token.Result `json:"result"`
	Status    Status       `json:"status"`
	Invalid   bool         `json:"-"`
	Dashboard *Dashboard   `json:"dashboard,omitempty"`
}

// Status messages shown by the controller.
const (
	MsgEnterUserID   = "Please enter a User ID"
	MsgLoginFirst    = "Please log in first"
	MsgFillAllFields = "Please fill in all fields"
	MsgLoggedOut     = "Logged out successfully"
	MsgTransferDone  = "Transfer completed successfully!"
	MsgMintDone      = "Tokens minted successfully!"
)
