// Package session is the presentation controller that sits between user
// actions and the token ledger.
//
// It checks that required fields are present and numeric, dispatches to the
// ledger, mirrors accepted transactions into the journal, and rebuilds the
// balance display, holder table and transaction feed from the ledger after
// every mutation. The ledger stays the authority for every rule; the checks
// here only catch empty or malformed input.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmerrifield20/edutoken/internal/journal"
	"github.com/jmerrifield20/edutoken/internal/token"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultFeedSize is the number of transactions shown in the feed.
const DefaultFeedSize = 10

// MetricsRecorder is an optional callback for recording operation outcomes.
type MetricsRecorder func(kind token.TxType, success bool)

// Controller dispatches user actions to a ledger.
type Controller struct {
	// writeMu is held across a ledger mutation and its journal append so
	// journal order follows ledger Seq.
	writeMu sync.Mutex

	ledger    *token.FungibleToken
	journal   journal.Journal // nil = no journal mirroring
	onMetrics MetricsRecorder
	feedSize  int
	printer   *message.Printer
	logger    *zap.Logger
}

// NewController creates a Controller. j may be nil.
func NewController(ledger *token.FungibleToken, j journal.Journal, logger *zap.Logger) *Controller {
	return &Controller{
		ledger:   ledger,
		journal:  j,
		feedSize: DefaultFeedSize,
		printer:  message.NewPrinter(language.English),
		logger:   logger,
	}
}

// SetMetricsRecorder configures the metrics callback.
func (c *Controller) SetMetricsRecorder(fn MetricsRecorder) {
	c.onMetrics = fn
}

// SetFeedSize changes how many transactions the feed shows. Values <= 0
// restore the default.
func (c *Controller) SetFeedSize(n int) {
	if n <= 0 {
		n = DefaultFeedSize
	}
	c.feedSize = n
}

// Ledger returns the underlying ledger.
func (c *Controller) Ledger() *token.FungibleToken { return c.ledger }

// Journal returns the journal, or nil.
func (c *Controller) Journal() journal.Journal { return c.journal }

// FormatAmount renders n with thousands separators, e.g. 1,000,000.
func (c *Controller) FormatAmount(n int64) string {
	return c.printer.Sprintf("%d", n)
}

// Login opens a session for userID. Any non-blank identity is accepted.
func (c *Controller) Login(userID string) (*Session, Status) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, failed(MsgEnterUserID)
	}
	s := c.Resume(userID)
	c.logger.Info("session opened", zap.String("user_id", userID), zap.Bool("can_mint", s.CanMint))
	return s, success(fmt.Sprintf("Welcome, %s!", userID))
}

// Resume rebuilds a Session for an identity that already logged in, for
// example from a verified session token.
func (c *Controller) Resume(userID string) *Session {
	return &Session{
		UserID:    userID,
		CanMint:   c.ledger.IsCreator(userID),
		StartedAt: time.Now().UTC(),
	}
}

// Logout ends s.
func (c *Controller) Logout(s *Session) Status {
	if s != nil {
		c.logger.Info("session closed", zap.String("user_id", s.UserID))
	}
	return info(MsgLoggedOut)
}

// CheckBalance looks up any identity's balance.
func (c *Controller) CheckBalance(userID string) (int64, Status) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, failed(MsgEnterUserID)
	}
	bal := c.ledger.Balance(userID)
	return bal, success(fmt.Sprintf("%s has %s %s tokens", userID, c.FormatAmount(bal), c.ledger.Symbol()))
}

// Transfer sends amount tokens from the session's identity to toUserID.
// The returned error is non-nil only for journal failures; rejected
// transfers are reported in the Outcome.
func (c *Controller) Transfer(ctx context.Context, s *Session, toUserID, amount string) (Outcome, error) {
	to, n, out, ok := c.validate(s, toUserID, amount)
	if !ok {
		return out, nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	res := c.ledger.Transfer(s.UserID, to, n)
	return c.settle(ctx, s, token.TxTransfer, res, MsgTransferDone)
}

// Mint creates amount tokens for toUserID on behalf of the session's
// identity. The ledger rejects non-creators regardless of s.CanMint.
func (c *Controller) Mint(ctx context.Context, s *Session, toUserID, amount string) (Outcome, error) {
	to, n, out, ok := c.validate(s, toUserID, amount)
	if !ok {
		return out, nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	res := c.ledger.Mint(s.UserID, to, n)
	return c.settle(ctx, s, token.TxMint, res, MsgMintDone)
}

// validate applies the form checks: a session, a recipient and a non-zero
// integer amount. Sign is left to the ledger.
func (c *Controller) validate(s *Session, toUserID, amount string) (string, int64, Outcome, bool) {
	if s == nil {
		st := failed(MsgLoginFirst)
		return "", 0, Outcome{Result: token.Result{Message: st.Message}, Status: st, Invalid: true}, false
	}
	to := strings.TrimSpace(toUserID)
	n, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
	if to == "" || err != nil || n == 0 {
		st := failed(MsgFillAllFields)
		return "", 0, Outcome{Result: token.Result{Message: st.Message}, Status: st, Invalid: true}, false
	}
	return to, n, Outcome{}, true
}

// CheckMirror reports whether the journal records the ledger history in
// order. It is a no-op without a journal.
func (c *Controller) CheckMirror(ctx context.Context) error {
	if c.journal == nil {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return journal.CheckMirror(ctx, c.journal, c.ledger.TransactionHistory())
}

// settle runs with writeMu held.
func (c *Controller) settle(ctx context.Context, s *Session, kind token.TxType, res token.Result, doneMsg string) (Outcome, error) {
	if c.onMetrics != nil {
		c.onMetrics(kind, res.Success)
	}
	if !res.Success {
		c.logger.Info("ledger rejected operation",
			zap.String("kind", string(kind)),
			zap.String("user_id", s.UserID),
			zap.String("reason", res.Message),
		)
		return Outcome{Result: res, Status: failed(res.Message)}, nil
	}

	tx := res.Transaction
	c.logger.Info("ledger operation accepted",
		zap.String("kind", string(kind)),
		zap.String("tx_id", tx.ID.String()),
		zap.String("from", tx.From),
		zap.String("to", tx.To),
		zap.Int64("amount", tx.Amount),
	)

	if c.journal != nil {
		if _, err := c.journal.Append(ctx, *tx); err != nil {
			return Outcome{}, fmt.Errorf("journal %s %s: %w", kind, tx.ID, err)
		}
	}

	d := c.Dashboard(s)
	return Outcome{Result: res, Status: success(doneMsg), Dashboard: &d}, nil
}

// Dashboard re-reads the ledger and builds every derived view. s may be nil,
// in which case only the public views are filled.
func (c *Controller) Dashboard(s *Session) Dashboard {
	d := Dashboard{
		Info:    c.ledger.Info(),
		Holders: c.ledger.Holders(),
		Feed:    c.ledger.Recent(c.feedSize),
	}
	if s != nil {
		d.User = s.UserID
		d.Balance = c.ledger.Balance(s.UserID)
		d.CanMint = c.ledger.IsCreator(s.UserID)
	}
	return d
}
