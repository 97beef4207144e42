package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/edutoken/internal/identity"
	"github.com/jmerrifield20/edutoken/internal/session"
	"go.uber.org/zap"
)

// TokenHandler exposes the presentation controller over HTTP.
type TokenHandler struct {
	ctrl   *session.Controller
	tokens *identity.SessionTokenIssuer
	logger *zap.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(ctrl *session.Controller, tokens *identity.SessionTokenIssuer, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{ctrl: ctrl, tokens: tokens, logger: logger}
}

// Register mounts the token routes on the given router group.
func (h *TokenHandler) Register(rg *gin.RouterGroup) {
	auth := identity.RequireSession(h.tokens)

	rg.POST("/session", h.Login)
	rg.DELETE("/session", auth, h.Logout)
	rg.GET("/me", auth, h.Me)

	rg.GET("/token", h.Info)
	rg.GET("/balances", h.AllBalances)
	rg.GET("/balances/:id", h.Balance)
	rg.GET("/holders", h.Holders)
	rg.GET("/transactions", h.Transactions)

	rg.POST("/transfers", auth, h.Transfer)
	rg.POST("/mints", auth, h.Mint)
}

type loginRequest struct {
	UserID string `json:"user_id"`
}

// actionRequest is the body of POST /transfers and POST /mints. Amount
// accepts a JSON number or a numeric string.
type actionRequest struct {
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
}

// sessionFromCtx rebuilds the Session for the identity in the bearer token.
func (h *TokenHandler) sessionFromCtx(c *gin.Context) *session.Session {
	claims := identity.SessionClaimsFromCtx(c)
	if claims == nil {
		return nil
	}
	return h.ctrl.Resume(claims.UserID)
}

// Login handles POST /session: opens a session and returns a bearer token.
func (h *TokenHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, status := h.ctrl.Login(req.UserID)
	if s == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": status.Message, "status": status})
		return
	}

	tok, err := h.tokens.Issue(s.UserID)
	if err != nil {
		h.logger.Error("issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tok,
		"expires_in": int(h.tokens.TTL().Seconds()),
		"session":    s,
		"status":     status,
		"dashboard":  h.ctrl.Dashboard(s),
	})
}

// Logout handles DELETE /session. Tokens are stateless, so the client
// simply discards its copy.
func (h *TokenHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": h.ctrl.Logout(h.sessionFromCtx(c))})
}

// Me handles GET /me: the logged-in dashboard.
func (h *TokenHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Dashboard(h.sessionFromCtx(c)))
}

// Info handles GET /token.
func (h *TokenHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Ledger().Info())
}

// AllBalances handles GET /balances.
func (h *TokenHandler) AllBalances(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balances": h.ctrl.Ledger().AllBalances()})
}

// Balance handles GET /balances/:id.
func (h *TokenHandler) Balance(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	bal, status := h.ctrl.CheckBalance(userID)
	if status.Level == session.LevelError {
		c.JSON(http.StatusBadRequest, gin.H{"error": status.Message, "status": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"balance":   bal,
		"formatted": h.ctrl.FormatAmount(bal),
		"status":    status,
	})
}

// Holders handles GET /holders: explorer rows, largest balance first.
func (h *TokenHandler) Holders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"holders": h.ctrl.Ledger().Holders()})
}

// Transactions handles GET /transactions.
//
//	order=recent (default): newest first, at most limit entries (default 10)
//	order=oldest: the full history in recording order
func (h *TokenHandler) Transactions(c *gin.Context) {
	ledger := h.ctrl.Ledger()

	switch c.DefaultQuery("order", "recent") {
	case "oldest":
		c.JSON(http.StatusOK, gin.H{"transactions": ledger.TransactionHistory()})
	case "recent":
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(session.DefaultFeedSize)))
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": ledger.Recent(limit)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be recent or oldest"})
	}
}

// Transfer handles POST /transfers.
func (h *TokenHandler) Transfer(c *gin.Context) {
	h.act(c, h.ctrl.Transfer)
}

// Mint handles POST /mints.
func (h *TokenHandler) Mint(c *gin.Context) {
	h.act(c, h.ctrl.Mint)
}

type actionFunc func(ctx context.Context, s *session.Session, to, amount string) (session.Outcome, error)

func (h *TokenHandler) act(c *gin.Context, fn actionFunc) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := fn(c.Request.Context(), h.sessionFromCtx(c), req.To, req.Amount.String())
	if err != nil {
		h.logger.Error("ledger action", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record transaction"})
		return
	}

	switch {
	case out.Invalid:
		c.JSON(http.StatusBadRequest, out)
	case !out.Result.Success:
		c.JSON(http.StatusUnprocessableEntity, out)
	default:
		c.JSON(http.StatusOK, out)
	}
}
