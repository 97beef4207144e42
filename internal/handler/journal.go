package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmerrifield20/edutoken/internal/journal"
	"github.com/jmerrifield20/edutoken/internal/session"
	"go.uber.org/zap"
)

// JournalHandler serves the transaction journal next to the ledger it
// mirrors.
type JournalHandler struct {
	ctrl    *session.Controller
	journal journal.Journal
	logger  *zap.Logger
}

// NewJournalHandler creates a JournalHandler over ctrl's journal.
func NewJournalHandler(ctrl *session.Controller, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{ctrl: ctrl, journal: ctrl.Journal(), logger: logger}
}

// Register mounts the journal routes. Nothing is mounted when the
// controller has no journal.
func (h *JournalHandler) Register(rg *gin.RouterGroup) {
	if h.journal == nil {
		return
	}
	g := rg.Group("/journal")
	g.GET("", h.Overview)
	g.GET("/verify", h.Verify)
	g.GET("/entries/:idx", h.Entry)
	g.GET("/transactions/:id", h.ByTransaction)
}

// Overview handles GET /journal. first_mirrored is the index of the entry
// recording ledger Seq 0; earlier entries come from previous processes.
func (h *JournalHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	n, err := h.journal.Len(ctx)
	if err != nil {
		h.fail(c, "journal Len", err)
		return
	}
	root, err := h.journal.Root(ctx)
	if err != nil {
		h.fail(c, "journal Root", err)
		return
	}

	txs := len(h.ctrl.Ledger().TransactionHistory())
	c.JSON(http.StatusOK, gin.H{
		"entries":        n,
		"root":           root,
		"transactions":   txs,
		"first_mirrored": n - txs,
	})
}

// Verify handles GET /journal/verify. The chain must hash correctly and its
// newest entries must record the ledger history in Seq order.
func (h *JournalHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()
	resp := gin.H{"chain_valid": true, "mirror_valid": true}

	var problems []string
	if err := h.journal.Verify(ctx); err != nil {
		resp["chain_valid"] = false
		problems = append(problems, err.Error())
	}
	if err := h.ctrl.CheckMirror(ctx); err != nil {
		resp["mirror_valid"] = false
		problems = append(problems, err.Error())
	}

	resp["valid"] = len(problems) == 0
	if len(problems) > 0 {
		h.logger.Warn("journal verification failed", zap.Strings("problems", problems))
		resp["error"] = problems[0]
		resp["problems"] = problems
	}
	c.JSON(http.StatusOK, resp)
}

// Entry handles GET /journal/entries/:idx.
func (h *JournalHandler) Entry(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}
	e, err := h.journal.Get(c.Request.Context(), idx)
	h.entryResponse(c, e, err)
}

// ByTransaction handles GET /journal/transactions/:id, the journal entry
// for a ledger transaction ID.
func (h *JournalHandler) ByTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a transaction UUID"})
		return
	}
	e, err := h.journal.Lookup(c.Request.Context(), id.String())
	h.entryResponse(c, e, err)
}

func (h *JournalHandler) entryResponse(c *gin.Context, e *journal.Entry, err error) {
	switch {
	case errors.Is(err, journal.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case err != nil:
		h.fail(c, "journal read", err)
	default:
		c.JSON(http.StatusOK, e)
	}
}

func (h *JournalHandler) fail(c *gin.Context, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query journal"})
}
