package handlers

import (
	"github.com/gin-gonic/gin"

	"celltrade/internal/domain/ledger"
)

// LedgerHandler handles counterparty statement and balance audit endpoints.
type LedgerHandler struct {
	*BaseHandler
	statements *ledger.Service
	auditor    *ledger.Auditor
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, statements *ledger.Service, auditor *ledger.Auditor) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		statements:  statements,
		auditor:     auditor,
	}
}

// Statement handles GET /report/statement/:id - the chronological debt
// ledger for one counterparty, recomputed from documents and payments.
func (h *LedgerHandler) Statement(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	st, err := h.statements.Statement(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, st)
}

// AuditBalances handles POST /report/audit-balances - recomputes every
// counterparty balance from the ledger and reports drift against the cache.
func (h *LedgerHandler) AuditBalances(c *gin.Context) {
	reports, err := h.auditor.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if reports == nil {
		reports = []ledger.DriftReport{}
	}
	h.OK(c, reports)
}
