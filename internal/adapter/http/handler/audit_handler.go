package handler

import (
	"fmt"
	"time"

	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"
	"balance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the read-only reporting surface.
type AuditHandler struct {
	audit    ports.AuditQuery
	resolver ports.BalanceResolver
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit ports.AuditQuery, resolver ports.BalanceResolver) *AuditHandler {
	return &AuditHandler{audit: audit, resolver: resolver}
}

// Transactions handles GET /api/v1/audit/transactions.
// Query params: from, to (RFC3339 or 2006-01-02), branch, company.
func (h *AuditHandler) Transactions(c *gin.Context) {
	from, to, err := parseTimeWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	postings, err := h.audit.Transactions(c.Request.Context(), ports.TransactionFilter{
		From:    from,
		To:      to,
		Branch:  c.Query("branch"),
		Company: c.Query("company"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, postings)
}

// Accounts handles GET /api/v1/audit/accounts.
// Query params: from, to, company, branch, sign (negative|zero|positive).
func (h *AuditHandler) Accounts(c *gin.Context) {
	from, to, err := parseTimeWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	sign := ports.BalanceSign(c.Query("sign"))
	switch sign {
	case ports.BalanceSignAny, ports.BalanceSignNegative, ports.BalanceSignZero, ports.BalanceSignPositive:
	default:
		response.Error(c, apperror.Validation("sign must be one of negative, zero, positive"))
		return
	}

	summaries, err := h.audit.Accounts(c.Request.Context(), ports.AccountFilter{
		From:    from,
		To:      to,
		Company: c.Query("company"),
		Branch:  c.Query("branch"),
		Sign:    sign,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summaries)
}

// ReconcileAll handles POST /api/v1/audit/reconcile. Sweeps every account and
// returns the per-account reports; it never mutates balances.
func (h *AuditHandler) ReconcileAll(c *gin.Context) {
	reports, err := h.resolver.ReconcileAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reports)
}

func parseTimeWindow(c *gin.Context) (time.Time, time.Time, error) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// parseTimeParam accepts RFC3339 or a bare date. Empty means unbounded.
func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Validation(fmt.Sprintf("invalid time %q, use RFC3339 or YYYY-MM-DD", raw))
}
