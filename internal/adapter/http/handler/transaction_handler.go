package handler

import (
	"balance-ledger/internal/adapter/http/dto"
	"balance-ledger/internal/adapter/http/middleware"
	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"
	"balance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader carries the caller's retry token. Absent means the
// caller accepts duplicate risk when retrying after an indeterminate outcome.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// TransactionHandler handles posting endpoints.
type TransactionHandler struct {
	engine ports.LedgerEngine
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(engine ports.LedgerEngine) *TransactionHandler {
	return &TransactionHandler{engine: engine}
}

// Post handles POST /api/v1/transactions. Branch and agent name come from the
// caller's token, not the request body, so every posting is attributed to the
// operator who made it.
func (h *TransactionHandler) Post(c *gin.Context) {
	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount must be a decimal number"))
		return
	}

	_, agentName, branch, caps := middleware.Caller(c)

	result, err := h.engine.PostTransaction(c.Request.Context(), ports.PostRequest{
		AccountID:      req.AccountID,
		Type:           domain.PostingType(req.Type),
		Amount:         amount,
		Branch:         branch,
		AgentName:      agentName,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
		Caller:         caps,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Replayed {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}
