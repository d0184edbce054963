package handler

import (
	"balance-ledger/internal/adapter/http/dto"
	"balance-ledger/internal/adapter/http/middleware"
	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"
	"balance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account directory endpoints.
type AccountHandler struct {
	engine   ports.LedgerEngine
	resolver ports.BalanceResolver
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(engine ports.LedgerEngine, resolver ports.BalanceResolver) *AccountHandler {
	return &AccountHandler{engine: engine, resolver: resolver}
}

// Create handles POST /api/v1/accounts. The caller's agent name and username
// become the account's immutable provenance columns.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	username, agentName, _, _ := middleware.Caller(c)

	account, err := h.engine.CreateAccount(c.Request.Context(), ports.CreateAccountRequest{
		ID:                   req.ID,
		Name:                 req.Name,
		Company:              req.Company,
		Branch:               req.Branch,
		PhoneNumber:          req.PhoneNumber,
		CreatorAgent:         agentName,
		RegisteredBy:         username,
		AllowNegativeBalance: req.AllowNegativeBalance,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, account)
}

// Get handles GET /api/v1/accounts/:id. Returns the account with its
// chronological posting history and materialized balance.
func (h *AccountHandler) Get(c *gin.Context) {
	view, err := h.engine.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Update handles PUT /api/v1/accounts/:id. The caller's capabilities from
// the token gate the edit.
func (h *AccountHandler) Update(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	_, _, _, caps := middleware.Caller(c)

	account, err := h.engine.UpdateAccount(c.Request.Context(), ports.UpdateAccountRequest{
		ID: c.Param("id"),
		Fields: domain.AccountUpdate{
			Name:                 req.Name,
			Company:              req.Company,
			Branch:               req.Branch,
			PhoneNumber:          req.PhoneNumber,
			AllowNegativeBalance: req.AllowNegativeBalance,
		},
		Caller: caps,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, account)
}

// Reconcile handles POST /api/v1/accounts/:id/reconcile.
func (h *AccountHandler) Reconcile(c *gin.Context) {
	report, err := h.resolver.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
