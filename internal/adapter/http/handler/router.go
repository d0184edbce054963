package handler

import (
	"time"

	"balance-ledger/internal/adapter/http/middleware"
	"balance-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	Engine         ports.LedgerEngine
	Resolver       ports.BalanceResolver
	Audit          ports.AuditQuery
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	OpTimeout      time.Duration // 0 = no per-request deadline
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	r.Use(middleware.Timeout(deps.OpTimeout))

	// Health check (deep: verifies the row store and cache)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	accountHandler := NewAccountHandler(deps.Engine, deps.Resolver)
	transactionHandler := NewTransactionHandler(deps.Engine)
	auditHandler := NewAuditHandler(deps.Audit, deps.Resolver)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", accountHandler.Create)
		accounts.GET("/:id", accountHandler.Get)
		accounts.PUT("/:id", accountHandler.Update)
		accounts.POST("/:id/reconcile", accountHandler.Reconcile)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.POST("", transactionHandler.Post)
	}

	audit := v1.Group("/audit", jwtAuth)
	{
		audit.GET("/transactions", auditHandler.Transactions)
		audit.GET("/accounts", auditHandler.Accounts)
		audit.POST("/reconcile", auditHandler.ReconcileAll)
	}

	return r
}
