package ports

import (
	"context"
	"time"

	"balance-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// --- Service Ports (Business Logic) ---

// LedgerEngine is the core orchestration: it provides the atomic-looking
// operation "post a transaction if and only if it keeps the account's balance
// within its allowed range" on top of a store with no atomic read-modify-write.
type LedgerEngine interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error)
	UpdateAccount(ctx context.Context, req UpdateAccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*AccountView, error)
	PostTransaction(ctx context.Context, req PostRequest) (*PostResult, error)
}

// CreateAccountRequest holds validated input for account creation.
type CreateAccountRequest struct {
	ID                   string
	Name                 string
	Company              string
	Branch               string
	PhoneNumber          string
	CreatorAgent         string
	RegisteredBy         string
	AllowNegativeBalance bool
}

// UpdateAccountRequest holds validated input for a metadata edit.
// Caller capabilities gate the edit: CanEdit for any change, CanAllowNegative
// additionally for flipping the negative-balance flag.
type UpdateAccountRequest struct {
	ID     string
	Fields domain.AccountUpdate
	Caller domain.Capabilities
}

// PostRequest holds validated input for posting a transaction.
type PostRequest struct {
	AccountID string
	Type      domain.PostingType
	Amount    decimal.Decimal
	Branch    string
	AgentName string
	// IdempotencyKey is the caller-supplied retry token. Empty means the
	// caller accepts duplicate risk on retry after an indeterminate outcome.
	IdempotencyKey string
	Caller         domain.Capabilities
}

// PostResult is the committed posting plus the balance it produced. Replayed
// is true when the result came from the idempotency log rather than a fresh
// append.
type PostResult struct {
	Posting    domain.Posting  `json:"posting"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Replayed   bool            `json:"replayed"`
}

// AccountView is an account with its history and materialized balance, the
// read model behind the search page.
type AccountView struct {
	Account  domain.Account   `json:"account"`
	Balance  decimal.Decimal  `json:"balance"`
	Postings []domain.Posting `json:"postings"` // chronological
}

// BalanceResolver computes or fetches the current balance for an account.
type BalanceResolver interface {
	// Get returns the materialized balance, zero when no row exists.
	Get(ctx context.Context, accountID string) (decimal.Decimal, error)
	// Reconcile replays the ledger and compares against the materialized
	// value. Ground truth for audit and repair.
	Reconcile(ctx context.Context, accountID string) (*domain.ReconcileReport, error)
	// ReconcileAll sweeps every account in the directory.
	ReconcileAll(ctx context.Context) ([]domain.ReconcileReport, error)
}

// AuditQuery is the read-only reporting surface over directory + ledger +
// materialized balances. No mutation capability.
type AuditQuery interface {
	Transactions(ctx context.Context, filter TransactionFilter) ([]domain.Posting, error)
	Accounts(ctx context.Context, filter AccountFilter) ([]AccountSummary, error)
}

// TransactionFilter selects ledger postings for audit. Company is resolved
// through a join with the account directory.
type TransactionFilter struct {
	From    time.Time
	To      time.Time
	Branch  string
	Company string
}

// BalanceSign buckets accounts by the sign of their materialized balance.
type BalanceSign string

const (
	BalanceSignAny      BalanceSign = ""
	BalanceSignNegative BalanceSign = "negative"
	BalanceSignZero     BalanceSign = "zero"
	BalanceSignPositive BalanceSign = "positive"
)

// AccountFilter selects accounts for audit.
type AccountFilter struct {
	From    time.Time
	To      time.Time
	Company string
	Branch  string
	Sign    BalanceSign
}

// AccountSummary is one audit row: account metadata plus its materialized
// balance (zero when no balance row exists).
type AccountSummary struct {
	Account domain.Account  `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

// AuthService authenticates operators and issues capability-bearing tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterOperatorRequest) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterOperatorRequest holds input for operator registration. Capabilities
// default to CanEdit only; elevated capability is granted out of band (config
// bootstrap).
type RegisterOperatorRequest struct {
	Username  string
	Password  string
	AgentName string
	Branch    string
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(username string, caps domain.Capabilities, agentName, branch string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Username     string
	AgentName    string
	Branch       string
	Capabilities domain.Capabilities
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}
