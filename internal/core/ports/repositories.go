package ports

import (
	"context"
	"errors"
	"time"

	"balance-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ErrDuplicateID is returned by AccountDirectory.Create when the identifier is
// already present. The store's own uniqueness signal, where one exists, is
// treated as authoritative.
var ErrDuplicateID = errors.New("duplicate account id")

// ErrDuplicateUsername is the OperatorDirectory counterpart.
var ErrDuplicateUsername = errors.New("duplicate username")

// ErrReadFailed marks a repository error as having occurred on a read phase,
// before any write was attempted. Mixed read-then-write operations such as
// AccountDirectory.Update wrap locate and reread failures with it so callers
// can report a read failure instead of an uncertain write.
var ErrReadFailed = errors.New("read failed")

// AccountDirectory maps external account identifiers to metadata records.
// Lookups return (nil, nil) when the account is absent.
type AccountDirectory interface {
	Create(ctx context.Context, account *domain.Account) error
	Find(ctx context.Context, id string) (*domain.Account, error)
	// Update rewrites only the mutable subset of fields and returns the
	// updated record. It never touches id, createdAt, creatorAgent or
	// registeredBy. Returns (nil, nil) if the account is absent.
	Update(ctx context.Context, id string, fields domain.AccountUpdate) (*domain.Account, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// TransactionLedger is the append-only posting log: the single source of truth
// for balance. Append is the only mutator; nothing updates or removes a
// committed posting.
type TransactionLedger interface {
	// Append commits one posting, assigning Timestamp if zero, and returns the
	// committed posting. A returned error means the caller must treat the
	// posting as not committed unless the context expired mid-write, in which
	// case the outcome is unknown.
	Append(ctx context.Context, posting domain.Posting) (*domain.Posting, error)

	// QueryByAccount returns the account's postings in store order. Callers
	// needing chronology sort by Timestamp, treating unparseable or duplicate
	// timestamps as insertion-order ties.
	QueryByAccount(ctx context.Context, accountID string) ([]domain.Posting, error)

	// QueryAll returns postings matched by the filter, for audit.
	QueryAll(ctx context.Context, filter PostingFilter) ([]domain.Posting, error)
}

// PostingFilter selects postings for audit queries. Zero values mean "any".
type PostingFilter struct {
	From   time.Time
	To     time.Time
	Branch string
	// AccountIDs narrows to a set of accounts (used for the company join).
	AccountIDs map[string]struct{}
}

// BalanceStore holds the materialized balance rows. Advisory cache only:
// absence is implicit zero, and divergence from the replayed ledger is an
// audit signal, not a failure.
type BalanceStore interface {
	// Get returns the materialized value and whether a row existed.
	Get(ctx context.Context, accountID string) (decimal.Decimal, bool, error)
	// Set writes the materialized value, creating the row if needed.
	Set(ctx context.Context, accountID string, value decimal.Decimal) error
}

// IdempotencyStore is the authoritative record of committed idempotency keys
// in the row store. Get returns (nil, nil) when the key is unknown.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
	Put(ctx context.Context, log *domain.IdempotencyLog) error
}

// IdempotencyCache is the fast-path idempotency check (Redis). Best-effort:
// a cache error falls through to the authoritative store.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// OperatorDirectory stores operator credentials and capabilities.
// GetByUsername returns (nil, nil) when absent.
type OperatorDirectory interface {
	Create(ctx context.Context, op *domain.Operator) error
	GetByUsername(ctx context.Context, username string) (*domain.Operator, error)
}
