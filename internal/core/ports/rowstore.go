package ports

import (
	"context"
	"errors"
)

// Table names in the backing row store.
const (
	TableAccounts     = "accounts"
	TableTransactions = "transactions"
	TableBalances     = "balances"
	TableIdempotency  = "idempotency"
	TableOperators    = "operators"
)

// ErrRowNotFound is returned by FindRow and ReadRow when no row matches.
var ErrRowNotFound = errors.New("row not found")

// RowStore is the boundary to the shared tabular store. The store is
// non-transactional: there is no row lock, no compare-and-swap, and a read
// immediately after a write is not guaranteed to reflect it. Every call does
// network I/O and must honor ctx cancellation. Rows are 1-indexed and row 1
// is the header.
//
// A write that fails with the context expired has UNKNOWN effect; callers must
// surface that as indeterminate rather than assuming the write was lost.
type RowStore interface {
	// FindRow returns the index of the first data row whose first cell equals
	// matchValue, or ErrRowNotFound.
	FindRow(ctx context.Context, table, matchValue string) (int, error)

	// ReadRow returns the ordered cell values of one row.
	ReadRow(ctx context.Context, table string, rowIndex int) ([]string, error)

	// AppendRow appends one row of ordered cell values.
	AppendRow(ctx context.Context, table string, cells []string) error

	// UpdateCell overwrites a single cell by 1-indexed coordinates.
	UpdateCell(ctx context.Context, table string, rowIndex, colIndex int, value string) error

	// ReadAllRecords returns every data row as a columnName -> value mapping,
	// excluding the header row.
	ReadAllRecords(ctx context.Context, table string) ([]map[string]string, error)
}
