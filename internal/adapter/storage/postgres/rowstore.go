package postgres

import (
	"context"
	"errors"
	"fmt"

	"balance-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// RowStore implements ports.RowStore on a single generic table:
//
//	ledger_rows (tbl text, idx bigint, cells text[], PRIMARY KEY (tbl, idx))
//
// Every operation is a single SQL statement and no statement opens a
// transaction, so this backend keeps the same contract as the hosted tabular
// store: no row locks, no compare-and-swap, and no atomicity between a read
// and the write that follows it. Callers already live with that contract.
type RowStore struct {
	pool Pool
}

// NewRowStore creates a RowStore over pool.
func NewRowStore(pool Pool) *RowStore {
	return &RowStore{pool: pool}
}

// InitSchema creates the backing table and seeds the header row of each
// ledger table if absent. Safe to run on every startup.
func (s *RowStore) InitSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ledger_rows (
		tbl   text   NOT NULL,
		idx   bigint NOT NULL,
		cells text[] NOT NULL,
		PRIMARY KEY (tbl, idx)
	)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create ledger_rows: %w", err)
	}

	headers := map[string][]string{
		ports.TableAccounts: {
			"ID", "Name", "Company", "CreatorAgent", "Timestamp",
			"CanHaveNegativeBalance", "PhoneNumber", "RegisteredBy", "Branch",
		},
		ports.TableTransactions: {
			"Timestamp", "ID", "TransactionType", "Amount", "Branch", "AgentName",
		},
		ports.TableBalances:    {"id", "balance"},
		ports.TableIdempotency: {"key", "response_json", "created_at"},
		ports.TableOperators: {
			"username", "password_hash", "agent_name", "branch",
			"can_allow_negative", "can_edit", "created_at",
		},
	}
	for tbl, header := range headers {
		query := `INSERT INTO ledger_rows (tbl, idx, cells) VALUES ($1, 1, $2)
			ON CONFLICT (tbl, idx) DO NOTHING`
		if _, err := s.pool.Exec(ctx, query, tbl, header); err != nil {
			return fmt.Errorf("seed header for %s: %w", tbl, err)
		}
	}
	return nil
}

// FindRow returns the index of the first data row whose first cell equals
// matchValue.
func (s *RowStore) FindRow(ctx context.Context, table, matchValue string) (int, error) {
	query := `SELECT idx FROM ledger_rows
		WHERE tbl = $1 AND idx > 1 AND cells[1] = $2
		ORDER BY idx LIMIT 1`

	var idx int
	err := s.pool.QueryRow(ctx, query, table, matchValue).Scan(&idx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ports.ErrRowNotFound
		}
		return 0, fmt.Errorf("find row in %s: %w", table, err)
	}
	return idx, nil
}

// ReadRow returns the cells of one row.
func (s *RowStore) ReadRow(ctx context.Context, table string, rowIndex int) ([]string, error) {
	query := `SELECT cells FROM ledger_rows WHERE tbl = $1 AND idx = $2`

	var cells []string
	err := s.pool.QueryRow(ctx, query, table, rowIndex).Scan(&cells)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrRowNotFound
		}
		return nil, fmt.Errorf("read row %d of %s: %w", rowIndex, table, err)
	}
	return cells, nil
}

// AppendRow appends one row. The next index is computed inside the INSERT
// itself, so the whole append is one statement. Two concurrent appends can
// still collide on the primary key; the caller sees that as a write failure
// and retries, which matches the shared-store behavior the rest of the
// system is built around.
func (s *RowStore) AppendRow(ctx context.Context, table string, cells []string) error {
	query := `INSERT INTO ledger_rows (tbl, idx, cells)
		SELECT $1, COALESCE(MAX(idx), 0) + 1, $2 FROM ledger_rows WHERE tbl = $1`

	if _, err := s.pool.Exec(ctx, query, table, cells); err != nil {
		return fmt.Errorf("append row to %s: %w", table, err)
	}
	return nil
}

// UpdateCell overwrites a single cell by 1-indexed coordinates.
func (s *RowStore) UpdateCell(ctx context.Context, table string, rowIndex, colIndex int, value string) error {
	query := `UPDATE ledger_rows SET cells[$3] = $4 WHERE tbl = $1 AND idx = $2`

	tag, err := s.pool.Exec(ctx, query, table, rowIndex, colIndex, value)
	if err != nil {
		return fmt.Errorf("update cell (%d,%d) of %s: %w", rowIndex, colIndex, table, err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrRowNotFound
	}
	return nil
}

// ReadAllRecords returns every data row keyed by the header columns.
func (s *RowStore) ReadAllRecords(ctx context.Context, table string) ([]map[string]string, error) {
	query := `SELECT idx, cells FROM ledger_rows WHERE tbl = $1 ORDER BY idx`

	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("read all rows of %s: %w", table, err)
	}
	defer rows.Close()

	var header []string
	var records []map[string]string
	for rows.Next() {
		var idx int
		var cells []string
		if err := rows.Scan(&idx, &cells); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}
		if header == nil {
			header = cells
			continue
		}
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(cells) {
				rec[col] = cells[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows of %s: %w", table, err)
	}
	if header == nil {
		return nil, fmt.Errorf("table %s has no header row", table)
	}
	if records == nil {
		records = []map[string]string{}
	}
	return records, nil
}
