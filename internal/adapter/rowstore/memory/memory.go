// Package memory provides an in-process RowStore. It backs the dev/test
// deployment mode and, through injectable latency, failures and append hooks,
// lets tests exercise the store's failure and interleaving behavior
// deterministically.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"balance-ledger/internal/core/ports"
)

// Store is an in-memory ports.RowStore. Row 1 of every table is the header.
type Store struct {
	mu     sync.RWMutex
	tables map[string][][]string

	// Latency is applied to every call, honoring ctx expiry. Zero disables it.
	Latency time.Duration

	// BeforeAppend, when set, runs just before an AppendRow mutates state.
	// Tests use it as a barrier to force a specific interleaving.
	BeforeAppend func(table string)

	failMu      sync.Mutex
	failAppends map[string]error
	failUpdates map[string]error
}

// NewStore creates a Store with the standard ledger tables and headers.
func NewStore() *Store {
	s := &Store{
		tables:      make(map[string][][]string),
		failAppends: make(map[string]error),
		failUpdates: make(map[string]error),
	}
	s.tables[ports.TableAccounts] = [][]string{{
		"ID", "Name", "Company", "CreatorAgent", "Timestamp",
		"CanHaveNegativeBalance", "PhoneNumber", "RegisteredBy", "Branch",
	}}
	s.tables[ports.TableTransactions] = [][]string{{
		"Timestamp", "ID", "TransactionType", "Amount", "Branch", "AgentName",
	}}
	s.tables[ports.TableBalances] = [][]string{{"id", "balance"}}
	s.tables[ports.TableIdempotency] = [][]string{{"key", "response_json", "created_at"}}
	s.tables[ports.TableOperators] = [][]string{{
		"username", "password_hash", "agent_name", "branch",
		"can_allow_negative", "can_edit", "created_at",
	}}
	return s
}

// FailNextAppend makes the next AppendRow on table return err.
func (s *Store) FailNextAppend(table string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failAppends[table] = err
}

// FailNextUpdate makes the next UpdateCell on table return err.
func (s *Store) FailNextUpdate(table string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failUpdates[table] = err
}

// wait simulates network latency, returning early if ctx expires. The caller
// cannot know whether an expired write landed, which is exactly the ambiguity
// the engine has to classify as indeterminate.
func (s *Store) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Store) FindRow(ctx context.Context, table, matchValue string) (int, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > 0 && rows[i][0] == matchValue {
			return i + 1, nil // 1-indexed
		}
	}
	return 0, ports.ErrRowNotFound
}

func (s *Store) ReadRow(ctx context.Context, table string, rowIndex int) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	if rowIndex < 1 || rowIndex > len(rows) {
		return nil, ports.ErrRowNotFound
	}
	row := rows[rowIndex-1]
	out := make([]string, len(row))
	copy(out, row)
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, cells []string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if s.BeforeAppend != nil {
		s.BeforeAppend(table)
	}
	s.failMu.Lock()
	if err, ok := s.failAppends[table]; ok {
		delete(s.failAppends, table)
		s.failMu.Unlock()
		return err
	}
	s.failMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	row := make([]string, len(cells))
	copy(row, cells)
	s.tables[table] = append(rows, row)
	return nil
}

func (s *Store) UpdateCell(ctx context.Context, table string, rowIndex, colIndex int, value string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.failMu.Lock()
	if err, ok := s.failUpdates[table]; ok {
		delete(s.failUpdates, table)
		s.failMu.Unlock()
		return err
	}
	s.failMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if rowIndex < 1 || rowIndex > len(rows) {
		return ports.ErrRowNotFound
	}
	row := rows[rowIndex-1]
	if colIndex < 1 || colIndex > len(row) {
		return fmt.Errorf("column %d out of range for table %q", colIndex, table)
	}
	row[colIndex-1] = value
	return nil
}

func (s *Store) ReadAllRecords(ctx context.Context, table string) ([]map[string]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// RowCount returns the number of data rows in a table (header excluded).
// Test helper.
func (s *Store) RowCount(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.tables[table]
	if len(rows) == 0 {
		return 0
	}
	return len(rows) - 1
}
