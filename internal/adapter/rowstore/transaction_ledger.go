package rowstore

import (
	"context"
	"fmt"
	"time"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
)

// TransactionLedger implements ports.TransactionLedger over the row store.
// Append is the only write; committed rows are never touched again.
type TransactionLedger struct {
	store ports.RowStore
	now   func() time.Time
}

// NewTransactionLedger creates a new TransactionLedger.
func NewTransactionLedger(store ports.RowStore) *TransactionLedger {
	return &TransactionLedger{store: store, now: time.Now}
}

// Append commits one posting, assigning the server timestamp if unset.
// The persisted layout carries no idempotency column; the key stays on the
// returned posting for the engine's idempotency log.
func (l *TransactionLedger) Append(ctx context.Context, posting domain.Posting) (*domain.Posting, error) {
	if posting.Timestamp.IsZero() {
		posting.Timestamp = l.now().UTC()
	}
	// The cell layout keeps second precision; the returned posting reflects
	// what the store actually holds.
	posting.Timestamp = posting.Timestamp.Truncate(time.Second)
	if err := l.store.AppendRow(ctx, ports.TableTransactions, postingToRow(posting)); err != nil {
		return nil, fmt.Errorf("append posting for %s: %w", posting.AccountID, err)
	}
	return &posting, nil
}

// QueryByAccount returns the account's postings in store order.
func (l *TransactionLedger) QueryByAccount(ctx context.Context, accountID string) ([]domain.Posting, error) {
	records, err := l.store.ReadAllRecords(ctx, ports.TableTransactions)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	var postings []domain.Posting
	for _, rec := range records {
		if rec["ID"] != accountID {
			continue
		}
		postings = append(postings, postingFromRecord(rec))
	}
	return postings, nil
}

// QueryAll returns postings matching the filter, in store order.
func (l *TransactionLedger) QueryAll(ctx context.Context, filter ports.PostingFilter) ([]domain.Posting, error) {
	records, err := l.store.ReadAllRecords(ctx, ports.TableTransactions)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	var postings []domain.Posting
	for _, rec := range records {
		p := postingFromRecord(rec)
		if !matchPosting(p, filter) {
			continue
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func matchPosting(p domain.Posting, f ports.PostingFilter) bool {
	if !f.From.IsZero() && p.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && p.Timestamp.After(f.To) {
		return false
	}
	if f.Branch != "" && p.Branch != f.Branch {
		return false
	}
	if f.AccountIDs != nil {
		if _, ok := f.AccountIDs[p.AccountID]; !ok {
			return false
		}
	}
	return true
}
