package rowstore

import (
	"context"
	"errors"
	"fmt"

	"balance-ledger/internal/core/ports"

	"github.com/shopspring/decimal"
)

// BalanceStore implements ports.BalanceStore over the row store. The rows it
// manages are an advisory materialization; the transaction ledger stays
// authoritative.
type BalanceStore struct {
	store ports.RowStore
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(store ports.RowStore) *BalanceStore {
	return &BalanceStore{store: store}
}

// Get returns the materialized value and whether a row existed. An absent row
// is not an error: an account with no postings has implicit balance zero.
func (b *BalanceStore) Get(ctx context.Context, accountID string) (decimal.Decimal, bool, error) {
	idx, err := b.store.FindRow(ctx, ports.TableBalances, accountID)
	if errors.Is(err, ports.ErrRowNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("find balance %s: %w", accountID, err)
	}
	row, err := b.store.ReadRow(ctx, ports.TableBalances, idx)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("read balance %s: %w", accountID, err)
	}
	if len(row) < 2 {
		return decimal.Zero, false, fmt.Errorf("balance row for %s has %d cells", accountID, len(row))
	}
	value, err := parseAmountCell(row[1])
	if err != nil {
		return decimal.Zero, false, err
	}
	return value, true, nil
}

// Set writes the materialized value, updating the existing row or appending
// a new one.
func (b *BalanceStore) Set(ctx context.Context, accountID string, value decimal.Decimal) error {
	idx, err := b.store.FindRow(ctx, ports.TableBalances, accountID)
	if errors.Is(err, ports.ErrRowNotFound) {
		if err := b.store.AppendRow(ctx, ports.TableBalances, []string{accountID, value.String()}); err != nil {
			return fmt.Errorf("append balance %s: %w", accountID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("find balance %s: %w", accountID, err)
	}
	if err := b.store.UpdateCell(ctx, ports.TableBalances, idx, 2, value.String()); err != nil {
		return fmt.Errorf("update balance %s: %w", accountID, err)
	}
	return nil
}
