package rowstore

import (
	"context"
	"errors"
	"fmt"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
)

// AccountDirectory implements ports.AccountDirectory over the row store.
type AccountDirectory struct {
	store ports.RowStore
}

// NewAccountDirectory creates a new AccountDirectory.
func NewAccountDirectory(store ports.RowStore) *AccountDirectory {
	return &AccountDirectory{store: store}
}

// Create appends the account record. The existence check and the append are
// one logical step for the caller, but the store offers no atomicity between
// them; concurrent creates of the same id can slip through and are caught by
// reconciliation.
func (d *AccountDirectory) Create(ctx context.Context, account *domain.Account) error {
	_, err := d.store.FindRow(ctx, ports.TableAccounts, account.ID)
	if err == nil {
		return ports.ErrDuplicateID
	}
	if !errors.Is(err, ports.ErrRowNotFound) {
		return fmt.Errorf("check account %s: %w: %w", account.ID, ports.ErrReadFailed, err)
	}
	if err := d.store.AppendRow(ctx, ports.TableAccounts, accountToRow(account)); err != nil {
		return fmt.Errorf("append account %s: %w", account.ID, err)
	}
	return nil
}

// Find returns the account by exact id match, (nil, nil) when absent.
func (d *AccountDirectory) Find(ctx context.Context, id string) (*domain.Account, error) {
	idx, err := d.store.FindRow(ctx, ports.TableAccounts, id)
	if errors.Is(err, ports.ErrRowNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", id, err)
	}
	row, err := d.store.ReadRow(ctx, ports.TableAccounts, idx)
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", id, err)
	}
	return accountFromRow(row)
}

// Update rewrites the mutable columns only. Returns (nil, nil) when the
// account does not exist. Each changed cell is a separate store write; the
// identifier, creation timestamp and provenance columns are never touched.
func (d *AccountDirectory) Update(ctx context.Context, id string, fields domain.AccountUpdate) (*domain.Account, error) {
	idx, err := d.store.FindRow(ctx, ports.TableAccounts, id)
	if errors.Is(err, ports.ErrRowNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w: %w", id, ports.ErrReadFailed, err)
	}

	type cellEdit struct {
		col   int
		value string
	}
	var edits []cellEdit
	if fields.Name != nil {
		edits = append(edits, cellEdit{accColName, *fields.Name})
	}
	if fields.Company != nil {
		edits = append(edits, cellEdit{accColCompany, *fields.Company})
	}
	if fields.Branch != nil {
		edits = append(edits, cellEdit{accColBranch, *fields.Branch})
	}
	if fields.PhoneNumber != nil {
		edits = append(edits, cellEdit{accColPhoneNumber, *fields.PhoneNumber})
	}
	if fields.AllowNegativeBalance != nil {
		edits = append(edits, cellEdit{accColAllowNegative, domain.FormatBoolCell(*fields.AllowNegativeBalance)})
	}

	for _, e := range edits {
		if err := d.store.UpdateCell(ctx, ports.TableAccounts, idx, e.col, e.value); err != nil {
			return nil, fmt.Errorf("update account %s column %d: %w", id, e.col, err)
		}
	}

	row, err := d.store.ReadRow(ctx, ports.TableAccounts, idx)
	if err != nil {
		return nil, fmt.Errorf("reread account %s: %w: %w", id, ports.ErrReadFailed, err)
	}
	return accountFromRow(row)
}

// ListIDs returns every account identifier, header excluded.
func (d *AccountDirectory) ListIDs(ctx context.Context) ([]string, error) {
	records, err := d.store.ReadAllRecords(ctx, ports.TableAccounts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if id := rec["ID"]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
