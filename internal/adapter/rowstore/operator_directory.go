package rowstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
)

const (
	opColUsername = iota + 1
	opColPasswordHash
	opColAgentName
	opColBranch
	opColCanAllowNegative
	opColCanEdit
	opColCreatedAt
)

// OperatorDirectory stores operator credentials and capabilities in the
// operators table.
type OperatorDirectory struct {
	store ports.RowStore
	now   func() time.Time
}

// NewOperatorDirectory creates a new OperatorDirectory.
func NewOperatorDirectory(store ports.RowStore) *OperatorDirectory {
	return &OperatorDirectory{store: store, now: time.Now}
}

// Create appends a new operator row. Returns ports.ErrDuplicateUsername if
// the username is already taken at the time of the check.
func (d *OperatorDirectory) Create(ctx context.Context, op *domain.Operator) error {
	_, err := d.store.FindRow(ctx, ports.TableOperators, op.Username)
	if err == nil {
		return ports.ErrDuplicateUsername
	}
	if !errors.Is(err, ports.ErrRowNotFound) {
		return fmt.Errorf("find operator %s: %w", op.Username, err)
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = d.now().UTC()
	}
	row := []string{
		op.Username,
		op.PasswordHash,
		op.AgentName,
		op.Branch,
		domain.FormatBoolCell(op.Capabilities.CanAllowNegative),
		domain.FormatBoolCell(op.Capabilities.CanEdit),
		formatCellTime(op.CreatedAt),
	}
	if err := d.store.AppendRow(ctx, ports.TableOperators, row); err != nil {
		return fmt.Errorf("append operator %s: %w", op.Username, err)
	}
	return nil
}

// GetByUsername returns the operator, or (nil, nil) if no such username
// exists.
func (d *OperatorDirectory) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	idx, err := d.store.FindRow(ctx, ports.TableOperators, username)
	if errors.Is(err, ports.ErrRowNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find operator %s: %w", username, err)
	}
	row, err := d.store.ReadRow(ctx, ports.TableOperators, idx)
	if err != nil {
		return nil, fmt.Errorf("read operator %s: %w", username, err)
	}
	return operatorFromRow(row)
}

func operatorFromRow(row []string) (*domain.Operator, error) {
	if len(row) < opColCreatedAt {
		return nil, fmt.Errorf("operator row has %d cells, want %d", len(row), opColCreatedAt)
	}
	return &domain.Operator{
		Username:     row[opColUsername-1],
		PasswordHash: row[opColPasswordHash-1],
		AgentName:    row[opColAgentName-1],
		Branch:       row[opColBranch-1],
		Capabilities: domain.Capabilities{
			CanAllowNegative: domain.ParseBoolCell(row[opColCanAllowNegative-1]),
			CanEdit:          domain.ParseBoolCell(row[opColCanEdit-1]),
		},
		CreatedAt: parseCellTime(row[opColCreatedAt-1]),
	}, nil
}
