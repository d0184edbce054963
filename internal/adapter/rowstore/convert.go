// Package rowstore holds the typed adapters between the core's domain
// structures and the generic tabular store. All row parsing and formatting
// lives here; the core never sees loosely-typed rows or free-text cells.
package rowstore

import (
	"fmt"
	"strings"
	"time"

	"balance-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// cellTimeLayout is the timestamp format the store persists.
const cellTimeLayout = "2006-01-02 15:04:05"

// Account column positions, 1-indexed, as persisted.
const (
	accColID = iota + 1
	accColName
	accColCompany
	accColCreatorAgent
	accColTimestamp
	accColAllowNegative
	accColPhoneNumber
	accColRegisteredBy
	accColBranch
	accColumnCount = accColBranch
)

func formatCellTime(t time.Time) string {
	return t.UTC().Format(cellTimeLayout)
}

// parseCellTime parses a timestamp cell. Unparseable values yield the zero
// time: callers sort them as insertion-order ties rather than failing the
// whole read.
func parseCellTime(raw string) time.Time {
	t, err := time.Parse(cellTimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseAmountCell(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount cell %q: %w", raw, err)
	}
	return d, nil
}

func accountToRow(a *domain.Account) []string {
	return []string{
		a.ID,
		a.Name,
		a.Company,
		a.CreatorAgent,
		formatCellTime(a.CreatedAt),
		domain.FormatBoolCell(a.AllowNegativeBalance),
		a.PhoneNumber,
		a.RegisteredBy,
		a.Branch,
	}
}

func accountFromRow(row []string) (*domain.Account, error) {
	if len(row) < accColumnCount {
		return nil, fmt.Errorf("account row has %d cells, want %d", len(row), accColumnCount)
	}
	return &domain.Account{
		ID:                   row[accColID-1],
		Name:                 row[accColName-1],
		Company:              row[accColCompany-1],
		CreatorAgent:         row[accColCreatorAgent-1],
		CreatedAt:            parseCellTime(row[accColTimestamp-1]),
		AllowNegativeBalance: domain.ParseBoolCell(row[accColAllowNegative-1]),
		PhoneNumber:          row[accColPhoneNumber-1],
		RegisteredBy:         row[accColRegisteredBy-1],
		Branch:               row[accColBranch-1],
	}, nil
}

func postingToRow(p domain.Posting) []string {
	return []string{
		formatCellTime(p.Timestamp),
		p.AccountID,
		string(p.Type),
		p.Amount.String(),
		p.Branch,
		p.AgentName,
	}
}

// postingFromRecord converts one stored row. Like parseCellTime, it never
// fails the read over one bad cell: a row with an unparseable amount or an
// unknown type comes back flagged Malformed with a zero amount, keeping the
// raw type text for the audit trail.
func postingFromRecord(rec map[string]string) domain.Posting {
	p := domain.Posting{
		AccountID: rec["ID"],
		Type:      domain.PostingType(strings.TrimSpace(rec["TransactionType"])),
		Branch:    rec["Branch"],
		AgentName: rec["AgentName"],
		Timestamp: parseCellTime(rec["Timestamp"]),
	}
	amount, err := parseAmountCell(rec["Amount"])
	if err != nil {
		p.Malformed = true
		return p
	}
	if !p.Type.Valid() {
		p.Malformed = true
		return p
	}
	p.Amount = amount
	return p
}
