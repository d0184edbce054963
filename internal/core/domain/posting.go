package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingType is the direction of a posting. Signedness is carried here,
// never by a negative amount.
type PostingType string

const (
	PostingTypeAdd    PostingType = "ADD"
	PostingTypeDeduct PostingType = "DEDUCT"
)

// Valid reports whether t is one of the two known posting types.
func (t PostingType) Valid() bool {
	return t == PostingTypeAdd || t == PostingTypeDeduct
}

// Posting is one immutable entry in the append-only transaction ledger.
// Once committed it is never updated or deleted; corrections are made with
// compensating postings.
type Posting struct {
	AccountID      string          `json:"account_id"`
	Type           PostingType     `json:"type"`
	Amount         decimal.Decimal `json:"amount"` // always non-negative
	Branch         string          `json:"branch"`
	AgentName      string          `json:"agent_name"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	// Timestamp is server-assigned at append time. The store gives no ordering
	// guarantee across rows, so it is advisory for display and sort only.
	Timestamp time.Time `json:"timestamp"`
	// Malformed marks a row whose amount or type cell could not be parsed.
	// The row is surfaced with a zero amount instead of failing the read, so
	// one corrupt cell cannot take the whole ledger offline.
	Malformed bool `json:"malformed,omitempty"`
}

// Signed returns the posting's contribution to the account balance:
// +Amount for ADD, -Amount for DEDUCT.
func (p Posting) Signed() decimal.Decimal {
	if p.Type == PostingTypeDeduct {
		return p.Amount.Neg()
	}
	return p.Amount
}

// SameIdentity reports whether two postings describe the same write: same
// account, direction, amount, provenance and server-assigned timestamp. The
// ledger has no row ids, so this is what identifies a posting when checking
// whether an append of unknown outcome actually landed.
func (p Posting) SameIdentity(o Posting) bool {
	return p.AccountID == o.AccountID &&
		p.Type == o.Type &&
		p.Amount.Equal(o.Amount) &&
		p.Branch == o.Branch &&
		p.AgentName == o.AgentName &&
		p.Timestamp.Equal(o.Timestamp)
}

// SumSigned replays a sequence of postings into a balance.
func SumSigned(postings []Posting) decimal.Decimal {
	total := decimal.Zero
	for _, p := range postings {
		total = total.Add(p.Signed())
	}
	return total
}
