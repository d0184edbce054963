package domain

import "github.com/shopspring/decimal"

// Balance is the materialized current-balance row for an account. It is an
// advisory cache over the ledger: the ledger is authoritative, and any value
// here must be recoverable by replaying the account's postings.
type Balance struct {
	AccountID string          `json:"account_id"`
	Value     decimal.Decimal `json:"value"`
}

// ReconcileReport is the outcome of replaying an account's ledger against its
// materialized balance. A divergence is a data-quality signal to surface for
// audit, never something to silently auto-correct: auto-correction could mask
// an unrecorded store write failure.
type ReconcileReport struct {
	AccountID    string          `json:"account_id"`
	Materialized decimal.Decimal `json:"materialized"`
	Replayed     decimal.Decimal `json:"replayed"`
	Divergent    bool            `json:"divergent"`
	// PolicyViolation is set when the replayed balance is negative on an
	// account that does not allow negative balances. This is the expected
	// audit finding after the accepted read-decide-append race.
	PolicyViolation bool `json:"policy_violation"`
	PostingCount    int  `json:"posting_count"`
	// MalformedPostings counts ledger rows whose amount or type cell could
	// not be parsed. They carry a zero amount into the replay, so any hidden
	// value shows up as divergence rather than vanishing silently.
	MalformedPostings int `json:"malformed_postings,omitempty"`
	// DuplicateID is set when the directory holds more than one row for this
	// account id, the leftover of a concurrent-create race.
	DuplicateID bool `json:"duplicate_id,omitempty"`
}
