package domain

import "time"

// Operator is a human user of the ledger: the person who creates accounts and
// records postings. The agent name and branch become posting provenance; the
// capabilities gate account edits.
type Operator struct {
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	AgentName    string       `json:"agent_name"`
	Branch       string       `json:"branch"`
	Capabilities Capabilities `json:"capabilities"`
	CreatedAt    time.Time    `json:"created_at"`
}
