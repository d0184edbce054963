package domain

import (
	"strings"
	"time"
)

// Account is a customer account record in the directory. The identifier is
// externally assigned and immutable; balance never lives here, it is derived
// from the posting ledger.
type Account struct {
	ID                   string    `json:"id"` // 14 numeric characters
	Name                 string    `json:"name"`
	Company              string    `json:"company"`
	Branch               string    `json:"branch"`
	PhoneNumber          string    `json:"phone_number"` // 11 numeric characters
	CreatorAgent         string    `json:"creator_agent"` // immutable after create
	RegisteredBy         string    `json:"registered_by"` // immutable after create
	CreatedAt            time.Time `json:"created_at"`
	AllowNegativeBalance bool      `json:"allow_negative_balance"`
}

// AccountUpdate carries the mutable subset of account fields. Nil pointers
// mean "leave unchanged". ID, CreatedAt, CreatorAgent and RegisteredBy are
// deliberately absent: they can never be rewritten.
type AccountUpdate struct {
	Name                 *string
	Company              *string
	Branch               *string
	PhoneNumber          *string
	AllowNegativeBalance *bool
}

// Capabilities are the caller's authorization flags, resolved by the auth
// collaborator and consumed here as opaque booleans.
type Capabilities struct {
	CanAllowNegative bool `json:"can_allow_negative"`
	CanEdit          bool `json:"can_edit"`
}

// ParseBoolCell normalizes a free-text boolean cell ("true"/"FALSE"/" True ")
// to a bool, case-insensitively. Anything that is not "true" is false.
func ParseBoolCell(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// FormatBoolCell renders a bool the way the store persists it.
func FormatBoolCell(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
