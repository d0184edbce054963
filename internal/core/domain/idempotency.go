package domain

import "time"

// IdempotencyLog is the durable record that an append with a given key already
// committed, together with the response to replay. The backing store's
// transaction layout is fixed and carries no key column, so the log lives in
// its own table.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "account_id:caller_key"
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey constructs the standard key format.
func BuildIdempotencyKey(accountID, callerKey string) string {
	return accountID + ":" + callerKey
}
