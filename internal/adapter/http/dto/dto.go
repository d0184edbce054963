package dto

// RegisterRequest is the request body for operator registration.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	AgentName string `json:"agent_name" binding:"required,min=1,max=100"`
	Branch    string `json:"branch" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	Username  string `json:"username"`
	AgentName string `json:"agent_name"`
	Branch    string `json:"branch"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateAccountRequest is the request body for account creation.
type CreateAccountRequest struct {
	ID                   string `json:"id" binding:"required,account_id"`
	Name                 string `json:"name" binding:"required,min=1,max=100"`
	Company              string `json:"company" binding:"max=100"`
	Branch               string `json:"branch" binding:"max=100"`
	PhoneNumber          string `json:"phone_number" binding:"omitempty,phone_number"`
	AllowNegativeBalance bool   `json:"allow_negative_balance"`
}

// UpdateAccountRequest is the request body for a metadata edit. Absent fields
// are left unchanged.
type UpdateAccountRequest struct {
	Name                 *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Company              *string `json:"company,omitempty" binding:"omitempty,max=100"`
	Branch               *string `json:"branch,omitempty" binding:"omitempty,max=100"`
	PhoneNumber          *string `json:"phone_number,omitempty" binding:"omitempty,phone_number"`
	AllowNegativeBalance *bool   `json:"allow_negative_balance,omitempty"`
}

// PostTransactionRequest is the request body for posting a transaction.
// Amount is a decimal string; floats never carry money.
type PostTransactionRequest struct {
	AccountID string `json:"account_id" binding:"required,account_id"`
	Type      string `json:"type" binding:"required,oneof=ADD DEDUCT"`
	Amount    string `json:"amount" binding:"required"`
}
