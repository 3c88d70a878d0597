package handler

// OnboardUserRequest represents a request to register a user with their account
type OnboardUserRequest struct {
	Name           string `json:"name" binding:"required"`
	PhoneNumber    string `json:"phone_number" binding:"required"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role" binding:"required,oneof=ADMIN AGENT CLIENT VENDOR"`
	InitialBalance string `json:"initial_balance,omitempty"`
	Ceiling        string `json:"ceiling" binding:"required"`
	Currency       string `json:"currency,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Balance   string `json:"balance"`
	Ceiling   string `json:"ceiling"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// OnboardUserResponse pairs the created user with their account
type OnboardUserResponse struct {
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	PhoneNumber string          `json:"phone_number"`
	Email       string          `json:"email,omitempty"`
	Role        string          `json:"role"`
	Account     AccountResponse `json:"account"`
}

// MovementRequest represents a deposit or withdrawal request
type MovementRequest struct {
	SenderPhoneNumber   string `json:"sender_phone_number" binding:"required"`
	ReceiverPhoneNumber string `json:"receiver_phone_number" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
	Currency            string `json:"currency,omitempty"`
}

// TransferRequest represents a peer-to-peer transfer request
type TransferRequest struct {
	SenderPhoneNumber   string `json:"sender_phone_number" binding:"required"`
	ReceiverPhoneNumber string `json:"receiver_phone_number" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
	Currency            string `json:"currency,omitempty"`
}

// PurchaseRequest represents a credit purchase request for an off-ledger receiver
type PurchaseRequest struct {
	SenderPhoneNumber   string `json:"sender_phone_number" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
	FeeAmount           string `json:"fee_amount,omitempty"`
	Currency            string `json:"currency,omitempty"`
	ReceiverName        string `json:"receiver_name,omitempty"`
	ReceiverPhoneNumber string `json:"receiver_phone_number,omitempty"`
	ReceiverEmail       string `json:"receiver_email,omitempty"`
}

// PurchaseDetailsResponse represents the off-ledger receiver of a purchase
type PurchaseDetailsResponse struct {
	ReceiverName        string `json:"receiver_name,omitempty"`
	ReceiverPhoneNumber string `json:"receiver_phone_number,omitempty"`
	ReceiverEmail       string `json:"receiver_email,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID         string                   `json:"id"`
	TransferID string                   `json:"transfer_id,omitempty"`
	SenderID   string                   `json:"sender_id,omitempty"`
	ReceiverID string                   `json:"receiver_id,omitempty"`
	Amount     string                   `json:"amount"`
	FeeAmount  string                   `json:"fee_amount"`
	Currency   string                   `json:"currency"`
	Type       string                   `json:"type"`
	Status     string                   `json:"status"`
	Purchase   *PurchaseDetailsResponse `json:"purchase,omitempty"`
	CreatedAt  string                   `json:"created_at"`
	UpdatedAt  string                   `json:"updated_at"`
}

// TransferResponse carries both legs of a completed transfer
type TransferResponse struct {
	TransferID string              `json:"transfer_id"`
	Send       TransactionResponse `json:"send"`
	Receive    TransactionResponse `json:"receive"`
}

// ListTransactionsParams represents query parameters for transaction listings
type ListTransactionsParams struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=10" binding:"min=1,max=100"`
	TimeFrame string `form:"time_frame,omitempty" binding:"omitempty,oneof=day week month"`
	UserID    string `form:"user_id,omitempty" binding:"omitempty,uuid"`
}
