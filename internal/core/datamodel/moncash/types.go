package moncash

// TokenResponse is the provider's OAuth token grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// CreatePaymentRequest is the body of POST /v1/CreatePayment. Amount is a
// decimal string of gourdes, per the provider contract.
type CreatePaymentRequest struct {
	Amount  string `json:"amount"`
	OrderID string `json:"orderId"`
}

type CreatePaymentResponse struct {
	Mode         string       `json:"mode"`
	Path         string       `json:"path"`
	PaymentToken PaymentToken `json:"payment_token"`
	Timestamp    int64        `json:"timestamp"`
	Status       int          `json:"status"`
}

type PaymentToken struct {
	Token   string `json:"token"`
	Created string `json:"created"`
	Expired string `json:"expired"`
}

// RetrieveByTransactionRequest is the body of POST /v1/RetrieveTransactionPayment.
type RetrieveByTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

// RetrieveByOrderRequest is the body of POST /v1/RetrieveOrderPayment.
type RetrieveByOrderRequest struct {
	OrderID string `json:"orderId"`
}

type RetrieveResponse struct {
	Path      string         `json:"path"`
	Payment   PaymentDetails `json:"payment"`
	Timestamp int64          `json:"timestamp"`
	Status    int            `json:"status"`
}

// PaymentDetails is the authoritative provider record of one attempt.
// Message carries the settlement outcome ("successful", "failed", or a
// pending indication).
type PaymentDetails struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	Cost          string `json:"cost"`
	OrderID       string `json:"order_id"`
	Message       string `json:"message"`
	Payer         string `json:"payer"`
}

// ErrorPayload is what the provider returns on a rejected request.
type ErrorPayload struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}
