package core

import "time"

// OrderStatus tracks the confirmation state of an order.
type OrderStatus string

// Order lifecycle states.
const (
	StatusPending     OrderStatus = "pending"
	StatusConfirmed   OrderStatus = "confirmed"
	StatusCancelled   OrderStatus = "cancelled"
	StatusNeedsReview OrderStatus = "needs_review"
)

// Decision is the outcome of classifying a customer reply.
type Decision string

// Possible reply classifications.
const (
	DecisionConfirmed Decision = "confirmed"
	DecisionCancelled Decision = "cancelled"
	DecisionUnclear   Decision = "unclear"
)

// ParsedOrder holds the structured fields extracted from a free-text order
// message. Fields the model could not find are left empty. Quantity, Size and
// PriceTotal are kept as strings because the model may answer with either
// numbers or prose ("দুইটা", "M and L").
type ParsedOrder struct {
	CustomerName string `json:"customer_name"`
	Quantity     string `json:"quantity"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	PriceTotal   string `json:"price_total"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	OtherNotes   string `json:"other_notes"`
}

// CallResult records what the customer said on the last confirmation call.
type CallResult struct {
	Speech   string    `json:"speech"`
	Digits   string    `json:"digits,omitempty"`
	Decision Decision  `json:"decision"`
	At       time.Time `json:"at"`
}

// Order is a shirt order awaiting phone confirmation.
type Order struct {
	ID          int         `json:"id"`
	RawText     string      `json:"raw_text"`
	Parsed      ParsedOrder `json:"parsed"`
	Script      string      `json:"script"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	LastCallSID string      `json:"last_call_sid,omitempty"`
	AudioKey    string      `json:"audio_key,omitempty"`
	LastResult  *CallResult `json:"last_result,omitempty"`
}
