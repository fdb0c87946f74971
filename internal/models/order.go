package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the backend order-status vocabulary. The backend has
// used two overlapping vocabularies historically; this is the superset.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderExpired   OrderStatus = "expired"
	OrderPaid      OrderStatus = "paid"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderPaid, OrderCancelled, OrderExpired:
		return true
	}
	return false
}

// Order represents one ticket-purchase attempt. The ID is assigned by
// the backend and is empty before the first successful inquiry.
// ReservationExpired is set once at creation; the client never extends it.
type Order struct {
	ID                 string          `json:"id_order,omitempty"`
	UserID             string          `json:"id_user"`
	ConcertID          string          `json:"id_concert"`
	PaymentMethodID    string          `json:"id_method"`
	Quantity           int             `json:"quantity"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Status             OrderStatus     `json:"status"`
	ReservationExpired time.Time       `json:"reservation_expired"`
	CreatedAt          string          `json:"created_at,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
}

// TransactionStatus tracks server-side verification of a payment proof.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionVerified TransactionStatus = "verified"
	TransactionRejected TransactionStatus = "rejected"
)

// Transaction is an uploaded proof of payment tied to an order.
// A rejected proof is never edited in place; resubmission creates a
// new record against the same order.
type Transaction struct {
	ID              string            `json:"id_transaction,omitempty"`
	OrderID         string            `json:"id_order"`
	UserID          string            `json:"id_user"`
	ProofURL        string            `json:"proof_url,omitempty"`
	Status          TransactionStatus `json:"status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	CreatedAt       string            `json:"created_at,omitempty"`
}
