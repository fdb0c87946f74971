package models

import "github.com/shopspring/decimal"

// Concert status flags as sent by the backend.
const (
	ConcertInactive = 0
	ConcertActive   = 1
)

// Concert is a read-only projection of a catalog entry. Field names
// match the backend wire format. The available-tickets counter is
// advisory only; the server re-checks availability at order time.
type Concert struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Artist           string          `json:"artist"`
	Venue            string          `json:"venue"`
	Date             string          `json:"date"`
	Price            decimal.Decimal `json:"price"`
	ImageURL         string          `json:"image_url"`
	Description      string          `json:"description"`
	TotalTickets     int             `json:"total_tickets"`
	AvailableTickets int             `json:"available_tickets"`
	Status           int             `json:"status"`
	OrganizerID      string          `json:"id_organizer"`
	CreatedAt        string          `json:"created_at,omitempty"`
	UpdatedAt        string          `json:"updated_at,omitempty"`
}

// IsActive reports whether the concert is open for purchase.
func (c *Concert) IsActive() bool {
	return c.Status == ConcertActive
}

// PaymentMethod describes one way to pay for an order.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // "bank", "ewallet" or "qris"
	Number      string `json:"number"`
	AccountName string `json:"account_name"`
	Icon        string `json:"icon,omitempty"`
}
