// Package order owns the ticket-purchase pipeline: inquiry, payment
// instructions, proof submission and verification tracking. Server
// state always wins; fetched orders replace local state wholesale.
package order

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/queueless/queueless-go/internal/gateway"
	"github.com/queueless/queueless-go/internal/models"
)

// AdminFee is the fixed fee added on top of the ticket subtotal at
// payment time.
var AdminFee = decimal.NewFromInt(5000)

var (
	// ErrOrderExpired means the reservation window has passed. Raised
	// locally; no network call is attempted.
	ErrOrderExpired = errors.New("order reservation expired")

	// ErrInvalidQuantity rejects inquiries for less than one ticket.
	ErrInvalidQuantity = errors.New("quantity must be at least one")
)

// API is the slice of the gateway the manager uses.
type API interface {
	Do(ctx context.Context, req gateway.Request) (*models.Envelope, error)
	Upload(ctx context.Context, endpoint string, fields map[string]string, fileField, fileName string, file io.Reader, requiresAuth bool) (*models.Envelope, error)
}

// InquiryInput is the client-side order request. TotalPrice is the
// client's expectation; the server recomputes and is authoritative.
type InquiryInput struct {
	UserID          string          `json:"id_user"`
	PaymentMethodID string          `json:"id_method"`
	ConcertID       string          `json:"id_concert"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// Totals is the payment-screen money breakdown for an order.
type Totals struct {
	Subtotal decimal.Decimal
	AdminFee decimal.Decimal
	Total    decimal.Decimal
}

// Manager is the order lifecycle state holder.
type Manager struct {
	api API
	now func() time.Time

	mu      sync.Mutex
	current *models.Order
	orders  []models.Order
	lastErr string
}

// NewManager creates an order manager with no current order.
func NewManager(api API) *Manager {
	return &Manager{api: api, now: time.Now}
}

// Current returns a copy of the current order, or nil when none is
// held.
func (m *Manager) Current() *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	ord := *m.current
	return &ord
}

// Orders returns a copy of the last fetched order history.
func (m *Manager) Orders() []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// LastError returns the message of the most recent failed operation.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Reset drops all held order state. Called on logout.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.orders = nil
	m.lastErr = ""
}

// CreateInquiry submits a new order inquiry. On success the returned
// order, including the server-assigned id and reservation deadline,
// becomes the current order. On failure no current order is held.
// Concurrent calls are not coalesced; the caller is responsible for
// preventing duplicate submission.
func (m *Manager) CreateInquiry(ctx context.Context, input InquiryInput) (*models.Order, error) {
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	env, err := m.api.Do(ctx, gateway.Request{
		Method:       http.MethodPost,
		Endpoint:     gateway.EndpointOrderInquiry,
		Body:         input,
		RequiresAuth: true,
	})
	if err != nil {
		m.failInquiry(err)
		return nil, err
	}

	var ord models.Order
	if err := env.Decode(&ord); err != nil {
		m.failInquiry(err)
		return nil, err
	}

	m.mu.Lock()
	m.current = &ord
	m.lastErr = ""
	m.mu.Unlock()

	out := ord
	return &out, nil
}

// FetchOrdersByUser replaces the order history wholesale with the
// server response. No merging; last write wins.
func (m *Manager) FetchOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	env, err := m.api.Do(ctx, gateway.Request{
		Method:       http.MethodGet,
		Endpoint:     gateway.EndpointOrdersByUser + userID,
		RequiresAuth: true,
	})
	if err != nil {
		m.fail(err)
		return nil, err
	}

	var orders []models.Order
	if err := env.Decode(&orders); err != nil {
		m.fail(err)
		return nil, err
	}

	m.mu.Lock()
	m.orders = orders
	m.lastErr = ""
	m.mu.Unlock()

	out := make([]models.Order, len(orders))
	copy(out, orders)
	return out, nil
}

// FetchOrderByID replaces the current order with the server's view,
// terminal status included. Verification progress is observed through
// repeated calls here; the manager never polls on its own.
func (m *Manager) FetchOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	return m.fetchCurrent(ctx, gateway.EndpointOrderByID+orderID)
}

// FetchPaidOrder fetches the paid projection of an order (the one the
// QR ticket screen renders).
func (m *Manager) FetchPaidOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return m.fetchCurrent(ctx, gateway.EndpointPaidOrderByID+orderID)
}

func (m *Manager) fetchCurrent(ctx context.Context, endpoint string) (*models.Order, error) {
	env, err := m.api.Do(ctx, gateway.Request{
		Method:       http.MethodGet,
		Endpoint:     endpoint,
		RequiresAuth: true,
	})
	if err != nil {
		m.fail(err)
		return nil, err
	}

	var ord models.Order
	if err := env.Decode(&ord); err != nil {
		m.fail(err)
		return nil, err
	}

	m.mu.Lock()
	m.current = &ord
	m.lastErr = ""
	m.mu.Unlock()

	out := ord
	return &out, nil
}

// SubmitProof uploads a proof-of-payment attachment for the order. The
// reservation window is checked first; past the deadline the call
// fails locally without touching the network. A rejected proof may be
// resubmitted the same way while the window is open.
func (m *Manager) SubmitProof(ctx context.Context, ord *models.Order, fileName string, proof io.Reader) (*models.Transaction, error) {
	if m.IsExpired(ord) {
		return nil, ErrOrderExpired
	}

	env, err := m.api.Upload(ctx, gateway.EndpointTransactionPayment,
		map[string]string{
			"id_order": ord.ID,
			"id_user":  ord.UserID,
		},
		"proof", fileName, proof, true,
	)
	if err != nil {
		m.fail(err)
		return nil, err
	}

	var tx models.Transaction
	if err := env.Decode(&tx); err != nil {
		m.fail(err)
		return nil, err
	}
	if tx.Status == "" {
		tx.Status = models.TransactionPending
	}

	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
	return &tx, nil
}

// IsExpired reports whether the order's reservation window has passed.
func (m *Manager) IsExpired(ord *models.Order) bool {
	if ord == nil || ord.ReservationExpired.IsZero() {
		return false
	}
	return m.now().After(ord.ReservationExpired)
}

// TimeRemaining returns the time left in the reservation window,
// truncated to whole seconds for display, and never negative.
func (m *Manager) TimeRemaining(ord *models.Order) time.Duration {
	if ord == nil || ord.ReservationExpired.IsZero() {
		return 0
	}
	remaining := ord.ReservationExpired.Sub(m.now()).Truncate(time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ComputeTotals breaks an order's money down the way the payment
// screen displays it: the server-authoritative subtotal plus the fixed
// admin fee.
func ComputeTotals(ord *models.Order) Totals {
	return Totals{
		Subtotal: ord.TotalPrice,
		AdminFee: AdminFee,
		Total:    ord.TotalPrice.Add(AdminFee),
	}
}

// failInquiry records the error and drops any current order: a failed
// inquiry must never leave a stale reservation on screen.
func (m *Manager) failInquiry(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.current = nil
	m.mu.Unlock()
}

// fail records the error and leaves held state alone; a failed refresh
// does not discard the last known server view.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}
