// Package stub is an in-memory stand-in for the QueueLess backend.
// It serves the REST surface the client consumes, for local
// development and for exercising the gateway in tests. State lives in
// memory and resets with the process.
package stub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/queueless/queueless-go/internal/models"
)

// ReservationWindow is how long an inquiry holds its tickets.
const ReservationWindow = 15 * time.Minute

// Server holds the stub's in-memory state.
type Server struct {
	mu           sync.Mutex
	usersByEmail map[string]*account
	tokens       map[string]string // token -> user id
	concerts     []models.Concert
	methods      []models.PaymentMethod
	orders       map[string]*models.Order
	transactions map[string][]models.Transaction // order id -> submissions
}

type account struct {
	user     models.User
	password string
}

// New creates a stub server with seeded catalog data.
func New() *Server {
	return &Server{
		usersByEmail: map[string]*account{},
		tokens:       map[string]string{},
		concerts:     seedConcerts(),
		methods:      seedPaymentMethods(),
		orders:       map[string]*models.Order{},
		transactions: map[string][]models.Transaction{},
	}
}

// Handler returns the echo handler serving the backend surface under
// the /api prefix.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	api := e.Group("/api")
	api.POST("/user/login", s.login)
	api.POST("/user/register", s.register)
	api.POST("/user/logout", s.logout)

	authed := api.Group("", s.requireAuth)
	authed.GET("/concert", s.listConcerts)
	authed.GET("/concert/:id", s.concertByID)
	authed.GET("/payment-method", s.listPaymentMethods)
	authed.GET("/payment-method/:id", s.paymentMethodByID)
	authed.POST("/order/inquiry", s.orderInquiry)
	authed.GET("/order/:id_user", s.ordersByUser)
	authed.GET("/order/detail/:id_order", s.orderByID)
	authed.GET("/order/paid/:id_order", s.paidOrderByID)
	authed.POST("/transaction/payment", s.submitTransaction)

	return e
}

// requireAuth resolves the bearer token. Unknown or missing tokens get
// the same 401 the real backend sends; that status is the client's
// universal session-expiry signal.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fail(c, http.StatusUnauthorized, "missing bearer token")
		}

		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			return fail(c, http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("userID", userID)
		return next(c)
	}
}

func seedConcerts() []models.Concert {
	return []models.Concert{
		{
			ID:               uuid.NewString(),
			Title:            "Midnight Frequencies",
			Artist:           "The Static Choir",
			Venue:            "Gelora Arena",
			Date:             "2026-10-03T19:30:00Z",
			Price:            decimal.NewFromInt(100000),
			Description:      "One night only, full synth lineup.",
			TotalTickets:     500,
			AvailableTickets: 420,
			Status:           models.ConcertActive,
			OrganizerID:      uuid.NewString(),
		},
		{
			ID:               uuid.NewString(),
			Title:            "Acoustic Sessions Vol. 4",
			Artist:           "Lena Harwood",
			Venue:            "Riverside Hall",
			Date:             "2026-11-14T20:00:00Z",
			Price:            decimal.NewFromInt(250000),
			Description:      "Stripped-down set, limited seating.",
			TotalTickets:     120,
			AvailableTickets: 37,
			Status:           models.ConcertActive,
			OrganizerID:      uuid.NewString(),
		},
		{
			ID:               uuid.NewString(),
			Title:            "Farewell Tour (Cancelled)",
			Artist:           "Glass Harbor",
			Venue:            "Stadium East",
			Date:             "2026-09-01T18:00:00Z",
			Price:            decimal.NewFromInt(175000),
			Description:      "Postponed indefinitely.",
			TotalTickets:     2000,
			AvailableTickets: 0,
			Status:           models.ConcertInactive,
			OrganizerID:      uuid.NewString(),
		},
	}
}

func seedPaymentMethods() []models.PaymentMethod {
	return []models.PaymentMethod{
		{ID: "1", Name: "BCA Virtual Account", Type: "bank", Number: "8800123456", AccountName: "PT QueueLess"},
		{ID: "2", Name: "GoPay", Type: "ewallet", Number: "081234567890", AccountName: "QueueLess"},
		{ID: "3", Name: "QRIS", Type: "qris", Number: "-", AccountName: "QueueLess"},
	}
}
