package stub

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/queueless/queueless-go/internal/models"
)

type envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, StatusCode: http.StatusOK})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message, StatusCode: status})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, found := s.usersByEmail[req.Email]
	if !found || acct.password != req.Password {
		return fail(c, http.StatusForbidden, "invalid email or password")
	}

	token := uuid.NewString()
	s.tokens[token] = acct.user.ID
	user := acct.user
	return ok(c, authResponse{Token: token, User: &user})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "name, email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[req.Email]; exists {
		return fail(c, http.StatusConflict, "email already registered")
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.usersByEmail[req.Email] = &account{user: user, password: req.Password}

	token := uuid.NewString()
	s.tokens[token] = user.ID
	return ok(c, authResponse{Token: token, User: &user})
}

func (s *Server) logout(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	if len(header) > len("Bearer ") {
		s.mu.Lock()
		delete(s.tokens, header[len("Bearer "):])
		s.mu.Unlock()
	}
	return ok(c, nil)
}

func (s *Server) listConcerts(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.concerts)
}

func (s *Server) concertByID(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.concerts {
		if s.concerts[i].ID == id {
			return ok(c, s.concerts[i])
		}
	}
	return fail(c, http.StatusNotFound, "concert not found")
}

func (s *Server) listPaymentMethods(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.methods)
}

func (s *Server) paymentMethodByID(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.methods {
		if s.methods[i].ID == id {
			return ok(c, s.methods[i])
		}
	}
	return fail(c, http.StatusNotFound, "payment method not found")
}

type inquiryRequest struct {
	UserID          string          `json:"id_user"`
	PaymentMethodID string          `json:"id_method"`
	ConcertID       string          `json:"id_concert"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

func (s *Server) orderInquiry(c echo.Context) error {
	var req inquiryRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		return fail(c, http.StatusBadRequest, "quantity must be at least one")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var concert *models.Concert
	for i := range s.concerts {
		if s.concerts[i].ID == req.ConcertID {
			concert = &s.concerts[i]
			break
		}
	}
	if concert == nil {
		return fail(c, http.StatusNotFound, "concert not found")
	}
	if concert.Status != models.ConcertActive {
		return fail(c, http.StatusUnprocessableEntity, "concert is not open for purchase")
	}
	if req.Quantity > concert.AvailableTickets {
		return fail(c, http.StatusUnprocessableEntity, "not enough tickets available")
	}

	// The server is authoritative on price regardless of what the
	// client sent.
	total := concert.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))

	ord := &models.Order{
		ID:                 uuid.NewString(),
		UserID:             c.Get("userID").(string),
		ConcertID:          concert.ID,
		PaymentMethodID:    req.PaymentMethodID,
		Quantity:           req.Quantity,
		TotalPrice:         total,
		Status:             models.OrderPending,
		ReservationExpired: time.Now().UTC().Add(ReservationWindow),
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	s.orders[ord.ID] = ord
	concert.AvailableTickets -= req.Quantity

	return ok(c, ord)
}

func (s *Server) ordersByUser(c echo.Context) error {
	userID := c.Param("id_user")

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := []models.Order{}
	for _, ord := range s.orders {
		if ord.UserID == userID {
			orders = append(orders, *s.refreshStatus(ord))
		}
	}
	return ok(c, orders)
}

func (s *Server) orderByID(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, found := s.orders[c.Param("id_order")]
	if !found {
		return fail(c, http.StatusNotFound, "order not found")
	}
	return ok(c, s.refreshStatus(ord))
}

func (s *Server) paidOrderByID(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, found := s.orders[c.Param("id_order")]
	if !found {
		return fail(c, http.StatusNotFound, "order not found")
	}
	if s.refreshStatus(ord).Status != models.OrderPaid {
		return fail(c, http.StatusUnprocessableEntity, "order is not paid")
	}
	return ok(c, ord)
}

func (s *Server) submitTransaction(c echo.Context) error {
	orderID := c.FormValue("id_order")
	userID := c.FormValue("id_user")

	file, err := c.FormFile("proof")
	if err != nil {
		return fail(c, http.StatusBadRequest, "proof attachment is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ord, found := s.orders[orderID]
	if !found {
		return fail(c, http.StatusNotFound, "order not found")
	}
	if s.refreshStatus(ord).Status == models.OrderExpired {
		return fail(c, http.StatusUnprocessableEntity, "order reservation expired")
	}

	tx := models.Transaction{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		ProofURL:  "/uploads/" + file.Filename,
		Status:    models.TransactionPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.transactions[orderID] = append(s.transactions[orderID], tx)

	// The stub verifies instantly so the paid-order flow is usable
	// without an operator.
	tx.Status = models.TransactionVerified
	ord.Status = models.OrderPaid

	return ok(c, tx)
}

// refreshStatus rolls a pending order to expired once its reservation
// window passes. Terminal statuses never change.
func (s *Server) refreshStatus(ord *models.Order) *models.Order {
	if ord.Status == models.OrderPending && time.Now().UTC().After(ord.ReservationExpired) {
		ord.Status = models.OrderExpired
	}
	return ord
}
