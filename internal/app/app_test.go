package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/queueless/queueless-go/internal/config"
	"github.com/queueless/queueless-go/internal/gateway"
	"github.com/queueless/queueless-go/internal/models"
	"github.com/queueless/queueless-go/internal/services/auth"
	"github.com/queueless/queueless-go/internal/services/order"
	"github.com/queueless/queueless-go/internal/stub"
)

// newTestApp wires a full app against an in-process stub backend.
func newTestApp(t *testing.T) *App {
	t.Helper()

	server := httptest.NewServer(stub.New().Handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		APIBaseURL:   server.URL + "/api",
		APITimeout:   5 * time.Second,
		CredentialDB: filepath.Join(t.TempDir(), "queueless.db"),
		Environment:  "test",
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func register(t *testing.T, a *App) *models.User {
	t.Helper()
	if err := a.Auth.Register(context.Background(), "Concert Fan", "fan@example.com", "secret123", "0812"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return a.Auth.Session().User
}

func activeConcert(t *testing.T, a *App) *models.Concert {
	t.Helper()
	concerts, err := a.Catalog.Concerts(context.Background())
	if err != nil {
		t.Fatalf("Concerts failed: %v", err)
	}
	for i := range concerts {
		if concerts[i].IsActive() {
			return &concerts[i]
		}
	}
	t.Fatal("No active concert seeded")
	return nil
}

func TestPurchaseFlow(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	user := register(t, a)

	concert := activeConcert(t, a)
	ticketsBefore := concert.AvailableTickets

	ord, err := a.Orders.CreateInquiry(ctx, order.InquiryInput{
		UserID:          user.ID,
		ConcertID:       concert.ID,
		PaymentMethodID: "1",
		Quantity:        2,
		TotalPrice:      concert.Price.Mul(decimal.NewFromInt(2)),
	})
	if err != nil {
		t.Fatalf("CreateInquiry failed: %v", err)
	}
	if ord.Status != models.OrderPending {
		t.Errorf("Expected pending order, got %s", ord.Status)
	}
	if !ord.TotalPrice.Equal(concert.Price.Mul(decimal.NewFromInt(2))) {
		t.Errorf("Unexpected server total %s", ord.TotalPrice)
	}
	if a.Orders.TimeRemaining(ord) <= 0 {
		t.Error("Expected an open reservation window")
	}

	totals := order.ComputeTotals(ord)
	if !totals.Total.Equal(ord.TotalPrice.Add(decimal.NewFromInt(5000))) {
		t.Errorf("Unexpected payable total %s", totals.Total)
	}

	tx, err := a.Orders.SubmitProof(ctx, ord, "proof.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if tx.OrderID != ord.ID {
		t.Errorf("Transaction bound to wrong order: %+v", tx)
	}

	paid, err := a.Orders.FetchPaidOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("FetchPaidOrder failed: %v", err)
	}
	if paid.Status != models.OrderPaid {
		t.Errorf("Expected paid order, got %s", paid.Status)
	}

	history, err := a.Orders.FetchOrdersByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("FetchOrdersByUser failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != ord.ID {
		t.Errorf("Unexpected history: %+v", history)
	}

	// The inquiry decremented availability server-side.
	a.Catalog.Invalidate()
	refreshed, err := a.Catalog.ConcertByID(ctx, concert.ID)
	if err != nil {
		t.Fatalf("ConcertByID failed: %v", err)
	}
	if refreshed.AvailableTickets != ticketsBefore-2 {
		t.Errorf("Expected %d tickets left, got %d", ticketsBefore-2, refreshed.AvailableTickets)
	}
}

func TestSessionRestoredAcrossRestart(t *testing.T) {
	a := newTestApp(t)
	register(t, a)

	// A second app over the same credential store simulates a relaunch.
	restarted, err := New(a.Config)
	if err != nil {
		t.Fatalf("Failed to rebuild app: %v", err)
	}
	defer restarted.Close()

	restarted.Auth.Initialize()

	session := restarted.Auth.Session()
	if session.Status != auth.StatusAuthenticated {
		t.Fatalf("Expected restored session, got %s", session.Status)
	}
	if session.User.Email != "fan@example.com" {
		t.Errorf("Unexpected restored user: %+v", session.User)
	}
}

func TestSessionExpiryChain(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	user := register(t, a)

	var navResets int
	a.SetNavigationReset(func() { navResets++ })

	// Overwrite the stored token with one the backend does not know;
	// the next authenticated call 401s.
	if err := a.Store.Save(user, "revoked-token"); err != nil {
		t.Fatalf("Failed to plant stale token: %v", err)
	}

	_, err := a.Orders.FetchOrdersByUser(ctx, user.ID)
	if !errors.Is(err, gateway.ErrSessionExpired) {
		t.Fatalf("Expected ErrSessionExpired, got %v", err)
	}

	if a.Auth.Session().Status != auth.StatusUnauthenticated {
		t.Error("Expected the session torn down")
	}
	if _, token, _ := a.Store.Load(); token != "" {
		t.Error("Expected stored credentials cleared")
	}

	interrupt := a.Notify.Current()
	if interrupt == nil || interrupt.Dismissible {
		t.Fatalf("Expected the non-dismissible interrupt, got %+v", interrupt)
	}

	a.Notify.Press(0)
	if navResets != 1 {
		t.Errorf("Expected one navigation reset, got %d", navResets)
	}

	// A second 401 after teardown stays silent.
	a.Orders.FetchOrdersByUser(ctx, user.ID)
	if a.Notify.Current() != nil {
		t.Error("Expected no second interrupt for an already-dead session")
	}
}

func TestLogout_ResetsSessionScopedState(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	user := register(t, a)

	concert := activeConcert(t, a)
	if _, err := a.Orders.CreateInquiry(ctx, order.InquiryInput{
		UserID:          user.ID,
		ConcertID:       concert.ID,
		PaymentMethodID: "1",
		Quantity:        1,
		TotalPrice:      concert.Price,
	}); err != nil {
		t.Fatalf("CreateInquiry failed: %v", err)
	}

	a.Logout(ctx)

	if a.Auth.Session().Status != auth.StatusUnauthenticated {
		t.Error("Expected unauthenticated after logout")
	}
	if a.Orders.Current() != nil {
		t.Error("Expected order state dropped")
	}
	if _, token, _ := a.Store.Load(); token != "" {
		t.Error("Expected credentials cleared")
	}
}

func TestApply_DiscardsStaleResults(t *testing.T) {
	a := newTestApp(t)
	register(t, a)

	gen := a.SessionGeneration()

	var applied int
	if !a.Apply(gen, func() { applied++ }) {
		t.Fatal("Expected a same-generation result to apply")
	}

	a.Logout(context.Background())

	if a.Apply(gen, func() { applied++ }) {
		t.Error("Expected a pre-logout result to be discarded")
	}
	if applied != 1 {
		t.Errorf("Expected one application, got %d", applied)
	}
}
