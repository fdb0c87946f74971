package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/queueless/queueless-go/internal/app"
	"github.com/queueless/queueless-go/internal/notify"
	"github.com/queueless/queueless-go/internal/services/order"
)

var errNotLoggedIn = errors.New("you are not logged in")

type cli struct {
	app      *app.App
	quantity int
	method   string
	proof    string
	phone    string
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.login(ctx, args)
	case "register":
		return c.register(ctx, args)
	case "logout":
		c.logout(ctx)
		return nil
	case "whoami":
		return c.whoami()
	case "concerts":
		return c.concerts(ctx)
	case "concert":
		return c.concert(ctx, args)
	case "methods":
		return c.methods(ctx)
	case "order":
		return c.order(ctx, args)
	case "orders":
		return c.orders(ctx)
	case "pay":
		return c.pay(ctx, args)
	case "ticket":
		return c.ticket(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: queueless login <email> [password]")
	}
	email := args[0]
	password := ""
	if len(args) > 1 {
		password = args[1]
	} else {
		password = promptLine("Password: ")
	}

	if err := c.app.Auth.Login(ctx, email, password); err != nil {
		return err
	}

	user := c.app.Auth.Session().User
	c.app.Notify.Show(notify.KindSuccess, "Welcome back", fmt.Sprintf("Logged in as %s", user.Name))
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: queueless register <name> <email> [--phone <number>]")
	}
	password := promptLine("Choose a password: ")

	if err := c.app.Auth.Register(ctx, args[0], args[1], password, c.phone); err != nil {
		return err
	}

	c.app.Notify.Show(notify.KindSuccess, "Account created", fmt.Sprintf("Welcome, %s", args[0]))
	return nil
}

func (c *cli) logout(ctx context.Context) {
	c.app.Notify.ShowConfirm(
		"Logout",
		"Are you sure you want to logout?",
		func() {
			c.app.Logout(ctx)
			fmt.Println("Logged out.")
		},
		nil,
		notify.StyleDestructive,
	)
}

func (c *cli) whoami() error {
	session := c.app.Auth.Session()
	if !session.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s> (member since %s)\n", session.User.Name, session.User.Email, session.User.CreatedAt)
	return nil
}

func (c *cli) concerts(ctx context.Context) error {
	concerts, err := c.app.Catalog.Concerts(ctx)
	if err != nil {
		return err
	}

	for _, concert := range concerts {
		state := "on sale"
		if !concert.IsActive() {
			state = "closed"
		}
		fmt.Printf("%s  %-28s %-20s %s  %s  (%d left, %s)\n",
			concert.ID, concert.Title, concert.Artist, concert.Date,
			formatPrice(concert.Price), concert.AvailableTickets, state)
	}
	return nil
}

func (c *cli) concert(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: queueless concert <id>")
	}
	concert, err := c.app.Catalog.ConcertByID(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s — %s\n%s, %s\n%s each, %d of %d tickets left\n\n%s\n",
		concert.Title, concert.Artist, concert.Venue, concert.Date,
		formatPrice(concert.Price), concert.AvailableTickets, concert.TotalTickets,
		concert.Description)
	return nil
}

func (c *cli) methods(ctx context.Context) error {
	methods, err := c.app.Catalog.PaymentMethods(ctx)
	if err != nil {
		return err
	}
	for _, m := range methods {
		fmt.Printf("%s  %-24s %-8s %s (%s)\n", m.ID, m.Name, m.Type, m.Number, m.AccountName)
	}
	return nil
}

func (c *cli) order(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: queueless order <concert-id> [-q n] [-m method-id]")
	}
	session := c.app.Auth.Session()
	if !session.Authenticated() {
		return errNotLoggedIn
	}

	concert, err := c.app.Catalog.ConcertByID(ctx, args[0])
	if err != nil {
		return err
	}

	total := concert.Price.Mul(decimal.NewFromInt(int64(c.quantity)))
	ord, err := c.app.Orders.CreateInquiry(ctx, order.InquiryInput{
		UserID:          session.User.ID,
		ConcertID:       concert.ID,
		PaymentMethodID: c.method,
		Quantity:        c.quantity,
		TotalPrice:      total,
	})
	if err != nil {
		return err
	}

	totals := order.ComputeTotals(ord)
	fmt.Printf("Order %s created.\n", ord.ID)
	fmt.Printf("  %d × %s  = %s\n", ord.Quantity, concert.Title, formatPrice(totals.Subtotal))
	fmt.Printf("  Admin fee  = %s\n", formatPrice(totals.AdminFee))
	fmt.Printf("  Total      = %s\n", formatPrice(totals.Total))
	fmt.Printf("Pay within %s (reservation expires %s).\n",
		c.app.Orders.TimeRemaining(ord), ord.ReservationExpired.Local().Format("15:04:05"))
	return nil
}

func (c *cli) orders(ctx context.Context) error {
	session := c.app.Auth.Session()
	if !session.Authenticated() {
		return errNotLoggedIn
	}

	orders, err := c.app.Orders.FetchOrdersByUser(ctx, session.User.ID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return nil
	}
	for _, ord := range orders {
		fmt.Printf("%s  concert=%s  qty=%d  %s  [%s]\n",
			ord.ID, ord.ConcertID, ord.Quantity, formatPrice(ord.TotalPrice), ord.Status)
	}
	return nil
}

func (c *cli) pay(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: queueless pay <order-id> --proof <file>")
	}
	if c.proof == "" {
		return errors.New("--proof is required")
	}

	ord, err := c.app.Orders.FetchOrderByID(ctx, args[0])
	if err != nil {
		return err
	}

	file, err := os.Open(c.proof)
	if err != nil {
		return fmt.Errorf("failed to open proof file: %w", err)
	}
	defer file.Close()

	tx, err := c.app.Orders.SubmitProof(ctx, ord, filepath.Base(c.proof), file)
	if err != nil {
		return err
	}

	c.app.Notify.Show(notify.KindSuccess, "Proof Submitted",
		fmt.Sprintf("Transaction %s is %s. Check 'queueless ticket %s' once verified.", tx.ID, tx.Status, ord.ID))
	return nil
}

func (c *cli) ticket(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: queueless ticket <order-id>")
	}

	ord, err := c.app.Orders.FetchPaidOrder(ctx, args[0])
	if err != nil {
		return err
	}

	// The mobile app renders this payload as a QR code at the venue
	// gate; the CLI just prints it.
	fmt.Printf("Ticket for order %s (%d seat(s))\n", ord.ID, ord.Quantity)
	fmt.Printf("QR payload: queueless://ticket/%s\n", ord.ID)
	return nil
}

func formatPrice(p decimal.Decimal) string {
	return "Rp" + p.StringFixed(0)
}

func promptLine(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
