// QueueLess client CLI.
// A thin front-end over the client core: it issues intents (login,
// browse, order, pay) and renders state snapshots and notifications.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/queueless/queueless-go/internal/app"
	"github.com/queueless/queueless-go/internal/config"
)

func main() {
	apiURL := pflag.String("api-url", "", "override the backend base URL")
	timeout := pflag.Duration("timeout", 0, "per-request timeout")
	quantity := pflag.IntP("quantity", "q", 1, "ticket quantity for 'order'")
	method := pflag.StringP("method", "m", "1", "payment method id for 'order'")
	proof := pflag.String("proof", "", "path to the payment proof image for 'pay'")
	phone := pflag.String("phone", "", "phone number for 'register'")
	pflag.Usage = usage
	pflag.Parse()

	cfg := config.Load()
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if *timeout > 0 {
		cfg.APITimeout = *timeout
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	a.SetNavigationReset(func() {
		fmt.Println("You have been signed out. Run 'queueless login <email>' to continue.")
	})
	a.Notify.SetRenderer(newRenderer(a))

	a.Auth.Initialize()

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cli := &cli{app: a, quantity: *quantity, method: *method, proof: *proof, phone: *phone}

	if err := cli.run(ctx, args[0], args[1:]); err != nil {
		a.Notify.ShowError(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `QueueLess — concert tickets without the queue

Usage:
  queueless [flags] <command> [args]

Commands:
  login <email> [password]        Sign in
  register <name> <email>         Create an account and sign in
  logout                          Sign out
  whoami                          Show the current session
  concerts                        List concerts
  concert <id>                    Show one concert
  methods                         List payment methods
  order <concert-id>              Create an order inquiry (-q, -m)
  orders                          Show your order history
  pay <order-id> --proof <file>   Submit payment proof
  ticket <order-id>               Show the ticket for a paid order

Flags:
`)
	pflag.PrintDefaults()
}
