// QueueLess stub backend.
// Serves the REST surface the client consumes, with in-memory state.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/queueless/queueless-go/internal/stub"
)

func main() {
	port := pflag.StringP("port", "p", "8000", "port to listen on")
	pflag.Parse()

	_ = godotenv.Load()

	server := stub.New()
	e := server.Handler()

	log.Printf("queueless stub backend listening on :%s", *port)
	if err := e.Start(":" + *port); err != nil {
		log.Fatal(err)
	}
}
