// Command glauth-sync renders a GLAuth configuration from the users and
// roles held in Elasticsearch.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/99minutos/glauth-sync/cmd/glauth-sync/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Execute(ctx, os.Args[1:]); err != nil {
		cancel()
		app.ExitOnError(err)
	}
}
