// Package cli implements the dendrite command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeroenvanmaanen/dendrite/cli/internal/clifactory"
	"github.com/jeroenvanmaanen/dendrite/client"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
)

// DefaultConnectTimeout is the default timeout for connecting to the server.
const DefaultConnectTimeout = 3 * time.Second

// Main is the entrypoint for the CLI. Call Main from an actual main function.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	app := New(
		clifactory.Context(ctx),
		clifactory.ConnectTimeout(DefaultConnectTimeout),
		clifactory.Logger(log),
	)

	if err := app.Run(); err != nil {
		if errors.Is(err, client.ErrServerUnavailable) {
			addr := app.Factory().Address
			if strings.HasPrefix(addr, ":") {
				addr = fmt.Sprintf("localhost%s", addr)
			}
			fmt.Fprintln(os.Stderr, aurora.Red(fmt.Sprintf("Unable to connect to the server at %s. Is \"dendrite serve\" running?", addr)))
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, aurora.Red(err))
		os.Exit(1)
	}
}
