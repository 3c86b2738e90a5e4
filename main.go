package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/habedi/meterctl/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	configureLogLevelFromEnv()

	// The first interrupt cancels in-flight requests; a second one kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}

// configureLogLevelFromEnv enables debug logging when METERCTL_DEBUG parses as
// true. Otherwise only warnings and errors are shown.
func configureLogLevelFromEnv() {
	if debug, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("METERCTL_DEBUG"))); err == nil && debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}
