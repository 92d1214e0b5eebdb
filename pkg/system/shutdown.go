package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

type ShutdownHandler func()

// RegisterGracefulShutdownHandler calls handler on the first SIGINT/SIGTERM so in-flight work can drain.
// A second signal exits immediately. The returned stop function unregisters the signals.
func RegisterGracefulShutdownHandler(handler ShutdownHandler) (stop func()) {
	sigChannel := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChannel:
		case <-done:
			return
		}
		log.Info().Msg("Received interrupt signal, finishing in-flight work, press Ctrl+C again to exit immediately")
		handler()

		select {
		case <-sigChannel:
			log.Warn().Msg("Received second interrupt signal, exiting")
			os.Exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChannel)
		close(done)
	}
}

// ContextWithShutdown returns a context that is cancelled on the first interrupt signal.
func ContextWithShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := RegisterGracefulShutdownHandler(ShutdownHandler(cancel))
	return ctx, func() {
		stop()
		cancel()
	}
}
