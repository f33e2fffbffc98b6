package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

func MakeSigintChan() chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}

// CancelOnSignal blocks until SIGINT or SIGTERM arrives, then cancels.
// Meant to run as a goroutine next to the main loop.
func CancelOnSignal(cancel context.CancelFunc, logger *logrus.Logger) {
	sig := <-MakeSigintChan()
	logger.Infof("received exit signal: %v", sig)
	cancel()
}
