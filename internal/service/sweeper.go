package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs the expiration reclaimer on a schedule. It is a
// cooperative background job: a failed cycle logs and waits for the
// next tick, never touching foreground traffic.
type Sweeper struct {
	service  *LinkService
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
	logger   *zap.SugaredLogger
}

// NewSweeper creates a Sweeper driving svc every interval.
func NewSweeper(svc *LinkService, interval time.Duration, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		service:  svc,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		logger:   logger.Named("sweeper"),
	}
}

// Start launches the sweep loop. One sweep runs immediately so stale
// codes left over from downtime are reclaimed at boot.
func (w *Sweeper) Start() {
	go w.run()
}

// Stop shuts the loop down and waits for the current cycle to finish.
func (w *Sweeper) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

func (w *Sweeper) run() {
	defer close(w.doneChan)

	w.sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Sweeper) sweep() {
	count, err := w.service.Sweep(context.Background())
	if err != nil {
		w.logger.Errorw("sweep cycle failed", "error", err, "reclaimed", count)
		return
	}
	w.logger.Debugw("sweep cycle complete", "reclaimed", count)
}
