package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher periodically re-derives application statuses so long-running
// processes converge without a reload.
type Refresher struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewRefresher(store *Store, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{store: store, interval: interval, logger: logger, stop: make(chan struct{})}
}

// Start launches the refresh goroutine.
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stop:
				r.logger.Info("status refresher stopping")
				return
			case <-ctx.Done():
				r.logger.Info("context canceled, status refresher exiting")
				return
			case <-ticker.C:
				r.store.RefreshStatuses(ctx)
			}
		}
	}()
}

// Stop signals the goroutine to stop and waits for it.
func (r *Refresher) Stop() {
	close(r.stop)
	r.wg.Wait()
}
