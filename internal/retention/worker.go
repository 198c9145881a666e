// Package retention purges notifications that were read long ago.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"
)

// Purger deletes read notifications created before cutoff and returns the
// recipient of each deleted record
type Purger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

type Worker struct {
	store    Purger
	readTTL  time.Duration
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

func NewWorker(store Purger, readTTL, interval time.Duration, clk clock.Clock, logger *slog.Logger) *Worker {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:    store,
		readTTL:  readTTL,
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

// Start purges once immediately and then every interval until ctx is done
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Retention worker started",
		slog.String("interval", w.interval.String()),
		slog.String("read_ttl", w.readTTL.String()))

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Retention worker shutting down")
			return
		case <-w.clock.After(w.interval):
			w.RunOnce(ctx)
		}
	}
}

// RunOnce deletes read notifications older than the read TTL
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	start := w.clock.Now()
	cutoff := start.Add(-w.readTTL)

	recipients, err := w.store.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error("Failed to purge read notifications",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return 0, err
	}

	count := int64(len(recipients))
	w.logger.Info("Purged read notifications",
		slog.Int64("deleted", count),
		slog.Time("cutoff", cutoff),
		slog.Int64("duration_ms", w.clock.Now().Sub(start).Milliseconds()))
	return count, nil
}
