package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/princekumarofficial/album-notify/internal/types"
	"github.com/princekumarofficial/album-notify/internal/types/users"
)

// ErrInvalidEvent is returned by Ingest for events missing an actor, an album
// or a known media kind.
var ErrInvalidEvent = errors.New("invalid media event")

// Directory resolves an actor to the identity shown in messages.
type Directory interface {
	ResolveIdentity(ctx context.Context, userID string) (users.Identity, error)
}

// Sink persists one notification record.
type Sink interface {
	CreateNotification(ctx context.Context, n types.Notification) (string, error)
}

// Config holds the engine settings. Zero values fall back to defaults.
type Config struct {
	// Window is the debounce window W.
	Window        time.Duration
	SweepInterval time.Duration
	Clock         clock.Clock
	Logger        *slog.Logger
	Metrics       *Collector
}

const (
	DefaultWindow        = 15 * time.Second
	DefaultSweepInterval = time.Second
)

// Engine batches media events and flushes them to the notification sink.
type Engine struct {
	ledger    *Ledger
	directory Directory
	sink      Sink

	clock         clock.Clock
	window        time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
	metrics       *Collector
}

func NewEngine(ledger *Ledger, directory Directory, sink Sink, cfg Config) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetricsCollector()
	}

	return &Engine{
		ledger:        ledger,
		directory:     directory,
		sink:          sink,
		clock:         cfg.Clock,
		window:        cfg.Window,
		sweepInterval: cfg.SweepInterval,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}
}

// Ingest records one stored media item and pushes its batch deadline to now+W.
// It never blocks on I/O.
func (e *Engine) Ingest(ev MediaEvent) error {
	if ev.ActorID == "" || ev.AlbumID == "" || !ev.Kind.Valid() {
		return fmt.Errorf("%w: actor=%q album=%q kind=%q", ErrInvalidEvent, ev.ActorID, ev.AlbumID, ev.Kind)
	}

	created := e.ledger.Record(ev, e.clock.Now(), e.window)
	e.metrics.eventsIngested.WithLabelValues(string(ev.Kind)).Inc()
	if created {
		e.logger.Debug("Started notification batch",
			slog.String("actor_id", ev.ActorID),
			slog.String("album_id", ev.AlbumID))
	}
	e.updatePending()

	return nil
}

// FlushExpired flushes every batch whose deadline has passed and returns how
// many batches were taken from the ledger. Flushes run to completion even if
// ctx is cancelled while they are in flight.
func (e *Engine) FlushExpired(ctx context.Context) int {
	due, stale := e.ledger.TakeExpired(e.clock.Now())
	if stale > 0 {
		e.metrics.staleDeadlines.Add(float64(stale))
	}
	e.updatePending()

	ctx = context.WithoutCancel(ctx)
	for _, b := range due {
		e.flush(ctx, b)
	}

	return len(due)
}

// FlushAll flushes every pending batch immediately.
func (e *Engine) FlushAll(ctx context.Context) int {
	due := e.ledger.TakeAll()
	e.updatePending()

	ctx = context.WithoutCancel(ctx)
	for _, b := range due {
		e.flush(ctx, b)
	}

	return len(due)
}

// DiscardActor drops the pending batches started by actorID without flushing them.
func (e *Engine) DiscardActor(actorID string) int {
	n := e.ledger.DiscardActor(actorID)
	e.recordDiscarded(n)
	return n
}

// DiscardAll drops every pending batch without flushing it.
func (e *Engine) DiscardAll() int {
	n := len(e.ledger.TakeAll())
	e.recordDiscarded(n)
	return n
}

// Run sweeps the ledger every sweep interval until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Notification sweeper started",
		"window", e.window.String(),
		"interval", e.sweepInterval.String())

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Notification sweeper shutting down")
			return
		case <-e.clock.After(e.sweepInterval):
			e.FlushExpired(ctx)
		}
	}
}

// Ledger returns the ledger the engine accumulates into.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

func (e *Engine) flush(ctx context.Context, b PendingBatch) {
	logger := e.logger.With(
		slog.String("actor_id", b.ActorID),
		slog.String("album_id", b.AlbumID))

	actor, err := e.directory.ResolveIdentity(ctx, b.ActorID)
	if err != nil {
		e.metrics.batchesDropped.WithLabelValues(dropLookupFailed).Inc()
		logger.Warn("Dropping notification batch, actor lookup failed",
			slog.Uint64("media_count", uint64(b.Total())),
			slog.String("error", err.Error()))
		return
	}

	kind, title, message := Compose(b, actor.Name())

	created := 0
	for _, recipient := range b.Recipients {
		if recipient == "" || recipient == b.ActorID {
			continue
		}

		_, err := e.sink.CreateNotification(ctx, types.Notification{
			Type:       kind,
			Title:      title,
			Message:    message,
			FromUserID: b.ActorID,
			ToUserID:   recipient,
			AlbumID:    b.AlbumID,
		})
		if err != nil {
			e.metrics.recipientFailures.Inc()
			logger.Error("Failed to create notification",
				slog.String("recipient_id", recipient),
				slog.String("error", err.Error()))
			continue
		}
		created++
	}

	e.metrics.batchesFlushed.Inc()
	e.metrics.notificationsCreated.Add(float64(created))
	logger.Info("Flushed notification batch",
		"photos", b.PhotoCount,
		"videos", b.VideoCount,
		"recipients", created,
		"window_ms", b.LastEventAt.Sub(b.FirstEventAt).Milliseconds())
}

func (e *Engine) recordDiscarded(n int) {
	if n == 0 {
		return
	}
	e.metrics.batchesDropped.WithLabelValues(dropDiscarded).Add(float64(n))
	e.updatePending()
	e.logger.Info("Discarded pending notification batches", "count", n)
}

func (e *Engine) updatePending() {
	batches, _ := e.ledger.Len()
	e.metrics.pendingBatches.Set(float64(batches))
}
