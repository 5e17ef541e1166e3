package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"empdesk/internal/domain"
	"empdesk/internal/events"

	"github.com/rs/zerolog"
)

// Pinger is the reachability probe. Any response from the backend counts
// as online; only transport-level failure counts as offline.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher probes the backend on an interval, tracks the online flag and
// triggers a queue drain on every offline-to-online transition. A slower
// periodic drain runs as a safety net while online.
type Watcher struct {
	pinger        Pinger
	drainer       domain.Drainer
	bus           domain.EventPublisher
	logger        *zerolog.Logger
	probeInterval time.Duration
	drainInterval time.Duration
	online        atomic.Bool
}

func NewWatcher(pinger Pinger, drainer domain.Drainer, bus domain.EventPublisher, probeInterval, drainInterval time.Duration, logger *zerolog.Logger) *Watcher {
	if probeInterval <= 0 {
		probeInterval = 30 * time.Second
	}
	if drainInterval <= 0 {
		drainInterval = 5 * time.Minute
	}
	return &Watcher{
		pinger:        pinger,
		drainer:       drainer,
		bus:           bus,
		logger:        logger,
		probeInterval: probeInterval,
		drainInterval: drainInterval,
	}
}

// Online reports the last observed connectivity state.
func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Start runs the probe and periodic-drain loops until ctx is done. It
// probes once synchronously so callers see a settled state on return.
func (w *Watcher) Start(ctx context.Context) {
	w.probe(ctx)

	go w.probeLoop(ctx)
	go w.drainLoop(ctx)
}

func (w *Watcher) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(w.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *Watcher) drainLoop(ctx context.Context) {
	ticker := time.NewTicker(w.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.online.Load() {
				continue
			}
			if err := w.drainer.Drain(ctx); err != nil {
				w.logger.Warn().Err(err).Msg("Periodic drain failed")
			}
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.probeInterval)
	err := w.pinger.Ping(probeCtx)
	cancel()

	nowOnline := err == nil
	wasOnline := w.online.Swap(nowOnline)
	if nowOnline == wasOnline {
		return
	}

	if nowOnline {
		w.logger.Info().Msg("Backend reachable, connectivity restored")
		w.publish(events.EventOnline)
		if err := w.drainer.Drain(ctx); err != nil {
			w.logger.Warn().Err(err).Msg("Drain after reconnect failed")
		}
		return
	}

	w.logger.Warn().Err(err).Msg("Backend unreachable, entering offline mode")
	w.publish(events.EventOffline)
}

func (w *Watcher) publish(eventType string) {
	if w.bus == nil {
		return
	}
	_ = w.bus.PublishJSON(eventType, map[string]any{"at": time.Now()})
}
