package guardrails

import (
	"context"
	"sync"
	"time"

	"swearjar/internal/platform/logger"
)

// StartHeartbeat runs a periodic lease-extension loop for sessionID,
// independent of the caller's own blocking work (OCR, canonicalization),
// so CPU-bound processing never starves the lease. It returns a stop
// function and a channel that fires exactly once if the lease is lost
func (g *SessionGuard) StartHeartbeat(ctx context.Context, sessionID, workerID string, interval time.Duration) (stop func(), lost <-chan struct{}) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	lostCh := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		log := logger.Named("scheduleworker-heartbeat")
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-t.C:
				ok, err := g.Heartbeat(ctx, sessionID, workerID)
				if err != nil {
					logger.LogErr(log.Warn(), err, "lifecycle").Str("session_id", sessionID).Str("correlation_id", sessionID).Msg("heartbeat failed, retrying next tick")
					continue
				}
				if !ok {
					select {
					case lostCh <- struct{}{}:
					default:
					}
					return
				}
			}
		}
	}()

	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }
	return stop, lostCh
}
