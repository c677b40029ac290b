// Package guardrails implements session lease claim, heartbeat, and
// ownership-guarded finalization for the schedule ingest worker
package guardrails

import (
	"fmt"
	"os"
	"time"

	"swearjar/internal/modkit"
	"swearjar/internal/services/scheduleworker/domain"
)

// ResolveWorkerID returns a stable per-process identity for the locked_by
// column. An explicit WORKER_ID wins; otherwise falls back to
// hostname:pid so restarts still leave a recognizable owner in logs
func ResolveWorkerID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "scheduleworker"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

func toInterval(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d/time.Second))
}

// SessionGuard implements domain.SessionRepo against modkit.Deps.PG
type SessionGuard struct {
	deps   modkit.Deps
	states domain.StateNames
}

// NewSessionGuard constructs a SessionGuard. Zero-valued fields in states
// fall back to domain's default state names ("pending"/"processing"/
// "done"/"failed")
func NewSessionGuard(deps modkit.Deps, states domain.StateNames) *SessionGuard {
	return &SessionGuard{deps: deps, states: states.Defaulted()}
}
