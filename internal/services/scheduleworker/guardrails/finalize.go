package guardrails

import (
	"context"

	perr "swearjar/internal/platform/errors"
)

// ErrLeaseLost is returned when an ownership-guarded update affected zero
// rows: another worker reclaimed the session's lease
var ErrLeaseLost = perr.New(perr.ErrorCodeLeaseLost, "schedule worker: lease lost")

// Heartbeat extends a session's lease, guarded by locked_by = workerID.
// ok is false when the lease was already lost; never returns ErrLeaseLost
// itself so callers can distinguish "lost" from a transport error
func (g *SessionGuard) Heartbeat(ctx context.Context, sessionID, workerID string) (bool, error) {
	tag, err := g.deps.PG.Exec(ctx, `
		UPDATE capture_session
		   SET locked_at = now()
		 WHERE id = $1 AND locked_by = $2 AND state = $3
	`, sessionID, workerID, g.states.Processing)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Finish marks a session done and clears its lease, guarded by ownership
func (g *SessionGuard) Finish(ctx context.Context, sessionID, workerID string) error {
	tag, err := g.deps.PG.Exec(ctx, `
		UPDATE capture_session
		   SET state = $3, locked_at = NULL, locked_by = NULL
		 WHERE id = $1 AND locked_by = $2
	`, sessionID, workerID, g.states.Done)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaseLost
	}
	return nil
}

// Fail marks a session failed with the given error text and clears its
// lease, guarded by ownership
func (g *SessionGuard) Fail(ctx context.Context, sessionID, workerID, errText string) error {
	tag, err := g.deps.PG.Exec(ctx, `
		UPDATE capture_session
		   SET state = $4, error = $3, locked_at = NULL, locked_by = NULL
		 WHERE id = $1 AND locked_by = $2
	`, sessionID, workerID, errText, g.states.Failed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaseLost
	}
	return nil
}
