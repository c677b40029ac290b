package guardrails

import (
	"context"
	"strings"
	"time"

	"swearjar/internal/services/scheduleworker/domain"
)

// ClaimNext finalizes the first idle-timed-out pending session, or reclaims
// the first stale-leased processing session, preferring pending ahead of
// stale processing, secondary order by created_at. No eligible row
// observes ok=false, never an error; any other scan failure (connection
// reset, malformed query, canceled context) is returned as an error
func (g *SessionGuard) ClaimNext(ctx context.Context, workerID string, idleTimeout, leaseTimeout time.Duration) (domain.Session, []domain.Image, bool, error) {
	row := g.deps.PG.QueryRow(ctx, `
		WITH candidate AS (
			SELECT s.id
			  FROM capture_session s
			 WHERE (
			         s.state = $4
			     AND EXISTS (SELECT 1 FROM capture_image i WHERE i.session_id = s.id)
			     AND now() - (
			           SELECT max(i2.created_at) FROM capture_image i2 WHERE i2.session_id = s.id
			         ) >= $1::interval
			   ) OR (
			         s.state = $5
			     AND s.locked_at IS NOT NULL
			     AND now() - s.locked_at >= $2::interval
			   )
			 ORDER BY (s.state = $4) DESC, s.created_at ASC
			 LIMIT 1
			 FOR UPDATE SKIP LOCKED
		)
		UPDATE capture_session s
		   SET state = $5, locked_at = now(), locked_by = $3
		  FROM candidate
		 WHERE s.id = candidate.id
		RETURNING s.id, s.user_id, s.state, s.created_at, s.error, s.locked_at, s.locked_by
	`, toInterval(idleTimeout), toInterval(leaseTimeout), workerID, g.states.Pending, g.states.Processing)

	var sess domain.Session
	var errText *string
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.State, &sess.CreatedAt, &errText, &sess.LockedAt, &sess.LockedBy); err != nil {
		if isNoRows(err) {
			return domain.Session{}, nil, false, nil
		}
		return domain.Session{}, nil, false, err
	}
	if errText != nil {
		sess.Error = *errText
	}

	rows, err := g.deps.PG.Query(ctx, `
		SELECT id, session_id, sequence, r2_key, telegram_message_id, created_at
		  FROM capture_image
		 WHERE session_id = $1
		 ORDER BY sequence ASC
	`, sess.ID)
	if err != nil {
		return domain.Session{}, nil, false, err
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		img.SessionID = sess.ID
		if err := rows.Scan(&img.ID, &img.SessionID, &img.Sequence, &img.R2Key, &img.TelegramMessageID, &img.CreatedAt); err != nil {
			return domain.Session{}, nil, false, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, nil, false, err
	}

	return sess, images, true, nil
}

func isNoRows(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no rows")
}
