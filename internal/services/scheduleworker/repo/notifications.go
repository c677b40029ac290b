package repo

import (
	"context"

	"swearjar/internal/core/notify"
)

// AlreadyNotified reports which of the given event ids are already
// referenced by a stored notification's event_ids array
func (s *ScheduleStore) AlreadyNotified(ctx context.Context, eventIDs []string) (map[string]struct{}, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT elem
		  FROM schedule_notification, jsonb_array_elements_text(event_ids) AS elem
		 WHERE elem = ANY($1)
	`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// InsertNotifications persists generated notifications idempotently,
// conflict-ignored on notification_id. Callers reach this through WithTx,
// so these inserts land in the same transaction as the events and
// snapshot they notify about
func (s *ScheduleStore) InsertNotifications(ctx context.Context, notifications []notify.Notification) error {
	for _, n := range notifications {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO schedule_notification
				(notification_id, user_id, schedule_date, source_session_id, status, notification_type, message, event_ids, created_at)
			VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, now())
			ON CONFLICT (notification_id) DO NOTHING
		`, n.NotificationID, n.UserID, n.ScheduleDate, n.SourceSession, string(n.Type), n.Message, n.EventIDs); err != nil {
			return err
		}
	}
	return nil
}
