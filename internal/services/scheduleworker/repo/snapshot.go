package repo

import (
	"context"

	"swearjar/internal/core/canon"
)

// LoadSnapshot returns the day snapshot baseline for a user-day, or
// ok=false when no observation has ever been stored for that day
func (s *ScheduleStore) LoadSnapshot(ctx context.Context, userID, scheduleDate string) ([]canon.Shift, bool, error) {
	row := s.q.QueryRow(ctx, `
		SELECT snapshot_payload
		  FROM day_snapshot
		 WHERE user_id = $1 AND schedule_date = $2
	`, userID, scheduleDate)

	var shifts []canon.Shift
	if err := row.Scan(&shifts); err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return shifts, true, nil
}

// SaveSnapshot overwrites the day snapshot baseline for a user-day
func (s *ScheduleStore) SaveSnapshot(ctx context.Context, userID, scheduleDate string, shifts []canon.Shift, sourceSessionID string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO day_snapshot (user_id, schedule_date, snapshot_payload, source_session_id, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, schedule_date) DO UPDATE
		   SET snapshot_payload  = EXCLUDED.snapshot_payload,
		       source_session_id = EXCLUDED.source_session_id,
		       updated_at        = now()
	`, userID, scheduleDate, shifts, sourceSessionID)
	return err
}
