package repo

import (
	"context"

	"github.com/google/uuid"

	"swearjar/internal/core/canon"
	"swearjar/internal/core/diff"
	"swearjar/internal/core/notify"
	"swearjar/internal/platform/store"
)

// InsertEvents persists the diff engine's ordered output idempotently,
// against the dedupe key (user_id, schedule_date, location_fingerprint,
// event_type, old_value_hash, new_value_hash). A conflicting insert is
// resolved by looking up the event_id that already owns that key, so the
// mapper always receives one EventRecord per logical event regardless of
// whether this is the first or a repeated observation of it. Callers reach
// this through WithTx, so every insert below lands in the same transaction
// as the version write and snapshot update it accompanies
func (s *ScheduleStore) InsertEvents(ctx context.Context, userID, scheduleDate, sourceSessionID string, events []diff.Event) ([]notify.EventRecord, error) {
	out := make([]notify.EventRecord, 0, len(events))

	for _, e := range events {
		oldHash := canon.NullValueHash()
		var oldJSON any
		if e.OldValue != nil {
			oldHash = canon.ShiftHash(*e.OldValue)
			oldJSON = e.OldValue
		}
		newHash := canon.NullValueHash()
		var newJSON any
		if e.NewValue != nil {
			newHash = canon.ShiftHash(*e.NewValue)
			newJSON = e.NewValue
		}

		row := s.q.QueryRow(ctx, `
			INSERT INTO schedule_event
				(event_id, user_id, schedule_date, event_type, location_fingerprint, customer_fingerprint,
				 old_value, new_value, old_value_hash, new_value_hash, detected_at, source_session_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), $11)
			ON CONFLICT (user_id, schedule_date, location_fingerprint, event_type, old_value_hash, new_value_hash)
			DO NOTHING
			RETURNING event_id
		`, uuid.NewString(), userID, scheduleDate, string(e.Type), e.LocationFingerprint, e.CustomerFingerprint,
			oldJSON, newJSON, oldHash, newHash, sourceSessionID)

		var eventID string
		if err := row.Scan(&eventID); err != nil {
			if !isNoRows(err) {
				return nil, err
			}
			existing, lookErr := s.existingEventID(ctx, s.q, userID, scheduleDate, e, oldHash, newHash)
			if lookErr != nil {
				return nil, lookErr
			}
			eventID = existing
		}
		out = append(out, notify.EventRecord{EventID: eventID, Event: e})
	}

	return out, nil
}

func (s *ScheduleStore) existingEventID(ctx context.Context, q store.RowQuerier, userID, scheduleDate string, e diff.Event, oldHash, newHash string) (string, error) {
	row := q.QueryRow(ctx, `
		SELECT event_id
		  FROM schedule_event
		 WHERE user_id = $1 AND schedule_date = $2 AND location_fingerprint = $3
		   AND event_type = $4 AND old_value_hash = $5 AND new_value_hash = $6
	`, userID, scheduleDate, e.LocationFingerprint, string(e.Type), oldHash, newHash)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
