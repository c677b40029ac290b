package repo

import (
	"context"
	"time"

	"swearjar/internal/services/scheduleworker/domain"
)

// WriteVersion writes one schedule_version row for this (user_id,
// schedule_date, session_id). Callers reach this through WithTx, whose
// begin hook already holds the transactional advisory lock for this
// user-day, so the read-then-insert below is race free without its own
// locking. A retry of the same session_id returns AlreadyExisted with the
// version it wrote before; an unchanged payload hash returns Unchanged
// with the latest version; otherwise inserts version = latest+1 (or 1)
// and returns Created
func (s *ScheduleStore) WriteVersion(ctx context.Context, userID, scheduleDate, sessionID string, payload []byte, payloadHash string) (domain.ScheduleVersion, domain.VersionOutcome, error) {
	// Retry of the same session: the version row already exists
	row := s.q.QueryRow(ctx, `
		SELECT version, payload_hash, created_at FROM schedule_version WHERE session_id = $1
	`, sessionID)
	var v int
	var hash string
	var createdAt time.Time
	if err := row.Scan(&v, &hash, &createdAt); err == nil {
		return domain.ScheduleVersion{UserID: userID, ScheduleDate: scheduleDate, Version: v, SessionID: sessionID, PayloadHash: hash, CreatedAt: createdAt}, domain.VersionAlreadyExisted, nil
	} else if !isNoRows(err) {
		return domain.ScheduleVersion{}, "", err
	}

	// Latest version for this user-day, if any
	row = s.q.QueryRow(ctx, `
		SELECT version, payload_hash
		  FROM schedule_version
		 WHERE user_id = $1 AND schedule_date = $2
		 ORDER BY version DESC
		 LIMIT 1
	`, userID, scheduleDate)
	var latestVersion int
	var latestHash string
	hasLatest := true
	if err := row.Scan(&latestVersion, &latestHash); err != nil {
		if !isNoRows(err) {
			return domain.ScheduleVersion{}, "", err
		}
		hasLatest = false
	}

	if hasLatest && latestHash == payloadHash {
		return domain.ScheduleVersion{UserID: userID, ScheduleDate: scheduleDate, Version: latestVersion, SessionID: sessionID, PayloadHash: latestHash}, domain.VersionUnchanged, nil
	}

	nextVersion := 1
	if hasLatest {
		nextVersion = latestVersion + 1
	}

	row = s.q.QueryRow(ctx, `
		INSERT INTO schedule_version (user_id, schedule_date, version, session_id, payload, payload_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING version, created_at
	`, userID, scheduleDate, nextVersion, sessionID, payload, payloadHash)
	var createdAt2 time.Time
	var insertedVersion int
	if err := row.Scan(&insertedVersion, &createdAt2); err != nil {
		return domain.ScheduleVersion{}, "", err
	}

	return domain.ScheduleVersion{UserID: userID, ScheduleDate: scheduleDate, Version: insertedVersion, SessionID: sessionID, PayloadHash: payloadHash, CreatedAt: createdAt2}, domain.VersionCreated, nil
}
