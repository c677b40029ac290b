package domain

import (
	"context"
	"time"

	"swearjar/internal/core/canon"
	"swearjar/internal/core/diff"
	"swearjar/internal/core/notify"
)

// RunnerPort is the public entrypoint exposed by the module
type RunnerPort interface {
	// RunOnce processes at most one finalizable session. Returns false when
	// there was nothing to do
	RunOnce(ctx context.Context) (bool, error)

	// Run drives RunOnce on WORKER_POLL_SECONDS cadence until ctx is done
	Run(ctx context.Context) error
}

// SessionRepo is the storage surface for capture_session/capture_image
type SessionRepo interface {
	// ClaimNext atomically finalizes an idle pending session or reclaims a
	// stale processing one, returning its images ordered by sequence.
	// ok is false when nothing was eligible
	ClaimNext(ctx context.Context, workerID string, idleTimeout, leaseTimeout time.Duration) (sess Session, images []Image, ok bool, err error)

	// Heartbeat extends the lease for a session this worker still owns.
	// ok is false when the lease was lost
	Heartbeat(ctx context.Context, sessionID, workerID string) (ok bool, err error)

	// Finish marks a session done, clearing its lease, guarded by ownership
	Finish(ctx context.Context, sessionID, workerID string) error

	// Fail marks a session failed with the given error text, clearing its
	// lease, guarded by ownership
	Fail(ctx context.Context, sessionID, workerID, errText string) error
}

// ScheduleRepo is the storage surface for the canonical day state: the
// snapshot baseline, versions, events, and notifications
type ScheduleRepo interface {
	// WithTx runs fn with a ScheduleRepo bound to a single transaction
	// spanning every write fn performs, serialized against every other
	// writer of the same (userID, scheduleDate) by a transactional
	// advisory lock held for the whole span
	WithTx(ctx context.Context, userID, scheduleDate string, fn func(ctx context.Context, repo ScheduleRepo) error) error

	// LoadSnapshot returns the current diff baseline for a user-day, or
	// ok=false if none exists yet
	LoadSnapshot(ctx context.Context, userID, scheduleDate string) (shifts []canon.Shift, ok bool, err error)

	// SaveSnapshot overwrites the diff baseline for a user-day
	SaveSnapshot(ctx context.Context, userID, scheduleDate string, shifts []canon.Shift, sourceSessionID string) error

	// WriteVersion serializes inserts of new schedule versions per
	// (user_id, schedule_date) behind a transactional advisory lock
	WriteVersion(ctx context.Context, userID, scheduleDate, sessionID string, payload []byte, payloadHash string) (ScheduleVersion, VersionOutcome, error)

	// InsertEvents persists the diff engine's output idempotently, returning
	// one EventRecord per inserted-or-already-present event in the diff's order
	InsertEvents(ctx context.Context, userID, scheduleDate, sourceSessionID string, events []diff.Event) ([]notify.EventRecord, error)

	// AlreadyNotified reports which of the given event ids already have a
	// stored notification referencing them
	AlreadyNotified(ctx context.Context, eventIDs []string) (map[string]struct{}, error)

	// InsertNotifications persists generated notifications idempotently
	InsertNotifications(ctx context.Context, notifications []notify.Notification) error
}
