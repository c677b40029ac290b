// Package repo implements the schedule ingest worker's storage surface:
// the day snapshot baseline, schedule versions, events, and notifications
package repo

import (
	"context"
	"strings"

	"swearjar/internal/modkit"
	"swearjar/internal/modkit/repokit"
	"swearjar/internal/platform/store"
	"swearjar/internal/services/scheduleworker/domain"
)

// ScheduleStore implements domain.ScheduleRepo. q is the querier every
// method writes through; tx is the underlying TxRunner WithTx opens a
// span on. A store bound by WithTx carries a nil tx and a q scoped to
// that one transaction, so nested WithTx calls panic rather than silently
// opening a second, unguarded transaction
type ScheduleStore struct {
	q  store.RowQuerier
	tx store.TxRunner
}

// NewScheduleStore constructs the top level ScheduleStore
func NewScheduleStore(deps modkit.Deps) *ScheduleStore {
	return &ScheduleStore{q: deps.PG, tx: deps.PG}
}

// scheduleBinder binds a Queryer to a ScheduleStore scoped to it, the
// shape WithTx hands to its callback
var scheduleBinder = repokit.BindFunc[domain.ScheduleRepo](func(q repokit.Queryer) domain.ScheduleRepo {
	return &ScheduleStore{q: q}
})

// WithTx opens one transaction for the whole (userID, scheduleDate) write
// span: a begin hook acquires a transactional advisory lock keyed by that
// pair before fn runs, so every write WriteVersion, InsertEvents,
// SaveSnapshot and InsertNotifications perform for this day are atomic
// with each other and serialized against any other session writing the
// same day
func (s *ScheduleStore) WithTx(ctx context.Context, userID, scheduleDate string, fn func(ctx context.Context, repo domain.ScheduleRepo) error) error {
	if s.tx == nil {
		panic("scheduleworker.ScheduleStore: WithTx called on a store already bound to a transaction")
	}
	lockKey := userID + "|" + scheduleDate
	locked := repokit.WithBeginHooks(s.tx, func(ctx context.Context, q repokit.Queryer) error {
		_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey)
		return err
	})
	return repokit.WithTx(ctx, locked, func(q repokit.Queryer) error {
		return fn(ctx, repokit.MustBind(scheduleBinder, q))
	})
}

func isNoRows(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no rows")
}
