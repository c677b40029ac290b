package service

import (
	"context"
	"fmt"
	"sort"

	"swearjar/internal/adapters/vision"
	"swearjar/internal/core/aggregate"
	"swearjar/internal/core/canon"
	"swearjar/internal/core/diff"
	"swearjar/internal/core/notify"
	perr "swearjar/internal/platform/errors"
	"swearjar/internal/platform/logger"
	"swearjar/internal/services/scheduleworker/domain"
)

// process runs one claimed session through observation, aggregation, and
// canonicalization, then writes the version, diffs against the prior
// snapshot, persists events, the new snapshot, and notifications in a
// single transaction spanning this user-day. The session's lease is never
// touched here; the caller finalizes or fails it based on this method's
// return. l already carries session_id/user_id/correlation_id
func (s *Service) process(ctx context.Context, l logger.Logger, sess domain.Session, images []domain.Image) error {
	observations, scheduleDate, err := s.observe(ctx, l, images)
	if err != nil {
		return err
	}

	merged := aggregate.Aggregate(observations, s.Cfg.AggregationTolerance)
	shifts := make([]canon.Shift, len(merged))
	for i, m := range merged {
		shifts[i] = m.Shift
	}
	l.Info().Str("event", "aggregation.completed").Int("shifts", len(shifts)).Msg("scheduleworker: aggregated observations")

	payload, hash, err := canon.Canonicalize(scheduleDate, shifts)
	if err != nil {
		return err
	}
	serialized := canon.Serialize(payload)

	return s.Schedules.WithTx(ctx, sess.UserID, scheduleDate, func(ctx context.Context, repo domain.ScheduleRepo) error {
		if _, _, err := repo.WriteVersion(ctx, sess.UserID, scheduleDate, sess.ID, serialized, hash); err != nil {
			return err
		}

		prior, _, err := repo.LoadSnapshot(ctx, sess.UserID, scheduleDate)
		if err != nil {
			return err
		}

		events := diff.Diff(prior, payload.Shifts)
		l.Info().Str("event", "diff.computed").Int("events", len(events)).Msg("scheduleworker: diffed against prior snapshot")

		records, err := repo.InsertEvents(ctx, sess.UserID, scheduleDate, sess.ID, events)
		if err != nil {
			return err
		}
		l.Info().Str("event", "events.persisted").Int("events", len(records)).Msg("scheduleworker: persisted events")

		if err := repo.SaveSnapshot(ctx, sess.UserID, scheduleDate, payload.Shifts, sess.ID); err != nil {
			return err
		}

		return s.notify(ctx, l, repo, sess, scheduleDate, records)
	})
}

// notify maps this session's events to notifications, skipping any event
// already referenced by a stored notification, and persists the result
// through the same repo (and therefore the same transaction) process was
// given
func (s *Service) notify(ctx context.Context, l logger.Logger, repo domain.ScheduleRepo, sess domain.Session, scheduleDate string, records []notify.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.EventID
	}

	already, err := repo.AlreadyNotified(ctx, ids)
	if err != nil {
		return err
	}

	notifications := notify.Map(sess.UserID, scheduleDate, sess.ID, records, already, s.Cfg.SummaryThreshold)
	l.Info().Str("event", "notifications.generated").Int("notifications", len(notifications)).Msg("scheduleworker: mapped notifications")
	if len(notifications) == 0 {
		return nil
	}
	if err := repo.InsertNotifications(ctx, notifications); err != nil {
		return err
	}
	l.Info().Str("event", "notifications.stored").Int("notifications", len(notifications)).Msg("scheduleworker: stored notifications")
	return nil
}

// observe fetches and recognizes every image in the session, returning the
// pooled per-screenshot shift observations plus the session's schedule
// date. The date is extracted from OCR'd image content and must agree
// across every image; missing or inconsistent dates are a schema-contract
// failure, never inferred from upload timestamps
func (s *Service) observe(ctx context.Context, l logger.Logger, images []domain.Image) ([]aggregate.Observation, string, error) {
	var observations []aggregate.Observation
	dates := make(map[string]struct{})

	for screenshotIdx, img := range images {
		blob, err := s.Blobs.Fetch(ctx, img.R2Key)
		if err != nil {
			return nil, "", perr.Wrapf(err, perr.ErrorCodeExternal, "fetch blob %q", img.R2Key)
		}

		boxes, err := s.OCR.Scan(ctx, blob)
		if err != nil {
			return nil, "", perr.Wrapf(err, perr.ErrorCodeExternal, "ocr image %s", img.ID)
		}
		l.Info().Str("event", "ocr.completed").Str("image_id", img.ID).Int("boxes", len(boxes)).Msg("scheduleworker: ocr scan done")

		if date, ok := vision.ExtractScheduleDate(boxes); ok {
			dates[date] = struct{}{}
		}

		entries := s.Layout.Parse(boxes)
		shifts, err := s.Normalizer.Normalize(entries)
		if err != nil {
			return nil, "", err
		}
		l.Info().Str("event", "layout.shifts_detected").Str("image_id", img.ID).Int("shifts", len(shifts)).Msg("scheduleworker: layout parsed")

		for position, shift := range shifts {
			observations = append(observations, aggregate.Observation{
				Shift:         shift,
				ScreenshotIdx: screenshotIdx,
				Position:      position,
			})
		}
	}

	scheduleDate, err := resolveScheduleDate(dates)
	if err != nil {
		return nil, "", err
	}
	return observations, scheduleDate, nil
}

// resolveScheduleDate enforces the session-wide schedule date consistency
// invariant: every image must agree on the date it depicts
func resolveScheduleDate(dates map[string]struct{}) (string, error) {
	if len(dates) == 0 {
		return "", perr.New(perr.ErrorCodeSchemaContract, "unknown state: missing schedule_date, no image yielded a recognizable date")
	}
	if len(dates) == 1 {
		for d := range dates {
			return d, nil
		}
	}

	distinct := make([]string, 0, len(dates))
	for d := range dates {
		distinct = append(distinct, d)
	}
	sort.Strings(distinct)
	return "", perr.Newf(perr.ErrorCodeSchemaContract, "inconsistent schedule_date across session images: %s", fmt.Sprint(distinct))
}
