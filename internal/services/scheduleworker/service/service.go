package service

import (
	"context"
	"errors"
	"time"

	"swearjar/internal/adapters/vision"
	"swearjar/internal/platform/logger"
	"swearjar/internal/services/scheduleworker/domain"
	"swearjar/internal/services/scheduleworker/guardrails"
)

// Service wires the storage ports and vision collaborators into the
// claim → observe → aggregate → canonicalize → diff → persist → notify →
// finalize pipeline
type Service struct {
	Sessions  domain.SessionRepo
	Schedules domain.ScheduleRepo

	OCR        vision.OCR
	Layout     vision.LayoutParser
	Normalizer vision.Normalizer
	Blobs      vision.BlobStore

	Cfg Config

	// Heartbeat starts a per-session lease-extension loop. Defaults to
	// the guardrails package's implementation when Sessions is a
	// *guardrails.SessionGuard; set explicitly for tests that stub Sessions
	Heartbeat func(ctx context.Context, sessionID, workerID string, interval time.Duration) (stop func(), lost <-chan struct{})
}

// New constructs a Service, filling Config defaults and, when Sessions is
// the concrete *guardrails.SessionGuard, wiring its heartbeat loop
func New(sessions domain.SessionRepo, schedules domain.ScheduleRepo, ocr vision.OCR, layout vision.LayoutParser, norm vision.Normalizer, blobs vision.BlobStore, cfg Config) *Service {
	if sessions == nil {
		panic("scheduleworker.Service requires a non nil SessionRepo")
	}
	if schedules == nil {
		panic("scheduleworker.Service requires a non nil ScheduleRepo")
	}

	cfg = cfg.withDefaults()
	if cfg.WorkerID == "" {
		cfg.WorkerID = guardrails.ResolveWorkerID("")
	}

	s := &Service{
		Sessions:   sessions,
		Schedules:  schedules,
		OCR:        ocr,
		Layout:     layout,
		Normalizer: norm,
		Blobs:      blobs,
		Cfg:        cfg,
	}
	if g, ok := sessions.(*guardrails.SessionGuard); ok {
		s.Heartbeat = g.StartHeartbeat
	}
	return s
}

// RunOnce claims and fully processes at most one finalizable session. The
// bool return is false when there was nothing eligible to claim
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	log := logger.Named("scheduleworker")

	sess, images, ok, err := s.Sessions.ClaimNext(ctx, s.Cfg.WorkerID, s.Cfg.IdleTimeout, s.Cfg.LeaseTimeout)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Debug().Str("event", "session.skipped_idle").Msg("scheduleworker: no session past its idle timeout yet")
		return false, nil
	}

	l := log.With().Str("session_id", sess.ID).Str("user_id", sess.UserID).Str("correlation_id", sess.ID).Logger()
	l.Info().Str("event", "session.processed").Int("images", len(images)).Msg("scheduleworker: claimed session")

	var stop func()
	var lost <-chan struct{}
	if s.Heartbeat != nil {
		stop, lost = s.Heartbeat(ctx, sess.ID, s.Cfg.WorkerID, s.Cfg.HeartbeatInterval)
		defer stop()
	}

	procCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if lost != nil {
		go func() {
			select {
			case <-lost:
				cancel()
			case <-procCtx.Done():
			}
		}()
	}

	runErr := s.process(procCtx, l, sess, images)
	if runErr != nil {
		if errors.Is(runErr, guardrails.ErrLeaseLost) {
			logger.LogErr(l.Warn(), runErr, "lifecycle").Msg("scheduleworker: lease lost mid-processing, abandoning without finalizing")
			return true, runErr
		}
		logger.LogErr(l.Error(), runErr, "lifecycle").Msg("scheduleworker: session failed")
		if failErr := s.Sessions.Fail(ctx, sess.ID, s.Cfg.WorkerID, runErr.Error()); failErr != nil {
			logger.LogErr(l.Error(), failErr, "db").Msg("scheduleworker: failed to mark session failed")
		}
		return true, runErr
	}

	if err := s.Sessions.Finish(ctx, sess.ID, s.Cfg.WorkerID); err != nil {
		logger.LogErr(l.Error(), err, "db").Msg("scheduleworker: failed to mark session done")
		return true, err
	}
	l.Info().Str("event", "session.finalized").Msg("scheduleworker: session done")
	return true, nil
}

// Run drives RunOnce on the configured poll cadence until ctx is done
func (s *Service) Run(ctx context.Context) error {
	t := time.NewTicker(s.Cfg.PollInterval)
	defer t.Stop()

	log := logger.Named("scheduleworker")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, guardrails.ErrLeaseLost) {
				logger.LogErr(log.Error(), err, "lifecycle").Msg("scheduleworker: run-once iteration failed")
			}
		}
	}
}
