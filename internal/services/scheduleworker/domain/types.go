// Package domain defines the types and interfaces for the schedule ingest worker
package domain

import "time"

// SessionState is the closed set of capture_session lifecycle states
type SessionState string

const (
	SessionPending    SessionState = "pending"
	SessionProcessing SessionState = "processing"
	SessionDone       SessionState = "done"
	SessionFailed     SessionState = "failed"
)

// StateNames aliases the capture_session.state column's literal string
// values, letting a test schema store different strings for the same
// four lifecycle states without this worker's Go-side semantics changing
type StateNames struct {
	Pending    string
	Processing string
	Done       string
	Failed     string
}

// DefaultStateNames returns the state names matching the SessionState
// constants above
func DefaultStateNames() StateNames {
	return StateNames{
		Pending:    string(SessionPending),
		Processing: string(SessionProcessing),
		Done:       string(SessionDone),
		Failed:     string(SessionFailed),
	}
}

// Defaulted fills any empty field with its default state name
func (s StateNames) Defaulted() StateNames {
	d := DefaultStateNames()
	if s.Pending == "" {
		s.Pending = d.Pending
	}
	if s.Processing == "" {
		s.Processing = d.Processing
	}
	if s.Done == "" {
		s.Done = d.Done
	}
	if s.Failed == "" {
		s.Failed = d.Failed
	}
	return s
}

// Session is one unit of work: a user-day's group of ordered screenshots
type Session struct {
	ID        string
	UserID    string
	State     SessionState
	CreatedAt time.Time
	Error     string
	LockedAt  *time.Time
	LockedBy  string
}

// Image is one ordered screenshot belonging to a session, immutable and
// read-only from this worker's perspective
type Image struct {
	ID                string
	SessionID         string
	Sequence          int
	R2Key             string
	TelegramMessageID *int64
	CreatedAt         time.Time
}

// VersionOutcome classifies what WriteVersion did
type VersionOutcome string

const (
	VersionCreated        VersionOutcome = "created"
	VersionUnchanged      VersionOutcome = "unchanged"
	VersionAlreadyExisted VersionOutcome = "already_existed"
)

// ScheduleVersion is the immutable per-session payload record
type ScheduleVersion struct {
	UserID       string
	ScheduleDate string
	Version      int
	SessionID    string
	PayloadHash  string
	CreatedAt    time.Time
}
