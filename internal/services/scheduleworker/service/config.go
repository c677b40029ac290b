// Package service implements the schedule ingest worker's processing
// pipeline: claim, OCR/layout/normalize, aggregate, canonicalize, diff,
// persist, notify, finalize
package service

import (
	"time"

	"swearjar/internal/platform/config"
	"swearjar/internal/services/scheduleworker/domain"
)

// Config controls the worker's timing and tuning parameters. Zero values
// are replaced by their defaults in New
type Config struct {
	WorkerID string

	LeaseTimeout      time.Duration
	HeartbeatInterval time.Duration
	IdleTimeout       time.Duration
	PollInterval      time.Duration

	SummaryThreshold     int
	AggregationTolerance int

	// States aliases the capture_session.state column's literal values,
	// for schemas (e.g. under test) that store the four lifecycle states
	// under different strings
	States domain.StateNames
}

// FromConf reads a Config from environment variables prefixed
// SCHEDULEWORKER_, following the defaults in the worker's parameters
func FromConf(c config.Conf) Config {
	c = c.Prefix("SCHEDULEWORKER_")
	return Config{
		WorkerID:             c.MayString("WORKER_ID", ""),
		LeaseTimeout:         time.Duration(c.MayInt("LEASE_TIMEOUT_SECONDS", 300)) * time.Second,
		HeartbeatInterval:    time.Duration(c.MayInt("LEASE_HEARTBEAT_SECONDS", 10)) * time.Second,
		IdleTimeout:          time.Duration(c.MayInt("SESSION_IDLE_TIMEOUT_SECONDS", 25)) * time.Second,
		PollInterval:         time.Duration(c.MayInt("WORKER_POLL_SECONDS", 5)) * time.Second,
		SummaryThreshold:     c.MayInt("SUMMARY_THRESHOLD", 3),
		AggregationTolerance: c.MayInt("TIME_TOLERANCE_MIN", 5),
		States: domain.StateNames{
			Pending:    c.MayString("PENDING_STATE", ""),
			Processing: c.MayString("PROCESSING_STATE", ""),
			Done:       c.MayString("DONE_STATE", ""),
			Failed:     c.MayString("FAILED_STATE", ""),
		}.Defaulted(),
	}
}

// withDefaults fills any zero-valued fields with the worker's defaults
func (c Config) withDefaults() Config {
	if c.LeaseTimeout <= 0 {
		c.LeaseTimeout = 300 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 25 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.SummaryThreshold <= 0 {
		c.SummaryThreshold = 3
	}
	if c.AggregationTolerance <= 0 {
		c.AggregationTolerance = 5
	}
	c.States = c.States.Defaulted()
	return c
}
