// Package module wires up the schedule ingest worker as a modkit module
package module

import (
	"swearjar/internal/adapters/vision"
	"swearjar/internal/modkit"
	"swearjar/internal/services/scheduleworker/domain"
	"swearjar/internal/services/scheduleworker/guardrails"
	"swearjar/internal/services/scheduleworker/repo"
	"swearjar/internal/services/scheduleworker/service"
)

// Ports exported by the module
type Ports struct {
	Runner domain.RunnerPort
}

// Module wires storage, guardrails, and vision collaborators into a Service
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the schedule ingest worker module using deps.Cfg.
// Vision collaborators default to the stand-ins; callers that have a real
// OCR/layout/normalizer/blob-store client should build the Service directly
// with service.New instead of going through this constructor
func New(deps modkit.Deps) *Module {
	opts := service.FromConf(deps.Cfg)

	sessions := guardrails.NewSessionGuard(deps, opts.States)
	schedules := repo.NewScheduleStore(deps)

	svc := service.New(sessions, schedules, vision.StandInOCR{}, vision.StandInLayoutParser{}, vision.StandInNormalizer{}, vision.StandInBlobStore{}, opts)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "scheduleworker" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module config prefix
func (m *Module) Prefix() string { return "SCHEDULEWORKER_" }
