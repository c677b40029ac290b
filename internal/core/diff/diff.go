// Package diff compares a prior day's canonical shifts against a new
// observation and produces a deterministic, ordered list of typed events.
package diff

import (
	"sort"

	"swearjar/internal/core/canon"
)

// EventType is the closed, tagged sum type of semantic change kinds
type EventType string

const (
	EventAdded        EventType = "shift_added"
	EventRemoved      EventType = "shift_removed"
	EventTimeChanged  EventType = "shift_time_changed"
	EventRelocated    EventType = "shift_relocated"
	EventRetitled     EventType = "shift_retitled"
	EventReclassified EventType = "shift_reclassified"
)

// Event is an immutable semantic change record. OldValue/NewValue carry the
// full canonical shifts by copy; whichever side doesn't apply is the zero value
type Event struct {
	Type                EventType
	LocationFingerprint string
	CustomerFingerprint string
	OldValue            *canon.Shift
	NewValue            *canon.Shift
}

// anchorShift returns whichever of NewValue/OldValue is present, for sorting
// and field access that don't care which side changed
func (e Event) anchorShift() canon.Shift {
	if e.NewValue != nil {
		return *e.NewValue
	}
	if e.OldValue != nil {
		return *e.OldValue
	}
	return canon.Shift{}
}

// Diff compares prior shifts P against new shifts N and returns the ordered
// list of events per the diff algorithm: identity-group both sides by
// (location_fingerprint, customer_fingerprint), greedily pair within each
// identity by minimum circular time distance, classify pairs, then emit
// shift_added/shift_removed for anything left unpaired
func Diff(prior, next []canon.Shift) []Event {
	priorByIdentity := groupByIdentity(prior)
	nextByIdentity := groupByIdentity(next)

	var events []Event

	identities := make(map[string]struct{}, len(priorByIdentity)+len(nextByIdentity))
	for k := range priorByIdentity {
		identities[k] = struct{}{}
	}
	for k := range nextByIdentity {
		identities[k] = struct{}{}
	}

	for identity := range identities {
		p := priorByIdentity[identity]
		n := nextByIdentity[identity]

		pairs, unpairedP, unpairedN := pairByMinCost(p, n)
		for _, pr := range pairs {
			if ev, ok := classify(pr.p, pr.n); ok {
				events = append(events, ev)
			}
		}
		for _, s := range unpairedN {
			s := s
			events = append(events, Event{
				Type:                EventAdded,
				LocationFingerprint: s.LocationFingerprint,
				CustomerFingerprint: s.CustomerFingerprint,
				NewValue:            &s,
			})
		}
		for _, s := range unpairedP {
			s := s
			events = append(events, Event{
				Type:                EventRemoved,
				LocationFingerprint: s.LocationFingerprint,
				CustomerFingerprint: s.CustomerFingerprint,
				OldValue:            &s,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.LocationFingerprint != b.LocationFingerprint {
			return a.LocationFingerprint < b.LocationFingerprint
		}
		as, bs := a.anchorShift(), b.anchorShift()
		if as.Start != bs.Start {
			return as.Start < bs.Start
		}
		return as.End < bs.End
	})

	return events
}

func groupByIdentity(shifts []canon.Shift) map[string][]canon.Shift {
	out := make(map[string][]canon.Shift)
	for _, s := range shifts {
		key := s.LocationFingerprint + "\x00" + s.CustomerFingerprint
		out[key] = append(out[key], s)
	}
	return out
}

type pair struct {
	p, n canon.Shift
}

// pairByMinCost implements the greedy minimum-cost bipartite pairing:
// build the full cost matrix under the circular |Δstart|+|Δend| distance,
// repeatedly pick the globally minimal remaining cost pair, remove both
// rows/columns, until one side empties
func pairByMinCost(p, n []canon.Shift) (pairs []pair, unpairedP, unpairedN []canon.Shift) {
	if len(p) == 0 {
		return nil, nil, append([]canon.Shift(nil), n...)
	}
	if len(n) == 0 {
		return nil, append([]canon.Shift(nil), p...), nil
	}

	usedP := make([]bool, len(p))
	usedN := make([]bool, len(n))

	type cell struct {
		i, j int
		cost int
	}
	var cells []cell
	for i := range p {
		for j := range n {
			cells = append(cells, cell{i, j, shiftDistance(p[i], n[j])})
		}
	}
	sort.SliceStable(cells, func(a, b int) bool {
		if cells[a].cost != cells[b].cost {
			return cells[a].cost < cells[b].cost
		}
		if cells[a].i != cells[b].i {
			return cells[a].i < cells[b].i
		}
		return cells[a].j < cells[b].j
	})

	remaining := len(p)
	if len(n) < remaining {
		remaining = len(n)
	}

	for _, c := range cells {
		if remaining == 0 {
			break
		}
		if usedP[c.i] || usedN[c.j] {
			continue
		}
		usedP[c.i] = true
		usedN[c.j] = true
		pairs = append(pairs, pair{p: p[c.i], n: n[c.j]})
		remaining--
	}

	for i, used := range usedP {
		if !used {
			unpairedP = append(unpairedP, p[i])
		}
	}
	for j, used := range usedN {
		if !used {
			unpairedN = append(unpairedN, n[j])
		}
	}
	return pairs, unpairedP, unpairedN
}

func shiftDistance(a, b canon.Shift) int {
	return circularTimeDistance(a.Start, a.End, b.Start, b.End)
}

// classify dispatches a matched (prior, new) pair to an event type following
// the fixed priority order: time_changed > reclassified > relocated > retitled
func classify(p, n canon.Shift) (Event, bool) {
	base := Event{LocationFingerprint: n.LocationFingerprint, CustomerFingerprint: n.CustomerFingerprint}
	pp, nn := p, n

	switch {
	case p.Start != n.Start || p.End != n.End:
		base.Type = EventTimeChanged
	case p.ShiftType != n.ShiftType:
		base.Type = EventReclassified
	case p.Street != n.Street || p.StreetNumber != n.StreetNumber || p.PostalCode != n.PostalCode:
		base.Type = EventRelocated
	case p.CustomerName != n.CustomerName:
		base.Type = EventRetitled
	default:
		return Event{}, false
	}

	base.OldValue = &pp
	base.NewValue = &nn
	return base, true
}
