// Package notify translates diff events into human-facing notifications,
// suppressing storms of unrelated changes into a single summary.
package notify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"swearjar/internal/core/diff"
)

// DefaultSummaryThreshold is SUMMARY_THRESHOLD's default value
const DefaultSummaryThreshold = 3

// Type is the kind of notification row produced
type Type string

const (
	TypeEvent   Type = "event"
	TypeSummary Type = "summary"
)

// EventRecord pairs a diff event with its persisted identity (event_id),
// since the mapper needs ids for dedupe and for the summary's event_ids list
type EventRecord struct {
	EventID string
	Event   diff.Event
}

// Notification is an outbound human-facing message, not yet persisted
type Notification struct {
	NotificationID string
	UserID         string
	ScheduleDate   string
	SourceSession  string
	Type           Type
	Message        string
	EventIDs       []string
}

// Map builds notifications for one processed session's events, dropping
// anything already notified and collapsing a storm of changes into one
// summary notification once the remaining count reaches summaryThreshold
func Map(userID, scheduleDate, sourceSessionID string, records []EventRecord, alreadyNotified map[string]struct{}, summaryThreshold int) []Notification {
	if summaryThreshold <= 0 {
		summaryThreshold = DefaultSummaryThreshold
	}

	var remaining []EventRecord
	for _, r := range records {
		if _, seen := alreadyNotified[r.EventID]; seen {
			continue
		}
		remaining = append(remaining, r)
	}
	if len(remaining) == 0 {
		return nil
	}

	if len(remaining) >= summaryThreshold {
		return []Notification{buildSummary(userID, scheduleDate, sourceSessionID, remaining)}
	}

	out := make([]Notification, 0, len(remaining))
	for _, r := range remaining {
		out = append(out, buildEventNotification(userID, scheduleDate, sourceSessionID, r))
	}
	return out
}

func buildEventNotification(userID, scheduleDate, sourceSessionID string, r EventRecord) Notification {
	msg := eventMessage(scheduleDate, r.Event)
	return Notification{
		NotificationID: notificationID(userID, scheduleDate, sourceSessionID, string(r.Event.Type), []string{r.EventID}),
		UserID:         userID,
		ScheduleDate:   scheduleDate,
		SourceSession:  sourceSessionID,
		Type:           TypeEvent,
		Message:        msg,
		EventIDs:       []string{r.EventID},
	}
}

func buildSummary(userID, scheduleDate, sourceSessionID string, records []EventRecord) Notification {
	counts := make(map[diff.EventType]int)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		counts[r.Event.Type]++
		ids = append(ids, r.EventID)
	}
	sort.Strings(ids)

	msg := summaryMessage(scheduleDate, counts, len(records))
	return Notification{
		NotificationID: notificationID(userID, scheduleDate, sourceSessionID, "summary", ids),
		UserID:         userID,
		ScheduleDate:   scheduleDate,
		SourceSession:  sourceSessionID,
		Type:           TypeSummary,
		Message:        msg,
		EventIDs:       ids,
	}
}

// notificationID hashes user_id|schedule_date|source_session_id|type|sorted_event_ids
func notificationID(userID, scheduleDate, sourceSessionID, typ string, eventIDs []string) string {
	sorted := append([]string(nil), eventIDs...)
	sort.Strings(sorted)
	source := strings.Join([]string{userID, scheduleDate, sourceSessionID, typ, strings.Join(sorted, ",")}, "|")
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func eventMessage(date string, e diff.Event) string {
	customer := displayCustomer(e)
	switch e.Type {
	case diff.EventTimeChanged:
		return timeChangedMessage(date, customer, e)
	case diff.EventAdded:
		s := e.NewValue
		return fmt.Sprintf("%s: %s added %s-%s", date, customer, s.Start, s.End)
	case diff.EventRemoved:
		s := e.OldValue
		return fmt.Sprintf("%s: %s removed %s-%s", date, customer, s.Start, s.End)
	case diff.EventRelocated:
		return fmt.Sprintf("%s: %s relocated to %s %s", date, customer, e.NewValue.Street, e.NewValue.StreetNumber)
	case diff.EventRetitled:
		return fmt.Sprintf("%s: %s renamed to %s", date, e.OldValue.CustomerName, e.NewValue.CustomerName)
	case diff.EventReclassified:
		return fmt.Sprintf("%s: %s reclassified %s → %s", date, customer, e.OldValue.ShiftType, e.NewValue.ShiftType)
	default:
		return fmt.Sprintf("%s: %s changed", date, customer)
	}
}

func timeChangedMessage(date, customer string, e diff.Event) string {
	old, next := e.OldValue, e.NewValue
	switch {
	case old.Start != next.Start && old.End == next.End:
		return fmt.Sprintf("%s: %s moved %s → %s", date, customer, old.Start, next.Start)
	case old.Start == next.Start && old.End != next.End:
		return fmt.Sprintf("%s: %s ends %s → %s", date, customer, old.End, next.End)
	default:
		return fmt.Sprintf("%s: %s %s-%s → %s-%s", date, customer, old.Start, old.End, next.Start, next.End)
	}
}

func displayCustomer(e diff.Event) string {
	if e.NewValue != nil && e.NewValue.CustomerName != "" {
		return e.NewValue.CustomerName
	}
	if e.OldValue != nil && e.OldValue.CustomerName != "" {
		return e.OldValue.CustomerName
	}
	return "Unknown"
}

func summaryMessage(date string, counts map[diff.EventType]int, total int) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%d %s", counts[diff.EventType(t)], t))
	}
	return fmt.Sprintf("%s: %d schedule changes (%s)", date, total, strings.Join(parts, ", "))
}
