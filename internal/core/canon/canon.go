// Package canon turns aggregated shifts into a deterministic canonical
// payload and its content hash. It is pure, total, and deterministic:
// the only failures are malformed input (bad time strings, bad dates).
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	perr "swearjar/internal/platform/errors"
)

// ShiftType is the closed set of shift classifications
type ShiftType string

const (
	ShiftTypeSchool    ShiftType = "SCHOOL"
	ShiftTypeOffice    ShiftType = "OFFICE"
	ShiftTypeHomeVisit ShiftType = "HOME_VISIT"
	ShiftTypeUnknown   ShiftType = "UNKNOWN"
)

// shiftTypeRank gives the enum order used for tie-breaks: SCHOOL < OFFICE < HOME_VISIT < UNKNOWN
var shiftTypeRank = map[ShiftType]int{
	ShiftTypeSchool:    0,
	ShiftTypeOffice:    1,
	ShiftTypeHomeVisit: 2,
	ShiftTypeUnknown:   3,
}

// Rank returns the tie-break order for a shift type, unknown values sort last
func (s ShiftType) Rank() int {
	if r, ok := shiftTypeRank[s]; ok {
		return r
	}
	return len(shiftTypeRank)
}

// Shift is the canonical, identity-bearing representation of one work shift.
// Field order here mirrors the fixed JSON field order required by the payload contract
type Shift struct {
	Start               string    `json:"start"`
	End                 string    `json:"end"`
	CustomerName        string    `json:"customer_name"`
	Street              string    `json:"street"`
	StreetNumber        string    `json:"street_number"`
	PostalCode          string    `json:"postal_code"`
	PostalArea          string    `json:"postal_area"`
	City                string    `json:"city"`
	ShiftType           ShiftType `json:"shift_type"`
	LocationFingerprint string    `json:"location_fingerprint"`
	CustomerFingerprint string    `json:"customer_fingerprint"`
}

// Payload is the day canonical payload: { schedule_date, shifts }
type Payload struct {
	ScheduleDate string
	Shifts       []Shift
}

var isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Canonicalize normalizes raw shift fields, orders the day deterministically,
// and computes the fixed-order JSON payload plus its SHA-256 hash.
// Fails with ErrorCodeCanonicalization when schedule_date isn't ISO, a time
// string is malformed, or both endpoints of a shift are empty.
func Canonicalize(scheduleDate string, shifts []Shift) (Payload, string, error) {
	if !isoDateRE.MatchString(scheduleDate) {
		return Payload{}, "", perr.Newf(perr.ErrorCodeCanonicalization, "invalid schedule_date %q: want YYYY-MM-DD", scheduleDate)
	}
	if _, err := time.Parse("2006-01-02", scheduleDate); err != nil {
		return Payload{}, "", perr.Wrapf(err, perr.ErrorCodeCanonicalization, "invalid schedule_date %q", scheduleDate)
	}

	normalized := make([]Shift, len(shifts))
	for i, s := range shifts {
		ns, err := normalizeShift(s)
		if err != nil {
			return Payload{}, "", perr.WithStage(perr.Wrapf(err, perr.ErrorCodeCanonicalization, "shift %d: %v", i, err), "canonicalize")
		}
		normalized[i] = ns
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return shiftLess(normalized[i], normalized[j])
	})

	payload := Payload{ScheduleDate: scheduleDate, Shifts: normalized}
	serialized := Serialize(payload)
	sum := sha256.Sum256(serialized)
	return payload, hex.EncodeToString(sum[:]), nil
}

func shiftLess(a, b Shift) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	if a.LocationFingerprint != b.LocationFingerprint {
		return a.LocationFingerprint < b.LocationFingerprint
	}
	return a.CustomerFingerprint < b.CustomerFingerprint
}

func normalizeShift(s Shift) (Shift, error) {
	start, err := normalizeTime(s.Start)
	if err != nil {
		return Shift{}, err
	}
	end, err := normalizeTime(s.End)
	if err != nil {
		return Shift{}, err
	}
	if start == "" && end == "" {
		return Shift{}, fmt.Errorf("shift has no start or end time")
	}

	return Shift{
		Start:               start,
		End:                 end,
		CustomerName:        collapseSpace(s.CustomerName),
		Street:              collapseSpace(s.Street),
		StreetNumber:        collapseSpace(s.StreetNumber),
		PostalCode:          collapseSpace(s.PostalCode),
		PostalArea:          collapseSpace(s.PostalArea),
		City:                collapseSpace(s.City),
		ShiftType:           normalizeShiftType(s.ShiftType),
		LocationFingerprint: s.LocationFingerprint,
		CustomerFingerprint: s.CustomerFingerprint,
	}, nil
}

func normalizeShiftType(t ShiftType) ShiftType {
	switch t {
	case ShiftTypeSchool, ShiftTypeOffice, ShiftTypeHomeVisit:
		return t
	default:
		return ShiftTypeUnknown
	}
}

var timeRE = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)

// normalizeTime accepts HH:MM or HH.MM and emits zero-padded 24h HH:MM.
// An empty string is a valid "absent" endpoint
func normalizeTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	m := timeRE.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("invalid time %q: want HH:MM or HH.MM", raw)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return "", fmt.Errorf("invalid time %q: out of range", raw)
	}
	return fmt.Sprintf("%02d:%02d", h, mm), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ShiftHash hashes one normalized shift's canonical JSON object, independent
// of the day payload it belongs to. Used by the event store to build the
// old_value_hash/new_value_hash dedupe key
func ShiftHash(s Shift) string {
	var b strings.Builder
	writeShiftJSON(&b, s)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// NullValueHash is the fixed sentinel hash standing in for an absent shift
// side (a shift_added has no old_value, a shift_removed has no new_value)
func NullValueHash() string {
	sum := sha256.Sum256([]byte("null"))
	return hex.EncodeToString(sum[:])
}

// Serialize renders the payload as UTF-8 JSON bytes with the fixed field
// order required by the payload_hash contract: no insignificant whitespace,
// schedule_date first, then shifts in their pre-sorted order, and absent
// fields encoded as null rather than omitted
func Serialize(p Payload) []byte {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(`"schedule_date":`)
	writeJSONString(&b, p.ScheduleDate)
	b.WriteString(`,"shifts":[`)
	for i, s := range p.Shifts {
		if i > 0 {
			b.WriteByte(',')
		}
		writeShiftJSON(&b, s)
	}
	b.WriteString(`]}`)
	return []byte(b.String())
}

func writeShiftJSON(b *strings.Builder, s Shift) {
	b.WriteByte('{')
	writeField(b, "start", s.Start, true)
	b.WriteByte(',')
	writeField(b, "end", s.End, true)
	b.WriteByte(',')
	writeField(b, "customer_name", s.CustomerName, true)
	b.WriteByte(',')
	writeField(b, "street", s.Street, true)
	b.WriteByte(',')
	writeField(b, "street_number", s.StreetNumber, true)
	b.WriteByte(',')
	writeField(b, "postal_code", s.PostalCode, true)
	b.WriteByte(',')
	writeField(b, "postal_area", s.PostalArea, true)
	b.WriteByte(',')
	writeField(b, "city", s.City, true)
	b.WriteByte(',')
	writeField(b, "shift_type", string(s.ShiftType), false)
	b.WriteByte(',')
	writeField(b, "location_fingerprint", s.LocationFingerprint, false)
	b.WriteByte(',')
	writeField(b, "customer_fingerprint", s.CustomerFingerprint, false)
	b.WriteByte('}')
}

// writeField writes "key":value, emitting JSON null for an empty string
// when nullable is true (used for start/end and the optional text fields,
// which may be legitimately absent)
func writeField(b *strings.Builder, key, value string, nullable bool) {
	b.WriteByte('"')
	b.WriteString(key)
	b.WriteString(`":`)
	if value == "" && nullable {
		b.WriteString("null")
		return
	}
	writeJSONString(b, value)
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
