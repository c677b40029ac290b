// Package vision declares the pure-function collaborator contracts the
// worker consumes but does not implement: OCR, layout parsing, and semantic
// normalization. Production implementations live outside this repository;
// the stand-ins here exist to keep the pipeline runnable end to end (used
// by cmd/scheduleworker-replay and by service-level tests) without pulling
// in a real OCR engine.
package vision

import (
	"context"
	"regexp"
	"strings"

	"swearjar/internal/core/canon"
	"swearjar/internal/core/fingerprint"
	perr "swearjar/internal/platform/errors"
)

// Box is one recognized text region: geometry-only output of the OCR engine
type Box struct {
	Text       string
	X, Y, W, H int
	Confidence float64
}

// OCR turns raw image bytes into text boxes with no filtering or grouping
type OCR interface {
	Scan(ctx context.Context, image []byte) ([]Box, error)
}

// Entry is one schedule line recovered from geometry-only grouping of boxes
type Entry struct {
	Start, End      string
	Title, Location string
	Address         string
}

// LayoutParser groups boxes into entries, discarding top-chrome cards with
// no time line. Deterministic, geometry-only
type LayoutParser interface {
	Parse(boxes []Box) []Entry
}

// Normalizer turns layout entries into canonical shifts: address
// decomposition, company-noise removal, OCR-confusion folding, and
// fingerprint computation
type Normalizer interface {
	Normalize(entries []Entry) ([]canon.Shift, error)
}

// StandInOCR is a deterministic stand-in OCR used by offline tooling and
// tests; it does not run any real recognition, it just hands back boxes
// that were encoded into the image bytes by a fixture writer upstream
// (see cmd/scheduleworker-replay), one box per newline-separated line
type StandInOCR struct{}

// Scan implements OCR by splitting the fixture "image" into one box per line
func (StandInOCR) Scan(_ context.Context, image []byte) ([]Box, error) {
	lines := strings.Split(string(image), "\n")
	boxes := make([]Box, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		boxes = append(boxes, Box{Text: line, Y: i, Confidence: 1})
	}
	return boxes, nil
}

// StandInLayoutParser recognizes lines of the fixture form
// "HH:MM-HH:MM | Title | Address" and discards anything without a time range
type StandInLayoutParser struct{}

var entryLineRE = regexp.MustCompile(`^(\d{1,2}[:.]\d{2})\s*-\s*(\d{1,2}[:.]\d{2})\s*\|\s*([^|]*)\|\s*(.*)$`)

// Parse implements LayoutParser over the fixture line format
func (StandInLayoutParser) Parse(boxes []Box) []Entry {
	var out []Entry
	for _, b := range boxes {
		m := entryLineRE.FindStringSubmatch(b.Text)
		if m == nil {
			continue // top-chrome or unparsable card, discarded
		}
		out = append(out, Entry{
			Start:   normalizeTime(m[1]),
			End:     normalizeTime(m[2]),
			Title:   strings.TrimSpace(m[3]),
			Address: strings.TrimSpace(m[4]),
		})
	}
	return out
}

// normalizeTime maps an HH:MM or HH.MM time token to zero-padded HH:MM,
// the only form the rest of the pipeline (aggregate.minutesOfDay and
// everything downstream of it) accepts
func normalizeTime(t string) string {
	t = strings.Replace(t, ".", ":", 1)
	if i := strings.IndexByte(t, ':'); i == 1 {
		t = "0" + t
	}
	return t
}

// BlobStore fetches the raw bytes for an image's blob key. Production
// implementations talk to object storage; this worker only ever reads,
// never writes, a blob
type BlobStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// StandInBlobStore serves fixture image bytes from an in-memory map keyed
// by blob key, used by offline replay and tests in place of a real object
// storage client
type StandInBlobStore struct {
	Blobs map[string][]byte
}

// Fetch implements BlobStore over the fixture map
func (s StandInBlobStore) Fetch(_ context.Context, key string) ([]byte, error) {
	b, ok := s.Blobs[key]
	if !ok {
		return nil, perr.Newf(perr.ErrorCodeExternal, "blob store: no fixture for key %q", key)
	}
	return b, nil
}

// StandInNormalizer performs a simplified version of address decomposition
// and identity fingerprinting: it treats the Title as the customer name and
// splits a trailing street number off the whole Address. It does not split
// on commas, and postal code, postal area and city are left empty
type StandInNormalizer struct{}

var streetNumberRE = regexp.MustCompile(`^(.*?)\s+(\d+[A-Za-z]?)$`)

// Normalize implements Normalizer over the fixture entry format
func (StandInNormalizer) Normalize(entries []Entry) ([]canon.Shift, error) {
	out := make([]canon.Shift, 0, len(entries))
	for i, e := range entries {
		if e.Start == "" && e.End == "" {
			return nil, perr.Newf(perr.ErrorCodeSchemaContract, "entry %d has no time range", i)
		}

		street, streetNumber := splitStreetNumber(e.Address)
		shift := canon.Shift{
			Start:        e.Start,
			End:          e.End,
			CustomerName: e.Title,
			Street:       street,
			StreetNumber: streetNumber,
			ShiftType:    canon.ShiftTypeUnknown,
		}
		shift.LocationFingerprint = fingerprint.Location(shift.Street, shift.StreetNumber, shift.PostalArea, shift.City)
		shift.CustomerFingerprint = fingerprint.Customer(shift.CustomerName)
		out = append(out, shift)
	}
	return out, nil
}

func splitStreetNumber(address string) (street, number string) {
	address = strings.TrimSpace(address)
	if m := streetNumberRE.FindStringSubmatch(address); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return address, ""
}

// dateTokenRE matches an embedded ISO date token (YYYY-MM-DD) anywhere in a
// box's text, e.g. a calendar header card that reads "Schedule 2026-01-05"
var dateTokenRE = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// ExtractScheduleDate recovers the schedule date a capture session covers
// from the OCR'd content of its own images, never from filenames or upload
// timestamps. It scans every box for the first embedded date token and
// returns ok=false when none is present, which callers must treat as a
// schema-contract failure rather than falling back to any other source
func ExtractScheduleDate(boxes []Box) (string, bool) {
	for _, b := range boxes {
		if m := dateTokenRE.FindStringSubmatch(b.Text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
