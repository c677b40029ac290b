package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandInOCR_SplitsNonEmptyLines(t *testing.T) {
	image := []byte("10:00-14:00 | Acme | Main 12\n\n16:00-18:00 | Beta | Side 3\n")
	boxes, err := StandInOCR{}.Scan(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	require.Equal(t, "10:00-14:00 | Acme | Main 12", boxes[0].Text)
}

func TestStandInLayoutParser_DiscardsLinesWithoutTimeRange(t *testing.T) {
	boxes := []Box{
		{Text: "Schedule for today"},
		{Text: "10:00-14:00 | Acme | Main 12"},
	}
	entries := StandInLayoutParser{}.Parse(boxes)
	require.Len(t, entries, 1)
	require.Equal(t, "10:00", entries[0].Start)
	require.Equal(t, "14:00", entries[0].End)
	require.Equal(t, "Acme", entries[0].Title)
	require.Equal(t, "Main 12", entries[0].Address)
}

func TestStandInLayoutParser_NormalizesDotSeparatedTime(t *testing.T) {
	boxes := []Box{{Text: "8.30-12.45 | Beta | Side 3"}}
	entries := StandInLayoutParser{}.Parse(boxes)
	require.Len(t, entries, 1)
	require.Equal(t, "08:30", entries[0].Start)
	require.Equal(t, "12:45", entries[0].End)
}

func TestStandInNormalizer_SplitsStreetNumberAndComputesFingerprints(t *testing.T) {
	entries := []Entry{{Start: "10:00", End: "14:00", Title: "Acme", Address: "Main 12"}}
	shifts, err := StandInNormalizer{}.Normalize(entries)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.Equal(t, "Main", shifts[0].Street)
	require.Equal(t, "12", shifts[0].StreetNumber)
	require.NotEmpty(t, shifts[0].LocationFingerprint)
	require.NotEmpty(t, shifts[0].CustomerFingerprint)
}

func TestStandInNormalizer_AddressWithoutNumberKeptWhole(t *testing.T) {
	entries := []Entry{{Start: "10:00", End: "14:00", Title: "Acme", Address: "Main Street"}}
	shifts, err := StandInNormalizer{}.Normalize(entries)
	require.NoError(t, err)
	require.Equal(t, "Main Street", shifts[0].Street)
	require.Empty(t, shifts[0].StreetNumber)
}

func TestStandInNormalizer_RejectsEntryWithNoTimeRange(t *testing.T) {
	entries := []Entry{{Title: "Acme", Address: "Main 12"}}
	_, err := StandInNormalizer{}.Normalize(entries)
	require.Error(t, err)
}

func TestStandInNormalizer_SameAddressProducesSameFingerprint(t *testing.T) {
	a := []Entry{{Start: "10:00", End: "14:00", Title: "Acme", Address: "Main 12"}}
	b := []Entry{{Start: "16:00", End: "18:00", Title: "Acme", Address: "Main 12"}}
	sa, err := StandInNormalizer{}.Normalize(a)
	require.NoError(t, err)
	sb, err := StandInNormalizer{}.Normalize(b)
	require.NoError(t, err)
	require.Equal(t, sa[0].LocationFingerprint, sb[0].LocationFingerprint)
}

func TestExtractScheduleDate_FindsEmbeddedToken(t *testing.T) {
	boxes := []Box{
		{Text: "Schedule 2026-01-05"},
		{Text: "10:00-14:00 | Acme | Main 12"},
	}
	date, ok := ExtractScheduleDate(boxes)
	require.True(t, ok)
	require.Equal(t, "2026-01-05", date)
}

func TestExtractScheduleDate_NoTokenPresent(t *testing.T) {
	boxes := []Box{{Text: "10:00-14:00 | Acme | Main 12"}}
	_, ok := ExtractScheduleDate(boxes)
	require.False(t, ok)
}

func TestStandInBlobStore_FetchMissingKeyReturnsExternalError(t *testing.T) {
	store := StandInBlobStore{Blobs: map[string][]byte{"a": []byte("x")}}
	b, err := store.Fetch(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), b)

	_, err = store.Fetch(context.Background(), "missing")
	require.Error(t, err)
}
