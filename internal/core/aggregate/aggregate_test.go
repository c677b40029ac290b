package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swearjar/internal/core/canon"
)

func obs(start, end, loc, cust string, idx, pos int) Observation {
	return Observation{
		Shift: canon.Shift{
			Start:               start,
			End:                 end,
			LocationFingerprint: loc,
			CustomerFingerprint: cust,
			CustomerName:        "Acme",
			ShiftType:           canon.ShiftTypeOffice,
		},
		ScreenshotIdx: idx,
		Position:      pos,
	}
}

func TestAggregate_MergesWithinTolerance(t *testing.T) {
	in := []Observation{
		obs("10:00", "14:00", "loc1", "cust1", 0, 0),
		obs("10:02", "14:05", "loc1", "cust1", 1, 0),
	}
	out := Aggregate(in, DefaultTimeToleranceMinutes)
	require.Len(t, out, 1)
	require.Equal(t, 2, out[0].SourceCount)
	require.Equal(t, "10:00", out[0].Start)
	require.Equal(t, "14:05", out[0].End)
}

func TestAggregate_KeepsDistinctShiftsAtSameLocation(t *testing.T) {
	in := []Observation{
		obs("08:00", "09:00", "loc1", "cust1", 0, 0),
		obs("18:00", "19:00", "loc1", "cust1", 0, 1),
	}
	out := Aggregate(in, DefaultTimeToleranceMinutes)
	require.Len(t, out, 2)
}

func TestAggregate_ContainmentMerges(t *testing.T) {
	in := []Observation{
		obs("09:00", "17:00", "loc1", "cust1", 0, 0),
		obs("12:00", "13:00", "loc1", "cust1", 1, 0),
	}
	out := Aggregate(in, DefaultTimeToleranceMinutes)
	require.Len(t, out, 1)
	require.Equal(t, "09:00", out[0].Start)
	require.Equal(t, "17:00", out[0].End)
}

func TestAggregate_SingleObservationIsIdentity(t *testing.T) {
	in := []Observation{obs("10:00", "14:00", "loc1", "cust1", 0, 0)}
	out := Aggregate(in, DefaultTimeToleranceMinutes)
	require.Len(t, out, 1)
	require.Equal(t, 1, out[0].SourceCount)
	require.Equal(t, "10:00", out[0].Start)
	require.Equal(t, "14:00", out[0].End)
}

func TestAggregate_LongestFieldWins(t *testing.T) {
	a := obs("10:00", "14:00", "loc1", "cust1", 0, 0)
	a.Shift.Street = "Main"
	b := obs("10:01", "14:01", "loc1", "cust1", 1, 0)
	b.Shift.Street = "Main Street"

	out := Aggregate([]Observation{a, b}, DefaultTimeToleranceMinutes)
	require.Len(t, out, 1)
	require.Equal(t, "Main Street", out[0].Street)
}

func TestAggregate_MergeIsTransitiveAcrossAChain(t *testing.T) {
	// a-b within tolerance, b-c within tolerance, a-c is not directly,
	// but the whole chain must merge into one component
	in := []Observation{
		obs("10:00", "14:00", "loc1", "cust1", 0, 0),
		obs("10:04", "14:04", "loc1", "cust1", 1, 0),
		obs("10:08", "14:08", "loc1", "cust1", 2, 0),
	}
	out := Aggregate(in, DefaultTimeToleranceMinutes)
	require.Len(t, out, 1)
	require.Equal(t, 3, out[0].SourceCount)
}

func TestAggregate_IdempotentUpToSortOrder(t *testing.T) {
	in := []Observation{obs("10:00", "14:00", "loc1", "cust1", 0, 0)}
	once := Aggregate(in, DefaultTimeToleranceMinutes)

	reAggregated := Aggregate([]Observation{{Shift: once[0].Shift, ScreenshotIdx: 0, Position: 0}}, DefaultTimeToleranceMinutes)
	require.Equal(t, once, reAggregated)
}
