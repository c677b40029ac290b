package aggregate

import (
	"math"
	"strconv"
)

// minutesOfDay parses an HH:MM string into minutes since midnight.
// An empty string (absent endpoint) maps to -1, a sentinel the caller
// must check for before using circular math
func minutesOfDay(hhmm string) int {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return -1
	}
	h, err1 := strconv.Atoi(hhmm[0:2])
	m, err2 := strconv.Atoi(hhmm[3:5])
	if err1 != nil || err2 != nil {
		return -1
	}
	return h*60 + m
}

const minutesPerDay = 24 * 60

// circularDistance returns the shortest distance in minutes between two
// clock times on a 24 hour wheel, e.g. 23:50 and 00:10 are 20 minutes apart
func circularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > minutesPerDay-d {
		d = minutesPerDay - d
	}
	return d
}

// timeDistance is the circular-clock-aware |Δstart| + |Δend| distance between
// two time ranges. Absent endpoints (-1) contribute zero
func timeDistance(aStart, aEnd, bStart, bEnd int) int {
	d := 0
	if aStart >= 0 && bStart >= 0 {
		d += circularDistance(aStart, bStart)
	}
	if aEnd >= 0 && bEnd >= 0 {
		d += circularDistance(aEnd, bEnd)
	}
	return d
}

// circularCentroid returns the clock-circle centroid minute of a set of
// times, used as the reference point for representative-start/end selection.
// Averaging via unit vectors on the circle avoids the wraparound bias a
// naive arithmetic mean would have near midnight
func circularCentroid(times []int) int {
	if len(times) == 0 {
		return 0
	}
	var sinSum, cosSum float64
	for _, t := range times {
		angle := 2 * math.Pi * float64(t) / float64(minutesPerDay)
		sinSum += math.Sin(angle)
		cosSum += math.Cos(angle)
	}
	angle := math.Atan2(sinSum, cosSum)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	minute := int(angle/(2*math.Pi)*float64(minutesPerDay) + 0.5)
	return minute % minutesPerDay
}

// nearestToCentroid picks the index into times whose value minimizes
// the shortest circular distance to the component's centroid, breaking ties
// by the lowest index (i.e. earliest (screenshot_index, position))
func nearestToCentroid(times []int) int {
	if len(times) == 0 {
		return -1
	}
	centroid := circularCentroid(times)
	best := 0
	bestDist := circularDistance(times[0], centroid)
	for i := 1; i < len(times); i++ {
		if times[i] < 0 {
			continue
		}
		d := circularDistance(times[i], centroid)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
