package diff

import "strconv"

const minutesPerDay = 24 * 60

// minutesOfDay parses HH:MM into minutes since midnight; -1 for absent/malformed
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

// circularClockDistance is the shortest distance in minutes between two
// clock times on a 24 hour wheel
func circularClockDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > minutesPerDay-d {
		d = minutesPerDay - d
	}
	return d
}

// circularTimeDistance is the |Δstart| + |Δend| distance used by the cost
// matrix in the greedy pairing step. Absent endpoints contribute zero
func circularTimeDistance(aStart, aEnd, bStart, bEnd string) int {
	as, ae := minutesOfDay(aStart), minutesOfDay(aEnd)
	bs, be := minutesOfDay(bStart), minutesOfDay(bEnd)

	d := 0
	if as >= 0 && bs >= 0 {
		d += circularClockDistance(as, bs)
	}
	if ae >= 0 && be >= 0 {
		d += circularClockDistance(ae, be)
	}
	return d
}
