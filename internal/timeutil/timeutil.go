// Package timeutil provides the calendar arithmetic used by booking forms
// and watch windows. All functions are pure and keep the input's location.
package timeutil

import "time"

// RoundUpToIncrement rounds t up to the next multiple of incrementMinutes,
// measured in minutes since the Unix epoch. Already-aligned instants are
// returned unchanged. A non-positive increment is a no-op.
func RoundUpToIncrement(t time.Time, incrementMinutes int) time.Time {
	if incrementMinutes <= 0 {
		return t
	}

	step := int64(incrementMinutes) * 60 * 1000
	ms := t.UnixMilli()
	rem := ms % step
	switch {
	case rem == 0:
		return t
	case rem < 0:
		ms -= rem
	default:
		ms += step - rem
	}
	return time.UnixMilli(ms).In(t.Location())
}

// AddMinutes shifts t by the given number of minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// AddDays shifts t by whole calendar days, honoring DST transitions.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
