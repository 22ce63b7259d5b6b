// Package timeslot converts between absolute calendar time and integer slot
// indices on a working-hours calendar. A working day holds 20 thirty-minute
// slots starting at 09:00; slots 8 and 9 cover the 13:00-14:00 lunch break.
package timeslot

import (
	"math"
	"time"
)

const (
	// SlotsPerDay is the number of 30-minute slots in one working day.
	SlotsPerDay = 20
	// SlotMinutes is the length of one slot.
	SlotMinutes = 30
	// DayStartHour is the wall-clock hour of slot 0 within a day.
	DayStartHour = 9

	// Lunch occupies slots 8 and 9 within a day (13:00-14:00).
	lunchFirstSlot = 8
	lunchLastSlot  = 9
)

// WorkingDay returns the 0-based working day index of a slot.
func WorkingDay(slot int) int {
	return slot / SlotsPerDay
}

// SlotInDay returns the slot position within its working day (0-19).
func SlotInDay(slot int) int {
	return slot % SlotsPerDay
}

// ToTime maps a slot index to an absolute time on the base date's calendar.
// The day offset is a raw calendar-day addition: weekends are not skipped
// here, they are excluded by IsWeekendSlot instead.
func ToTime(slot int, baseDate time.Time) time.Time {
	day := WorkingDay(slot)
	inDay := SlotInDay(slot)
	date := baseDate.AddDate(0, 0, day)
	return time.Date(date.Year(), date.Month(), date.Day(),
		DayStartHour, 0, 0, 0, location(baseDate)).
		Add(time.Duration(inDay*SlotMinutes) * time.Minute)
}

// FromTime maps an absolute time back to a slot index. The day difference is
// a raw calendar-day difference, deliberately not working-day-aware: pinned
// tasks carry real calendar dates and this inverse must reproduce the slot
// that ToTime produces for the same date. Results are clamped to >= 0.
func FromTime(t time.Time, baseDate time.Time) int {
	days := calendarDays(baseDate, t)
	minutes := (t.Hour()-DayStartHour)*60 + t.Minute()
	inDay := int(math.Round(float64(minutes) / SlotMinutes))
	slot := days*SlotsPerDay + inDay
	if slot < 0 {
		return 0
	}
	return slot
}

// SpansLunch reports whether a task interval touches the lunch slots.
func SpansLunch(startSlot, durationSlots int) bool {
	start := SlotInDay(startSlot)
	end := start + durationSlots - 1
	return start <= lunchLastSlot && end >= lunchFirstSlot
}

// IsWeekendSlot reports whether the slot falls on day 5 or 6 of a repeating
// 7-day cycle anchored at the base date. This matches real weekends only when
// the base date is a Monday; the simplification is intentional and mirrors
// the behaviour the rest of the scoring depends on.
func IsWeekendSlot(slot int) bool {
	return WorkingDay(slot)%7 >= 5
}

func calendarDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func location(t time.Time) *time.Location {
	if loc := t.Location(); loc != nil {
		return loc
	}
	return time.UTC
}
