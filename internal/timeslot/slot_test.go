package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC) // a Monday

func TestToTimeFirstSlot(t *testing.T) {
	got := ToTime(0, base)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), got)
}

func TestToTimeCrossesDays(t *testing.T) {
	// Slot 20 is the first slot of the next calendar day.
	got := ToTime(SlotsPerDay, base)
	assert.Equal(t, time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC), got)

	// Slot 3 of day 2 is 10:30 two days out.
	got = ToTime(2*SlotsPerDay+3, base)
	assert.Equal(t, time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC), got)
}

func TestFromTimeInvertsToTime(t *testing.T) {
	for _, slot := range []int{0, 1, 7, 8, 9, 19, 20, 45, 139} {
		assert.Equal(t, slot, FromTime(ToTime(slot, base), base), "slot %d", slot)
	}
}

func TestFromTimeClampsBeforeBase(t *testing.T) {
	early := base.AddDate(0, 0, -3)
	assert.Equal(t, 0, FromTime(early, base))
}

func TestFromTimeRoundsPartialSlots(t *testing.T) {
	at := time.Date(2026, time.March, 2, 9, 14, 0, 0, time.UTC)
	assert.Equal(t, 0, FromTime(at, base))
	at = time.Date(2026, time.March, 2, 9, 16, 0, 0, time.UTC)
	assert.Equal(t, 1, FromTime(at, base))
}

func TestWorkingDayAndSlotInDay(t *testing.T) {
	require.Equal(t, 0, WorkingDay(19))
	require.Equal(t, 1, WorkingDay(20))
	assert.Equal(t, 19, SlotInDay(19))
	assert.Equal(t, 0, SlotInDay(20))
}

func TestSpansLunch(t *testing.T) {
	// One-slot tasks outside 8..9 never span lunch.
	assert.False(t, SpansLunch(7, 1))
	assert.False(t, SpansLunch(10, 1))

	// Tasks touching either lunch slot do.
	assert.True(t, SpansLunch(8, 1))
	assert.True(t, SpansLunch(9, 1))
	assert.True(t, SpansLunch(6, 3))  // 6,7,8
	assert.True(t, SpansLunch(0, 20)) // whole day

	// Lunch check only looks at a task's first day.
	assert.True(t, SpansLunch(5, 4)) // 5..8
	assert.False(t, SpansLunch(10, 10))
}

func TestIsWeekendSlot(t *testing.T) {
	// Days 0-4 are weekdays, 5 and 6 the weekend, repeating every 7 days.
	assert.False(t, IsWeekendSlot(0))
	assert.False(t, IsWeekendSlot(4*SlotsPerDay))
	assert.True(t, IsWeekendSlot(5*SlotsPerDay))
	assert.True(t, IsWeekendSlot(6*SlotsPerDay+19))
	assert.False(t, IsWeekendSlot(7*SlotsPerDay))
	assert.True(t, IsWeekendSlot(12*SlotsPerDay))
}
