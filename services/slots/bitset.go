// Package slots encodes one provider-day of availability as a bitmask.
//
// Bit i (least significant first) stands for the 30-minute slot that starts
// i*30 minutes after the provider's working window opens. A set bit is free,
// a cleared bit is booked. Bits beyond the window are always zero, so range
// checks that run past the end of the day fail naturally.
package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SlotWidth is the fixed width of a slot.
	SlotWidth = 30 * time.Minute
	// SlotMinutes is SlotWidth in minutes.
	SlotMinutes = 30
	// MaxSlots bounds a window to one full day, which keeps masks inside int64.
	MaxSlots = 48
)

// Bitmask is persisted as a plain BSON int64 so the store can test it with $bitsAllSet.
type Bitmask int64

// FullMask returns a mask with the first n slots free.
func FullMask(n int) Bitmask {
	if n <= 0 {
		return 0
	}
	if n > MaxSlots {
		n = MaxSlots
	}
	return Bitmask(1)<<uint(n) - 1
}

// RangeMask returns a mask with bits [start, start+count) set.
// Out of range input yields 0.
func RangeMask(start, count int) Bitmask {
	if start < 0 || count < 1 || start+count > MaxSlots {
		return 0
	}
	return FullMask(count) << uint(start)
}

// HasConsecutiveFree reports whether count slots starting at start are all free.
func HasConsecutiveFree(mask Bitmask, start, count int) bool {
	if start < 0 || count < 1 || start+count > MaxSlots {
		return false
	}
	for i := start; i < start+count; i++ {
		if mask&(1<<uint(i)) == 0 {
			return false
		}
	}
	return true
}

// MarkBooked clears the range. Callers check HasConsecutiveFree first.
func MarkBooked(mask Bitmask, start, count int) Bitmask {
	return mask &^ RangeMask(start, count)
}

// Restore sets the range again. Restoring a free range is a no-op.
func Restore(mask Bitmask, start, count int) Bitmask {
	return mask | RangeMask(start, count)
}

// FreeSlots lists the indices of free slots, earliest first.
func FreeSlots(mask Bitmask) []int {
	var out []int
	for i := 0; i < MaxSlots; i++ {
		if mask&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// FreeStartTimes renders the free slots of a window opening at origin as "HH:MM" start times.
func FreeStartTimes(mask Bitmask, origin string) ([]string, error) {
	o, err := ParseClock(origin)
	if err != nil {
		return nil, err
	}
	free := FreeSlots(mask)
	out := make([]string, 0, len(free))
	for _, i := range free {
		out = append(out, FormatClock(o+i*SlotMinutes))
	}
	return out, nil
}

// String renders the mask as the base-10 integer stored in the database.
func (m Bitmask) String() string {
	return strconv.FormatInt(int64(m), 10)
}

// SlotsForDuration converts minutes into the number of slots needed, rounding up.
func SlotsForDuration(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + SlotMinutes - 1) / SlotMinutes
}

// ParseClock parses "H:MM" or "HH:MM" into minutes after midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("invalid time %q", clock)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IndexForHour is the slot offset of clock in a day that opens at dayStartHour.
func IndexForHour(clock string, dayStartHour int) (int, error) {
	return indexFrom(clock, dayStartHour*60)
}

// IndexFor is the slot offset of clock in a window that opens at origin.
func IndexFor(clock, origin string) (int, error) {
	o, err := ParseClock(origin)
	if err != nil {
		return 0, err
	}
	return indexFrom(clock, o)
}

func indexFrom(clock string, originMinutes int) (int, error) {
	t, err := ParseClock(clock)
	if err != nil {
		return 0, err
	}
	offset := t - originMinutes
	if offset%SlotMinutes != 0 {
		return 0, fmt.Errorf("time %q is not on a %d-minute boundary of the window", clock, SlotMinutes)
	}
	return offset / SlotMinutes, nil
}

// SlotCount is the number of whole slots between start and end ("HH:MM").
func SlotCount(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("end %q must be after start %q", end, start)
	}
	if s%SlotMinutes != 0 || e%SlotMinutes != 0 {
		return 0, fmt.Errorf("window %s-%s must start and end on the hour or half hour", start, end)
	}
	n := (e - s) / SlotMinutes
	if n > MaxSlots {
		return 0, fmt.Errorf("window %s-%s exceeds %d slots", start, end, MaxSlots)
	}
	return n, nil
}

// WindowMask is the all-free mask for a working window.
func WindowMask(start, end string) (Bitmask, error) {
	n, err := SlotCount(start, end)
	if err != nil {
		return 0, err
	}
	return FullMask(n), nil
}
