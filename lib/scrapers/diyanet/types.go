package diyanet

import (
	"fmt"
	"strconv"
	"strings"
)

// Country is the root of the geographic hierarchy. Name is stored
// case-folded, the way the remote option list is recorded.
type Country struct {
	Name string
	Idx  int
}

// State belongs to exactly one Country. The back-reference is a plain
// value copy, never mutated.
type State struct {
	Name    string
	Idx     int
	Country Country
}

// Region belongs to exactly one State. Url is the endpoint of the
// region's own prayer-time page.
type Region struct {
	Name    string
	Idx     int
	Url     string
	Country Country
	State   State
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses an "HH:MM" token into a Clock, rejecting anything
// outside 00:00-23:59.
func ParseClock(value string) (Clock, error) {
	hour, minute, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Clock{}, TimeFormatError{Value: value}
	}
	h, err := strconv.Atoi(hour)
	if err != nil {
		return Clock{}, TimeFormatError{Value: value}
	}
	m, err := strconv.Atoi(minute)
	if err != nil {
		return Clock{}, TimeFormatError{Value: value}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, TimeFormatError{Value: value}
	}
	return Clock{Hour: h, Minute: m}, nil
}

// PrayerTimes is one day's schedule for a region.
type PrayerTimes struct {
	Fajr    Clock
	Sunrise Clock
	Dhuhr   Clock
	Asr     Clock
	Maghrib Clock
	Isha    Clock
}
