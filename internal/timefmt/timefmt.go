// Package timefmt converts between the 12-hour display times shown in the
// dashboard, 24-hour "HH:mm" strings and ISO date-times.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	twelveHourRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])$`)
	twentyFourHourRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// To12Hour renders input as "h:mm AM/PM". It accepts a value that is already
// in 12-hour form, an ISO date-time (converted to local wall-clock time) or a
// 24-hour "HH:mm" string. Anything else yields "".
func To12Hour(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if m := twelveHourRe.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return ""
		}
		return fmt.Sprintf("%d:%s %s", hour, m[2], strings.ToUpper(m[3]))
	}

	if strings.Contains(input, "T") {
		for _, layout := range isoLayouts {
			t, err := time.Parse(layout, input)
			if err != nil {
				continue
			}
			return t.Local().Format("3:04 PM")
		}
		return ""
	}

	if m := twentyFourHourRe.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return ""
		}
		period := "AM"
		if hour >= 12 {
			period = "PM"
		}
		hour12 := hour % 12
		if hour12 == 0 {
			hour12 = 12
		}
		return fmt.Sprintf("%d:%s %s", hour12, m[2], period)
	}

	return ""
}

// To24Hour converts "h:mm AM/PM" into "HH:mm". Input that does not look like
// a 12-hour time is returned unchanged.
func To24Hour(display string) string {
	if display == "" {
		return ""
	}
	m := twelveHourRe.FindStringSubmatch(strings.TrimSpace(display))
	if m == nil {
		return display
	}
	hour, _ := strconv.Atoi(m[1])
	period := strings.ToUpper(m[3])
	if period == "PM" && hour < 12 {
		hour += 12
	}
	if period == "AM" && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%s", hour, m[2])
}

// TimeSlots lists every half-hour mark of a day, 12:00 AM through 11:30 PM.
func TimeSlots() []string {
	slots := make([]string, 0, 48)
	for minutes := 0; minutes < 24*60; minutes += 30 {
		hour := minutes / 60
		period := "AM"
		if hour >= 12 {
			period = "PM"
		}
		hour12 := hour % 12
		if hour12 == 0 {
			hour12 = 12
		}
		slots = append(slots, fmt.Sprintf("%d:%02d %s", hour12, minutes%60, period))
	}
	return slots
}

// IsSlot reports whether display is one of the values returned by TimeSlots.
func IsSlot(display string) bool {
	for _, slot := range TimeSlots() {
		if slot == display {
			return true
		}
	}
	return false
}

// FormatDate renders a stored date as "Jan 2, 2006".
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "N/A"
	}
	if day, ok := ParseDay(value); ok {
		return day.Format("Jan 2, 2006")
	}
	return value
}

// ParseDay returns the UTC calendar day of an ISO date-time or a bare
// "YYYY-MM-DD" date.
func ParseDay(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
