package parsers

import (
	"regexp"
	"strconv"
	"time"
)

var growwDatePattern = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})\s(\d{1,2}):(\d{2})\s(AM|PM)`)

// ParseGrowwDate parses the Groww export timestamp format
// "DD-MM-YYYY H:MM AM/PM" into a UTC instant. The day and month positions are
// fixed by the pattern, so an ambiguous MM/DD reading can never occur. The
// constructed date is validated by extracting day/month/year back out:
// impossible dates such as 31-04 would otherwise roll over silently into the
// next month and are rejected instead.
func ParseGrowwDate(s string) (time.Time, bool) {
	m := growwDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	switch m[6] {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// Layouts accepted by the permissive default-template date policy.
var defaultDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// parseFlexibleDate tries the known layouts in order. The default template
// only requires a valid instant, nothing stricter.
func parseFlexibleDate(s string) (time.Time, bool) {
	for _, layout := range defaultDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
