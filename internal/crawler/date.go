package crawler

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var digitRun = regexp.MustCompile(`\d+`)

// ResolveDate turns posting-age text such as "3 days ago" or "an hour ago"
// into a calendar date relative to today. It returns nil when the text is
// empty or carries no number.
func ResolveDate(raw string, today time.Time) *time.Time {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	// covers "hour" and "hours"
	if strings.Contains(strings.ToLower(text), "hour") {
		return &day
	}

	digits := digitRun.FindString(text)
	if digits == "" {
		return nil
	}
	days, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}

	posted := day.AddDate(0, 0, -days)
	return &posted
}
