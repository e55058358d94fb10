package dashboard

import (
	"fmt"
	"math"
	"time"
)

// TruncateLimit is the listing width for message and response text.
const TruncateLimit = 80

// TimestampFormat renders trace times in the listing, always in UTC.
const TimestampFormat = "Jan 2 15:04"

// FormatLatency renders milliseconds as "812ms" below a second and "1.3s" from there on.
func FormatLatency(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", int64(math.Round(ms)))
	}
	return fmt.Sprintf("%.1fs", ms/1000)
}

// Truncate cuts s to max runes and appends an ellipsis when it was longer.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// FormatPercentage renders a share with one decimal, dropping a trailing ".0".
func FormatPercentage(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}
