package internal

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// DisplayTimeFormat is the standard time format used across the application
	DisplayTimeFormat = "2006-01-02 15:04:05"
	// LogTimeFormat is the short time format used in console status lines
	LogTimeFormat = "15:04:05"
)

// FormatTime formats t in local time with DisplayTimeFormat.
func FormatTime(t time.Time) string {
	return t.Local().Format(DisplayTimeFormat)
}

// FormatClock formats t in local time with LogTimeFormat.
func FormatClock(t time.Time) string {
	return t.Local().Format(LogTimeFormat)
}

// FormatExpiry describes when c expires relative to now, e.g.
// "in 42 minutes" or "expired 3 minutes ago". Access keys never expire.
func FormatExpiry(c *Credentials, now time.Time) string {
	if c == nil || c.Expiration == nil {
		return "never"
	}
	if c.Expired(now) {
		return "expired " + humanize.RelTime(*c.Expiration, now, "ago", "from now")
	}
	return "in " + strings.TrimSpace(humanize.RelTime(now, *c.Expiration, "", ""))
}
