package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// ConvertBytesToHumanReadable formats a byte count with binary units ("1.5 MiB").
// Negative values mean unknown.
func ConvertBytesToHumanReadable(n int64) string {
	if n < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(n))
}

// FormatRate formats a transfer rate from bytes and elapsed time
func FormatRate(bytes int64, elapsed time.Duration) string {
	if elapsed <= 0 || bytes <= 0 {
		return "0 B/s"
	}
	perSec := float64(bytes) / elapsed.Seconds()
	return humanize.IBytes(uint64(perSec)) + "/s"
}

// Ago renders a timestamp relative to now ("3 minutes ago")
func Ago(t time.Time) string {
	return humanize.Time(t)
}
