package format

import (
	"io/fs"
	"time"

	gounits "github.com/docker/go-units"
)

const (
	// FileUserReadWrite is for files only the owner may read, such as log files and reports (rw-------)
	FileUserReadWrite fs.FileMode = 0600
)

// TimestampLayout is used when printing event timestamps and scan windows.
const TimestampLayout = "2006-01-02 15:04:05"

// HumanDuration renders a duration such as a look-back window, e.g. "About an hour".
func HumanDuration(d time.Duration) string {
	return gounits.HumanDuration(d)
}

// FormatMillis converts a CloudWatch epoch milliseconds value to UTC time.
func FormatMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ToMillis converts t to epoch milliseconds as expected by the CloudWatch Logs API.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// Window renders a time range in UTC.
func Window(start, end time.Time) string {
	return start.UTC().Format(TimestampLayout) + " to " + end.UTC().Format(TimestampLayout)
}
