package xmldict

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the controller's timestamp wire format, a 12-hour clock
// like "2021/03/05 09:15:00 AM".
const TimeLayout = "2006/01/02 03:04:05 PM"

// ParseTime parses a controller timestamp. The controller renders a
// single-digit hour with a double space instead of a leading zero; that
// quirk is repaired before parsing.
func ParseTime(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, "  ", " 0")
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatTime renders a timestamp in the wire format, always zero-padded.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
