package utils

import (
	"fmt"
	"time"
)

// MomentAgo is shown for records whose server timestamp has not been committed yet.
const MomentAgo = "A moment ago"

// TimestampLayout is the human readable rendering used on cards and by date search.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// FormatTimestamp renders t in loc, or MomentAgo when t is nil.
func FormatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil {
		return MomentAgo
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}

func TimeAgo(t *time.Time) string {
	if t == nil {
		return MomentAgo
	}
	seconds := int(time.Since(*t).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds < 2592000:
		return fmt.Sprintf("%dd ago", seconds/86400)
	case seconds < 31536000:
		return fmt.Sprintf("%dmo ago", seconds/2592000)
	}
	return fmt.Sprintf("%dy ago", seconds/31536000)
}
