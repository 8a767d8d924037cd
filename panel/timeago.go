package panel

import (
	"fmt"
	"time"
)

// RelativeTime renders createdAt as seen at now. Anything a week or older gets a date.
func RelativeTime(now, createdAt time.Time) string {
	d := now.Sub(createdAt)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
	return createdAt.Local().Format("1/2/2006")
}
