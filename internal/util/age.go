package util

import (
	"fmt"
	"time"
)

// FormatAge renders how long ago something happened: "just now", "5m ago",
// "3h ago" or "4d ago".
func FormatAge(elapsed time.Duration) string {
	if elapsed < time.Minute {
		return "just now"
	}

	minutes := int(elapsed.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}

	hours := int(elapsed.Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	return fmt.Sprintf("%dd ago", hours/24)
}
