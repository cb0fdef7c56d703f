package library

import "fmt"

// FormatDuration renders whole seconds as M:SS for display. Unknown durations
// render as an empty string rather than "0:00".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}

	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
