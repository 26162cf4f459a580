package types

import (
	"fmt"
	"strconv"
)

// FormatDuration renders seconds as HH:MM:SS, or N/A when unknown
func FormatDuration(seconds *int) string {
	if seconds == nil {
		return "N/A"
	}
	s := *seconds
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// FormatFileSize renders a byte count the way recordings are listed (2.1 MB)
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatTimestamp renders a timestamp for tables, or N/A when absent
func FormatTimestamp(t *Timestamp) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
