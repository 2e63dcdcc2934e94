// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"
	"time"
)

// RelativeTime formats t relative to now: "Just now", "5m ago",
// "3h ago", "Yesterday", "4 days ago", then absolute "Jan 02, 2006".
func RelativeTime(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	days := int(diff.Hours()) / 24
	if days > 0 {
		switch {
		case days == 1:
			return "Yesterday"
		case days < 7:
			return strconv.Itoa(days) + " days ago"
		default:
			return t.Format("Jan 02, 2006")
		}
	}

	if hours := int(diff.Hours()); hours > 0 {
		return strconv.Itoa(hours) + "h ago"
	}
	if mins := int(diff.Minutes()); mins > 0 {
		return strconv.Itoa(mins) + "m ago"
	}
	return "Just now"
}
