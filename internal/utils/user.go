package utils

import (
	"time"
)

// KarmaLevel maps a karma score onto the badge shown beside the user's name.
func KarmaLevel(karma int) string {
	switch {
	case karma >= 1000:
		return "head-chef"
	case karma >= 201:
		return "sous-chef"
	case karma >= 51:
		return "line-cook"
	case karma >= 11:
		return "prep-cook"
	default:
		return "seedling"
	}
}

// DaysSinceJoined counts whole days since createdAt.
func DaysSinceJoined(createdAt time.Time, now time.Time) int {
	return int(now.Sub(createdAt).Hours() / 24)
}
