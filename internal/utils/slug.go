package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSlugLen = 50

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify builds "<title-words>-<id>", or "post-<id>" when nothing survives.
func Slugify(title string, id uint) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return fmt.Sprintf("post-%d", id)
	}
	return fmt.Sprintf("%s-%d", s, id)
}
