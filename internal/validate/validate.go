package validate

import (
	"regexp"
	"strings"
)

var (
	// Accepts international format (+15551234567) or US dashed format (555-123-4567).
	phoneRe = regexp.MustCompile(`^(\+\d{10,15}|\d{3}-\d{3}-\d{4})$`)

	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func Phone(raw string) bool {
	return phoneRe.MatchString(strings.TrimSpace(raw))
}

func Email(raw string) bool {
	s := strings.TrimSpace(raw)
	if len(s) > 254 {
		return false
	}
	return emailRe.MatchString(s)
}
