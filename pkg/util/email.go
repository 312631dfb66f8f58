package util

import (
	"regexp"
	"strings"
)

// Only university mailboxes may register.
var institutionalEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@(student\.must\.edu\.mo|must\.edu\.mo)$`)

// IsInstitutionalEmail validates the campus email domain
func IsInstitutionalEmail(email string) bool {
	return institutionalEmailPattern.MatchString(email)
}

// EmailLocalPart returns the part before '@', or "" when there is none.
func EmailLocalPart(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return ""
	}
	return email[:at]
}
