package validation

import (
	"html"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// MaxEmailLen and MaxPhoneLen match the announcements column widths.
	MaxEmailLen = 254
	MaxPhoneLen = 32

	// sanitizePasses bounds re-sanitizing text whose decoded entities
	// formed new markup.
	sanitizePasses = 4
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]+$`)
	stripMarkup  = bluemonday.StrictPolicy()
)

// ValidateLocation enforces that latitude and longitude are either both
// absent or both present and in range.
func ValidateLocation(lat, lng *float64) []string {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return []string{"latitude and longitude must be provided together"}
	}

	var msgs []string
	if *lat < MinLatitude || *lat > MaxLatitude {
		msgs = append(msgs, "latitude must be between -90 and 90")
	}
	if *lng < MinLongitude || *lng > MaxLongitude {
		msgs = append(msgs, "longitude must be between -180 and 180")
	}
	return msgs
}

// ValidateEmail checks the value is a bare address with a dotted domain.
func ValidateEmail(email string) []string {
	email = strings.TrimSpace(email)
	if email == "" {
		return []string{"email is required"}
	}
	if len(email) > MaxEmailLen {
		return []string{"email must be at most " + strconv.Itoa(MaxEmailLen) + " characters"}
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return []string{"email is not a valid address"}
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return []string{"email is not a valid address"}
	}
	return nil
}

// ValidatePhone accepts digits with an optional leading plus and the usual
// separators, between 7 and 20 digits.
func ValidatePhone(phone string) []string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return []string{"phone is required"}
	}
	if len(phone) > MaxPhoneLen {
		return []string{"phone must be at most " + strconv.Itoa(MaxPhoneLen) + " characters"}
	}
	if !phonePattern.MatchString(phone) {
		return []string{"phone contains invalid characters"}
	}

	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 || digits > 20 {
		return []string{"phone must contain between 7 and 20 digits"}
	}
	return nil
}

// Sanitize strips markup and control characters (except newline and tab),
// trims surrounding whitespace and caps the result at maxRunes. The result is
// plain text: entities are decoded, so "a < b" survives unchanged.
func Sanitize(s string, maxRunes int) string {
	stable := false
	for range sanitizePasses {
		next := html.UnescapeString(stripMarkup.Sanitize(s))
		stable = next == s
		s = next
		if stable {
			break
		}
	}
	if !stable {
		// Deeply nested entities: leave the rest escaped.
		s = stripMarkup.Sanitize(s)
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)

	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxRunes]))
	}
	return s
}

// SanitizeOptional applies Sanitize to an optional value. Values that become
// empty are dropped.
func SanitizeOptional(s *string, maxRunes int) *string {
	if s == nil {
		return nil
	}
	v := Sanitize(*s, maxRunes)
	if v == "" {
		return nil
	}
	return &v
}

// ValidateText reports when the sanitized value exceeds maxRunes.
func ValidateText(s *string, maxRunes int) []string {
	if s == nil {
		return nil
	}
	if utf8.RuneCountInString(Sanitize(*s, 0)) > maxRunes {
		return []string{"must be at most " + strconv.Itoa(maxRunes) + " characters"}
	}
	return nil
}
