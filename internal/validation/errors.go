// Package validation holds the pure field checks shared by the request paths:
// location pairing, contact details, free-text sanitization and image formats.
package validation

import (
	"sort"
	"strings"
)

// Errors collects every violation keyed by field name so callers can render
// them all at once.
type Errors map[string][]string

// Add records a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// AddAll records several messages for field.
func (e Errors) AddAll(field string, messages []string) {
	for _, m := range messages {
		e.Add(field, m)
	}
}

// HasErrors reports whether any violation was recorded.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Fields returns the sorted list of fields that failed.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return strings.Join(parts, "; ")
}
