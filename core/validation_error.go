package core

import "strings"

// ValidationError maps field names to their validation messages. It renders
// as a 422 with per-field details.
type ValidationError map[string][]string

// Error implements the error interface.
func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for field, msgs := range e {
		b.WriteString("; ")
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(strings.Join(msgs, ", "))
	}
	return b.String()
}
