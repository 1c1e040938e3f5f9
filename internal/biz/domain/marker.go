package domain

import "strings"

// DefaultMarker tags a message as a feedback submission.
const DefaultMarker = "#feedback"

// Marker is the substring that marks a submission. Detection is
// case-insensitive containment, not tokenization.
type Marker string

// In reports whether the marker occurs in text or caption content.
func (m Marker) In(text string) bool {
	if m == "" || text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(string(m)))
}
