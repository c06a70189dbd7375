package domain

import "strings"

// MessageRecord is an immutable chat line, appended in arrival order.
// Sender may reference a name absent from the current presence set.
type MessageRecord struct {
	Sender string
	Body   string
}

// IsGIF reports whether the body is a link to be shown as an image.
func (m MessageRecord) IsGIF() bool {
	return strings.HasSuffix(m.Body, ".gif")
}
