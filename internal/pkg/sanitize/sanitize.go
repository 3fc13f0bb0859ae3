package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// text strips every tag, user content on this platform is plain text.
var text = bluemonday.StrictPolicy()

// Text removes all HTML from user-submitted content. Captions, bios,
// comments and messages are stored and rendered as plain text.
func Text(s string) string {
	return strings.TrimSpace(text.Sanitize(s))
}
