// Package htmlsanitize strips unsafe HTML from user-entered rich text.
//
// Free-text fields (organization address, role description) are sanitized
// once on the way into the database, so templates can render them without
// re-escaping concerns.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with scripts, event handlers, and javascript: URLs
// removed. Safe formatting markup (p, strong, em, a, lists) is preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
