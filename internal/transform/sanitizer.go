package transform

import (
	"regexp"
	"strings"
)

// sanitizerTransformer strips content the renderer must never execute or
// store: NUL characters, script blocks and inline event handlers. Like
// the other structural stages it fails open on markup it cannot make
// sense of, returning the input unchanged.
type sanitizerTransformer struct{}

func (sanitizerTransformer) Name() string { return "sanitizer" }

var (
	scriptBlockRegex  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	eventHandlerRegex = regexp.MustCompile(`(?i)\son[a-z]+\s*=\s*(?:"[^"]*"|'[^']*')`)
)

func (sanitizerTransformer) Transform(tc *Context) (string, error) {
	result := strings.ReplaceAll(tc.Content, "\x00", "")
	result = scriptBlockRegex.ReplaceAllString(result, "")
	result = eventHandlerRegex.ReplaceAllString(result, "")
	return result, nil
}

// SanitizeString removes NUL characters from a value before it is
// persisted. Postgres-backed stores reject text containing NUL.
func SanitizeString(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
