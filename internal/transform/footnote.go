package transform

import (
	"regexp"
	"strings"
)

// footnoteTransformer normalizes footnote references so the renderer can
// style and intercept them uniformly: every anchor declared as a noteref
// (EPUB epub:type or ARIA role) gets the reader's footnote class. The
// stage fails open: markup where no anchors can be located passes
// through unchanged rather than blocking reading.
type footnoteTransformer struct{}

func (footnoteTransformer) Name() string { return "footnote" }

const footnoteClass = "reader-noteref"

var (
	anchorTagRegex = regexp.MustCompile(`(?is)<a\b[^>]*>`)
	noterefRegex   = regexp.MustCompile(`(?i)epub:type="[^"]*noteref[^"]*"|role="doc-noteref"`)
	classAttrRegex = regexp.MustCompile(`(?i)class="([^"]*)"`)
)

func (footnoteTransformer) Transform(tc *Context) (string, error) {
	if !strings.Contains(strings.ToLower(tc.Content), "<a") {
		return tc.Content, nil
	}

	result := anchorTagRegex.ReplaceAllStringFunc(tc.Content, func(tag string) string {
		if !noterefRegex.MatchString(tag) {
			return tag
		}
		if classMatch := classAttrRegex.FindStringSubmatch(tag); classMatch != nil {
			if hasClass(classMatch[1], footnoteClass) {
				return tag
			}
			return strings.Replace(tag, classMatch[0], `class="`+classMatch[1]+" "+footnoteClass+`"`, 1)
		}
		return strings.Replace(tag, "<a", `<a class="`+footnoteClass+`"`, 1)
	})
	return result, nil
}

func hasClass(classList, class string) bool {
	for _, c := range strings.Fields(classList) {
		if c == class {
			return true
		}
	}
	return false
}
