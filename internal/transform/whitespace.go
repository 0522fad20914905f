package transform

import (
	"regexp"
	"strings"
)

// whitespaceTransformer collapses non-breaking spaces and runs of spaces
// to single spaces. It only acts when the layout override is enabled;
// otherwise the content passes through byte for byte, preserving the
// publisher's spacing.
type whitespaceTransformer struct{}

func (whitespaceTransformer) Name() string { return "whitespace" }

var spaceRunRegex = regexp.MustCompile(` {2,}`)

// ampNbspSentinel shields the literal text "&amp;nbsp;" from the entity
// replacement below. NUL never appears in well-formed markup and is
// stripped by the sanitizer stage anyway.
const ampNbspSentinel = "\x00amp-nbsp\x00"

func (whitespaceTransformer) Transform(tc *Context) (string, error) {
	if !tc.ViewSettings.OverrideLayout {
		return tc.Content, nil
	}

	cleaned := strings.ReplaceAll(tc.Content, "&amp;nbsp;", ampNbspSentinel)
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")
	cleaned = strings.ReplaceAll(cleaned, "\u00A0", " ")
	cleaned = spaceRunRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, ampNbspSentinel, "&amp;nbsp;")
	return cleaned, nil
}
