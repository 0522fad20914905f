package transform

import (
	"regexp"
	"strings"
)

// Default viewport used when the caller supplies no dimensions. On the
// client the actual window size is passed in instead.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
)

// styleTransformer rewrites the CSS inside every <style> block through
// the stylesheet transformer, keyed to the current viewport. All markup
// outside the style blocks is preserved verbatim.
type styleTransformer struct{}

func (styleTransformer) Name() string { return "style" }

var styleBlockRegex = regexp.MustCompile(`(?is)<style[^>]*>(.*?)</style>`)

func (styleTransformer) Transform(tc *Context) (string, error) {
	width := tc.Width
	if width <= 0 {
		width = DefaultViewportWidth
	}
	height := tc.Height
	if height <= 0 {
		height = DefaultViewportHeight
	}

	matches := styleBlockRegex.FindAllStringSubmatchIndex(tc.Content, -1)
	if matches == nil {
		return tc.Content, nil
	}

	var sb strings.Builder
	sb.Grow(len(tc.Content))
	last := 0
	for _, m := range matches {
		css := tc.Content[m[2]:m[3]]
		sb.WriteString(tc.Content[last:m[0]])
		sb.WriteString("<style>")
		sb.WriteString(TransformStylesheet(width, height, css))
		sb.WriteString("</style>")
		last = m[1]
	}
	sb.WriteString(tc.Content[last:])
	return sb.String(), nil
}
