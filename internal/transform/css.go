package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Book stylesheets come with assumptions the paginated viewport breaks:
// absolute font sizes fight the reader's font scale, vw/vh units resolve
// against the wrong box, and hardcoded colors clash with themes. The
// rewrites below translate those into the reader's CSS variables and the
// actual viewport, and promote a couple of intentional publisher layouts
// (centered headings, bleed margins) so the reader's own layout styles
// cannot override them.

var (
	cssRuleRegex = regexp.MustCompile(`([^{}]+)(\{[^}]*\})`)

	textAlignCenterRegex = regexp.MustCompile(`text-align\s*:\s*center\s*(?:;|})`)
	textIndentZeroRegex  = regexp.MustCompile(`text-indent\s*:\s*0(?:\.0+)?(?:px|em|rem|%)?\s*(?:;|})`)
	textAlignPromoRegex  = regexp.MustCompile(`(text-align\s*:\s*center)(\s*[;}])`)
	textIndentPromoRegex = regexp.MustCompile(`(text-indent\s*:\s*0(?:\.0+)?(?:px|em|rem|%)?)(\s*[;}])`)

	fontSizePxRegex = regexp.MustCompile(`(?i)font-size\s*:\s*(\d+(?:\.\d+)?)px`)
	fontSizePtRegex = regexp.MustCompile(`(?i)font-size\s*:\s*(\d+(?:\.\d+)?)pt`)
	vwUnitRegex     = regexp.MustCompile(`(\d*\.?\d+)vw`)
	vhUnitRegex     = regexp.MustCompile(`(\d*\.?\d+)vh`)

	monoFamilyRegex   = regexp.MustCompile(`(?i)([\s;{])font-family\s*:\s*monospace`)
	normalWeightRegex = regexp.MustCompile(`(?i)([\s;{])font-weight\s*:\s*normal`)
	blackColorRegex   = regexp.MustCompile(`(?i)([\s;{])color\s*:\s*(?:black\b|#000000\b|#000\b|rgb\(0,\s*0,\s*0\))`)
)

var fontSizeKeywords = []struct{ keyword, rem string }{
	// Longer keywords first so xx-small is not matched as x-small.
	{"xxx-large", "3rem"},
	{"xx-small", "0.6rem"},
	{"xx-large", "2rem"},
	{"x-small", "0.75rem"},
	{"x-large", "1.5rem"},
	{"small", "0.875rem"},
	{"medium", "1rem"},
	{"large", "1.2rem"},
}

// TransformStylesheet rewrites one stylesheet for rendering inside a
// viewport of vw by vh CSS pixels.
func TransformStylesheet(vw, vh int, css string) string {
	css = cssRuleRegex.ReplaceAllStringFunc(css, promoteCenteredRules)
	css = cssRuleRegex.ReplaceAllStringFunc(css, applyBleedMargins)

	for _, kw := range fontSizeKeywords {
		re := regexp.MustCompile(`(?i)font-size\s*:\s*` + kw.keyword)
		css = re.ReplaceAllString(css, "font-size: "+kw.rem)
	}
	css = fontSizePxRegex.ReplaceAllStringFunc(css, func(m string) string {
		px, _ := strconv.ParseFloat(fontSizePxRegex.FindStringSubmatch(m)[1], 64)
		return fmt.Sprintf("font-size: %srem", trimFloat(px/16))
	})
	css = fontSizePtRegex.ReplaceAllStringFunc(css, func(m string) string {
		pt, _ := strconv.ParseFloat(fontSizePtRegex.FindStringSubmatch(m)[1], 64)
		return fmt.Sprintf("font-size: %srem", trimFloat(pt/12))
	})
	css = vwUnitRegex.ReplaceAllStringFunc(css, func(m string) string {
		d, _ := strconv.ParseFloat(vwUnitRegex.FindStringSubmatch(m)[1], 64)
		return trimFloat(d*float64(vw)/100) + "px"
	})
	css = vhUnitRegex.ReplaceAllStringFunc(css, func(m string) string {
		d, _ := strconv.ParseFloat(vhUnitRegex.FindStringSubmatch(m)[1], 64)
		return trimFloat(d*float64(vh)/100) + "px"
	})

	css = monoFamilyRegex.ReplaceAllString(css, "${1}font-family: var(--monospace)")
	css = normalWeightRegex.ReplaceAllString(css, "${1}font-weight: var(--font-weight)")
	css = blackColorRegex.ReplaceAllString(css, "${1}color: var(--theme-fg-color)")

	return css
}

// promoteCenteredRules adds !important to rules that center text with a
// zero indent, a deliberate publisher layout the reader must not undo.
func promoteCenteredRules(rule string) string {
	sub := cssRuleRegex.FindStringSubmatch(rule)
	selector, block := sub[1], sub[2]

	if !textAlignCenterRegex.MatchString(block) || !textIndentZeroRegex.MatchString(block) {
		return rule
	}
	block = textAlignPromoRegex.ReplaceAllString(block, "$1 !important$2")
	block = textIndentPromoRegex.ReplaceAllString(block, "$1 !important$2")
	return selector + block
}

// applyBleedMargins maps duokan-bleed declarations onto negative margins
// against the reader's page margin variables.
var bleedDirections = []string{"top", "bottom", "left", "right"}

func applyBleedMargins(rule string) string {
	sub := cssRuleRegex.FindStringSubmatch(rule)
	selector, block := sub[1], sub[2]

	for _, dir := range bleedDirections {
		bleedRegex := regexp.MustCompile(`duokan-bleed\s*:\s*[^;]*` + dir + `[^;]*;`)
		marginRegex := regexp.MustCompile(`margin-` + dir + `\s*:`)
		if bleedRegex.MatchString(block) && !marginRegex.MatchString(block) {
			block = strings.TrimSuffix(block, "}") +
				fmt.Sprintf(" margin-%s: calc(-1 * var(--margin-%s)) !important; }", dir, dir)
		}
	}
	return selector + block
}

// trimFloat formats f without trailing zeros, the way stylesheet values
// are conventionally written.
func trimFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
