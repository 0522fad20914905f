package transform

import (
	"regexp"
	"strings"
)

// punctuationTransformer normalizes spacing and punctuation forms in CJK
// text: Western punctuation sitting between CJK characters is converted
// to its fullwidth form, and stray spaces before CJK punctuation are
// removed. The fullwidth conversion is reversible via
// Context.ReversePunctuation; the space removal is restored to a
// canonical single-space form, not byte-exact, which is why callers
// keep the pre-transform content around for export.
type punctuationTransformer struct{}

func (punctuationTransformer) Name() string { return "punctuation" }

var halfToFull = strings.NewReplacer(
	",", "，",
	".", "。",
	"!", "！",
	"?", "？",
	":", "：",
	";", "；",
)

var fullToHalf = strings.NewReplacer(
	"，", ",",
	"。", ".",
	"！", "!",
	"？", "?",
	"：", ":",
	"；", ";",
)

const cjk = `\x{3040}-\x{30FF}\x{3400}-\x{4DBF}\x{4E00}-\x{9FFF}\x{F900}-\x{FAFF}`

var (
	// A halfwidth punctuation mark with CJK text on both sides.
	halfwidthBetweenCJK = regexp.MustCompile(`([` + cjk + `])([,.!?:;])(\s*)([` + cjk + `])`)
	// A fullwidth punctuation mark, for the reverse mapping.
	fullwidthAfterCJK = regexp.MustCompile(`([` + cjk + `])([，。！？：；])`)
	// Spaces (ASCII or ideographic) before CJK punctuation.
	spaceBeforeCJKPunct = regexp.MustCompile(`[ \t\x{3000}]+([，。、！？：；）」』】》])`)
)

func (punctuationTransformer) Transform(tc *Context) (string, error) {
	if tc.ReversePunctuation {
		return reversePunctuation(tc.Content), nil
	}
	result := tc.Content
	result = halfwidthBetweenCJK.ReplaceAllStringFunc(result, func(m string) string {
		sub := halfwidthBetweenCJK.FindStringSubmatch(m)
		return sub[1] + halfToFull.Replace(sub[2]) + sub[4]
	})
	result = spaceBeforeCJKPunct.ReplaceAllString(result, "$1")
	return result, nil
}

func reversePunctuation(content string) string {
	return fullwidthAfterCJK.ReplaceAllStringFunc(content, func(m string) string {
		sub := fullwidthAfterCJK.FindStringSubmatch(m)
		return sub[1] + fullToHalf.Replace(sub[2])
	})
}
