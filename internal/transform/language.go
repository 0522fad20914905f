package transform

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// languageTransformer repairs the language attributes on the document
// root. When the declared language is missing, invalid, or inconsistent
// with the primary language hint, the language is re-derived (from the
// hint when valid, otherwise by content detection over tag-stripped
// text) and written as both lang and xml:lang. All other attributes on
// the root element are preserved byte for byte.
type languageTransformer struct{}

func (languageTransformer) Name() string { return "language" }

var (
	htmlRootRegex = regexp.MustCompile(`(?i)<html\b([^>]*)>`)
	langAttrRegex = regexp.MustCompile(`(?i) lang="([^"]*)"`)
	xmlLangRegex  = regexp.MustCompile(`(?i) xml:lang="([^"]*)"`)
	tagRegex      = regexp.MustCompile(`<[^>]+>`)
)

func (languageTransformer) Transform(tc *Context) (string, error) {
	result := tc.Content
	rootMatch := htmlRootRegex.FindStringSubmatch(result)
	if rootMatch == nil {
		return result, nil
	}

	attrs := rootMatch[1]
	langMatch := langAttrRegex.FindStringSubmatch(attrs)
	xmlMatch := xmlLangRegex.FindStringSubmatch(attrs)

	docLang := ""
	if langMatch != nil {
		docLang = langMatch[1]
	} else if xmlMatch != nil {
		docLang = xmlMatch[1]
	}

	if isValidLang(docLang) && isSameLang(docLang, tc.PrimaryLanguage) {
		return result, nil
	}

	lang := tc.PrimaryLanguage
	if !isValidLang(lang) {
		lang = detectLanguage(tagRegex.ReplaceAllString(result, " "))
	}

	newLang := ` lang="` + lang + `"`
	newXMLLang := ` xml:lang="` + lang + `"`
	if langMatch != nil {
		attrs = langAttrRegex.ReplaceAllLiteralString(attrs, newLang)
	} else {
		attrs += newLang
	}
	if xmlMatch != nil {
		attrs = xmlLangRegex.ReplaceAllLiteralString(attrs, newXMLLang)
	} else {
		attrs += newXMLLang
	}

	return strings.Replace(result, rootMatch[0], "<html"+attrs+">", 1), nil
}

// isValidLang reports whether code parses as a BCP 47 language tag.
func isValidLang(code string) bool {
	if code == "" {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}

// isSameLang compares two tags by base language, so "en-US" and "en"
// count as the same. An empty other tag never disagrees.
func isSameLang(a, b string) bool {
	if b == "" {
		return true
	}
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	baseA, _ := ta.Base()
	baseB, _ := tb.Base()
	return baseA == baseB
}

// detectLanguage runs content-based detection and returns an ISO 639-1
// code, defaulting to English when detection is inconclusive.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "en"
	}
	return code
}
