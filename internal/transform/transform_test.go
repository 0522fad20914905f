package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<html lang="en" xml:lang="en" class="chapter"><head><style>p { font-size: 16px; }</style></head><body><p>One  two</p></body></html>`

func TestRun_AppliesOnlyRequestedStages(t *testing.T) {
	tc := &Context{
		Content:      "<p>a&nbsp;&nbsp;b</p>",
		ViewSettings: ViewSettings{OverrideLayout: true},
		Transformers: []string{"whitespace"},
	}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>a b</p>", out)
}

func TestRun_SkippedStageLeavesConcernUntouched(t *testing.T) {
	// overrideLayout is on, but the whitespace stage is not requested:
	// spacing must survive byte for byte.
	tc := &Context{
		Content:      "<p>a  b</p>",
		ViewSettings: ViewSettings{OverrideLayout: true},
		Transformers: []string{"sanitizer"},
	}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>a  b</p>", out)
}

func TestRun_Deterministic(t *testing.T) {
	newCtx := func() *Context {
		return &Context{
			Content:         sampleDoc,
			ViewSettings:    ViewSettings{OverrideLayout: true},
			PrimaryLanguage: "en",
			Width:           1024,
			Height:          768,
			Transformers:    []string{"punctuation", "footnote", "language", "style", "whitespace", "sanitizer"},
		}
	}
	first, err := Run(newCtx())
	require.NoError(t, err)
	second, err := Run(newCtx())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_Idempotent(t *testing.T) {
	stages := []string{"punctuation", "language", "style", "whitespace", "sanitizer"}
	tc := &Context{
		Content:         sampleDoc,
		ViewSettings:    ViewSettings{OverrideLayout: true},
		PrimaryLanguage: "en",
		Width:           1024,
		Height:          768,
		Transformers:    stages,
	}
	once, err := Run(tc)
	require.NoError(t, err)

	again, err := Run(&Context{
		Content:         once,
		ViewSettings:    ViewSettings{OverrideLayout: true},
		PrimaryLanguage: "en",
		Width:           1024,
		Height:          768,
		Transformers:    stages,
	})
	require.NoError(t, err)
	assert.Equal(t, once, again)
}

type failingTransformer struct{}

func (failingTransformer) Name() string { return "failing" }
func (failingTransformer) Transform(*Context) (string, error) {
	return "", errors.New("stage exploded")
}

func TestRun_StageErrorPropagates(t *testing.T) {
	orig := Catalog
	Catalog = append([]Transformer{failingTransformer{}}, orig...)
	defer func() { Catalog = orig }()

	_, err := Run(&Context{Content: "<p>x</p>", Transformers: []string{"failing", "sanitizer"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
}

func TestLanguage_RederivesMissingAttributes(t *testing.T) {
	tc := &Context{
		Content:         `<html class="x"><body><p>Hello there, dear reader of this fine book.</p></body></html>`,
		PrimaryLanguage: "en",
		Transformers:    []string{"language"},
	}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Contains(t, out, `<html class="x" lang="en" xml:lang="en">`)
}

func TestLanguage_KeepsConsistentDeclaration(t *testing.T) {
	in := `<html lang="en-US" xml:lang="en-US"><body><p>Hello</p></body></html>`
	tc := &Context{Content: in, PrimaryLanguage: "en", Transformers: []string{"language"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLanguage_ReplacesInconsistentDeclaration(t *testing.T) {
	in := `<html lang="fr" dir="ltr"><body><p>Hello</p></body></html>`
	tc := &Context{Content: in, PrimaryLanguage: "de", Transformers: []string{"language"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Contains(t, out, ` lang="de"`)
	assert.Contains(t, out, ` xml:lang="de"`)
	assert.Contains(t, out, ` dir="ltr"`)
}

func TestLanguage_NoRootTagPassesThrough(t *testing.T) {
	tc := &Context{Content: "<p>fragment</p>", Transformers: []string{"language"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>fragment</p>", out)
}

func TestWhitespace_DisabledWithoutOverrideLayout(t *testing.T) {
	in := "<p>a&nbsp;b  c d</p>"
	tc := &Context{Content: in, Transformers: []string{"whitespace"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWhitespace_PreservesEscapedEntity(t *testing.T) {
	tc := &Context{
		Content:      "<p>&amp;nbsp; and &nbsp; and  </p>",
		ViewSettings: ViewSettings{OverrideLayout: true},
		Transformers: []string{"whitespace"},
	}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>&amp;nbsp; and and </p>", out)
}

func TestPunctuation_FullwidthConversionAndSpaceRemoval(t *testing.T) {
	tc := &Context{
		Content:      "<p>你好,世界 。再见</p>",
		Transformers: []string{"punctuation"},
	}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>你好，世界。再见</p>", out)
}

func TestPunctuation_ReverseRestoresHalfwidth(t *testing.T) {
	tc := &Context{
		Content:            "<p>你好，世界。</p>",
		Transformers:       []string{"punctuation"},
		ReversePunctuation: true,
	}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>你好,世界.</p>", out)
}

func TestStyle_RewritesEveryBlockAndNothingElse(t *testing.T) {
	in := `<html><head>` +
		`<style type="text/css">p { font-size: 32px; }</style>` +
		`<title>Keep &lt;this&gt;</title>` +
		`<style>div { width: 50vw; }</style>` +
		`</head><body><p style="color: red">text</p></body></html>`
	tc := &Context{Content: in, Width: 1000, Height: 500, Transformers: []string{"style"}}
	out, err := Run(tc)
	require.NoError(t, err)

	assert.Contains(t, out, "<style>p { font-size: 2rem; }</style>")
	assert.Contains(t, out, "<style>div { width: 500px; }</style>")
	// Non-style markup is byte-identical.
	assert.Contains(t, out, "<title>Keep &lt;this&gt;</title>")
	assert.Contains(t, out, `<p style="color: red">text</p>`)
}

func TestStyle_ThemesHardcodedBlackText(t *testing.T) {
	in := `<style>` +
		`p { color: black; } h1 { color: #000; } h2 { color: #000000; } ` +
		`div { color: rgb(0, 0, 0); } span { color: rgb(0,0,0); } ` +
		`em { color: #000fff; }` +
		`</style>`
	tc := &Context{Content: in, Transformers: []string{"style"}}
	out, err := Run(tc)
	require.NoError(t, err)

	assert.Equal(t, 5, strings.Count(out, "color: var(--theme-fg-color)"))
	// Near-black values stay untouched.
	assert.Contains(t, out, "color: #000fff")
}

func TestStyle_NoBlocksPassesThrough(t *testing.T) {
	in := "<html><body><p>plain</p></body></html>"
	tc := &Context{Content: in, Transformers: []string{"style"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFootnote_TagsNoterefAnchors(t *testing.T) {
	in := `<p>text<a href="#n1" epub:type="noteref">1</a> and <a href="ch2.html">link</a></p>`
	tc := &Context{Content: in, Transformers: []string{"footnote"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Contains(t, out, `<a class="reader-noteref" href="#n1" epub:type="noteref">1</a>`)
	assert.Contains(t, out, `<a href="ch2.html">link</a>`)
}

func TestFootnote_AppendsToExistingClass(t *testing.T) {
	in := `<a class="note" role="doc-noteref" href="#n2">2</a>`
	tc := &Context{Content: in, Transformers: []string{"footnote"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Contains(t, out, `class="note reader-noteref"`)
}

func TestFootnote_FailsOpenWithoutAnchors(t *testing.T) {
	in := "<p>no anchors here</p>"
	tc := &Context{Content: in, Transformers: []string{"footnote"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSanitizer_StripsScriptsAndHandlers(t *testing.T) {
	in := "<p onclick=\"evil()\">a\x00b</p><script>alert(1)</script><p>ok</p>"
	tc := &Context{Content: in, Transformers: []string{"sanitizer"}}
	out, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>ab</p><p>ok</p>", out)
}

func TestCache_HitSkipsPipeline(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	newCtx := func() *Context {
		return &Context{
			BookKey:      "book-1",
			Content:      "<p>a&nbsp;&nbsp;b</p>",
			ViewSettings: ViewSettings{OverrideLayout: true},
			Transformers: []string{"whitespace"},
		}
	}

	first, err := cache.Run(newCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	second, err := cache.Run(newCtx())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_KeyChangesWithSettings(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	base := &Context{BookKey: "b", Content: "<p>a  b</p>", Transformers: []string{"whitespace"}}
	_, err = cache.Run(base)
	require.NoError(t, err)

	changed := &Context{
		BookKey:      "b",
		Content:      "<p>a  b</p>",
		ViewSettings: ViewSettings{OverrideLayout: true},
		Transformers: []string{"whitespace"},
	}
	_, err = cache.Run(changed)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}
