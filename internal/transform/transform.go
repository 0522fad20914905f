// Package transform rewrites book markup before it is handed to the
// renderer. A fixed catalog of transformers is applied in order, each
// stage receiving the previous stage's output. Structural stages fail
// open (malformed markup passes through unchanged); a stage returning an
// error aborts the run so the caller can fall back to the raw content.
package transform

import (
	"fmt"
)

// ViewSettings carries the rendering flags transformers consult.
type ViewSettings struct {
	// OverrideLayout enables whitespace normalization that deviates from
	// the publisher's layout.
	OverrideLayout bool
	// OverrideFont forces the reader font over embedded book fonts.
	OverrideFont bool
}

// Context is the work item threaded through the pipeline. Content holds
// the accumulated markup and is replaced after every stage.
type Context struct {
	BookKey         string
	Content         string
	ViewSettings    ViewSettings
	PrimaryLanguage string

	// Viewport hints for the style transformer. Zero values fall back to
	// DefaultViewportWidth/DefaultViewportHeight.
	Width  int
	Height int

	// Transformers lists the stage names to apply. Stages not listed are
	// skipped; listed stages always run in catalog order.
	Transformers []string

	// ReversePunctuation switches the punctuation stage into its reverse
	// mapping so content can be restored for export or editing.
	ReversePunctuation bool
}

// Transformer is one pipeline stage: markup in, markup out.
// Implementations must be stateless and deterministic for a given
// Context.
type Transformer interface {
	Name() string
	Transform(tc *Context) (string, error)
}

// Catalog is the fixed, ordered set of available transformers. Requested
// stages always execute in this order regardless of how they are listed
// on the Context.
var Catalog = []Transformer{
	punctuationTransformer{},
	footnoteTransformer{},
	languageTransformer{},
	styleTransformer{},
	whitespaceTransformer{},
	sanitizerTransformer{},
}

// Run applies every requested catalog transformer to tc.Content in
// catalog order. The first stage error aborts the run; tc.Content keeps
// the output of the stages that completed.
func Run(tc *Context) (string, error) {
	for _, tr := range Catalog {
		if !requested(tc, tr.Name()) {
			continue
		}
		out, err := tr.Transform(tc)
		if err != nil {
			return "", fmt.Errorf("transform stage %s: %w", tr.Name(), err)
		}
		tc.Content = out
	}
	return tc.Content, nil
}

func requested(tc *Context, name string) bool {
	for _, n := range tc.Transformers {
		if n == name {
			return true
		}
	}
	return false
}
