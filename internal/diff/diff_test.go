package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_IdenticalInputs(t *testing.T) {
	text := "chapter one\nchapter two\nchapter three"
	assert.Empty(t, Diff(text, text))
}

func TestDiff_IgnoresBlankLinesAndEdgeWhitespace(t *testing.T) {
	a := "line one\n\n  line two  \n"
	b := "line one\nline two"
	assert.Empty(t, Diff(a, b))
}

func TestDiff_PureAddition(t *testing.T) {
	got := Diff("", "alpha\nbeta")
	assert.Equal(t, "0a1,2\n> alpha\n> beta", got)
}

func TestDiff_PureDeletion(t *testing.T) {
	got := Diff("alpha\nbeta", "")
	assert.Equal(t, "1,2d0\n< alpha\n< beta", got)
}

func TestDiff_ChangeGroup(t *testing.T) {
	a := "one\ntwo\nthree"
	b := "one\n2\nthree"
	assert.Equal(t, "2c2\n< two\n---\n> 2", Diff(a, b))
}

func TestDiff_AdditionInMiddle(t *testing.T) {
	a := "one\nthree"
	b := "one\ntwo\nthree"
	assert.Equal(t, "1a2\n> two", Diff(a, b))
}

func TestDiff_DeletionInMiddle(t *testing.T) {
	a := "one\ntwo\nthree"
	b := "one\nthree"
	assert.Equal(t, "2d1\n< two", Diff(a, b))
}

func TestDiff_MultiLineChange(t *testing.T) {
	a := "head\nold a\nold b\ntail"
	b := "head\nnew a\ntail"
	assert.Equal(t, "2,3c2\n< old a\n< old b\n---\n> new a", Diff(a, b))
}

func TestDiff_Deterministic(t *testing.T) {
	a := "p 12: He walked in.\np 13: The door closed."
	b := "p 44: Years later.\np 45: Nothing remained."
	first := Diff(a, b)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, Diff(a, b))
}
