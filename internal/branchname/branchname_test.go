package branchname_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cascade.dev/cascade/internal/branchname"
)

func TestSlugLowercasesAndHyphenates(t *testing.T) {
	assert.Equal(t, "add-foo-bar-baz", branchname.Slug("Add Foo! Bar_Baz"))
}

func TestSlugTakesAtMostFiveWords(t *testing.T) {
	assert.Equal(t, "one-two-three-four-five", branchname.Slug("one two three four five six seven"))
}

func TestSlugPrependsFeatureWhenLeadingDigit(t *testing.T) {
	assert.Equal(t, "feature-123-go", branchname.Slug("123 go"))
}

func TestSlugFallsBackOnEmptyMessage(t *testing.T) {
	assert.Equal(t, "entry", branchname.Slug("!!!"))
}

func TestUniquifyAppendsNumberedSuffix(t *testing.T) {
	taken := map[string]bool{"fix-bug": true, "fix-bug-2": true}
	got := branchname.Uniquify("fix-bug", func(name string) bool { return taken[name] })
	assert.Equal(t, "fix-bug-3", got)
}

func TestUniquifyReturnsBaseWhenFree(t *testing.T) {
	got := branchname.Uniquify("fix-bug", func(string) bool { return false })
	assert.Equal(t, "fix-bug", got)
}

func TestProcessPatternExpandsPlaceholders(t *testing.T) {
	got := branchname.ProcessPattern("{username}/{date}-{message}", "Jane Doe", "20260101", "Add login flow")
	assert.Equal(t, "Jane-Doe/20260101-add-login-flow", got)
}

func TestProcessPatternFallsBackWithoutMessagePlaceholder(t *testing.T) {
	got := branchname.ProcessPattern("{username}/{date}", "jane", "20260101", "Add login flow")
	assert.Equal(t, "add-login-flow", got)
}
