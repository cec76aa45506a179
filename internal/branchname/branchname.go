// Package branchname derives Git branch names for new stack entries: the
// deterministic slug algorithm spec.md §4.6.2 mandates as the default, and
// the optional {username}/{date}/{message} pattern templating supplemented
// from the teacher's internal/utils/branch_name.go ProcessBranchNamePattern.
package branchname

import (
	"regexp"
	"strings"
)

// maxBranchNameBytes mirrors the teacher's MaxBranchNameByteLength: Git refs
// cap at 256 bytes, minus headroom for a refs/heads/ prefix and suffixes.
const maxBranchNameBytes = 234

var (
	nonAlnumRun  = regexp.MustCompile(`[^a-z0-9]+`)
	invalidChars = regexp.MustCompile(`[^-_/.a-zA-Z0-9]+`)
	trailingSlug = regexp.MustCompile(`[/.]*$`)
	hyphenRun    = regexp.MustCompile(`-+`)
)

// Slug implements spec.md §4.6.2 step 4's default algorithm: lowercase the
// message, replace runs of non-alphanumerics with a single hyphen, take up
// to the first five words, and prepend "feature-" if the result would start
// with a digit (an invalid leading character for some tooling that treats
// bare numeric branch names as revisions).
func Slug(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	lower = nonAlnumRun.ReplaceAllString(lower, "-")
	lower = strings.Trim(lower, "-")

	words := strings.Split(lower, "-")
	if len(words) > 5 {
		words = words[:5]
	}
	slug := strings.Join(words, "-")

	if slug == "" {
		slug = "entry"
	}
	if slug[0] >= '0' && slug[0] <= '9' {
		slug = "feature-" + slug
	}
	return slug
}

// Uniquify appends "-N" suffixes (N starting at 2) until taken(candidate)
// reports false, per spec.md §4.6.2 step 4.
func Uniquify(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Sanitize replaces characters invalid in a branch name with hyphens,
// collapses hyphen runs, trims leading/trailing hyphens and trailing
// slashes/dots, and enforces the byte-length ceiling. Grounded on the
// teacher's SanitizeBranchName.
func Sanitize(name string) string {
	name = trailingSlug.ReplaceAllString(name, "")
	name = invalidChars.ReplaceAllString(name, "-")
	name = hyphenRun.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > maxBranchNameBytes {
		name = name[:maxBranchNameBytes]
		name = strings.TrimSuffix(name, "-")
	}
	return name
}

// ProcessPattern expands a configured branch_name_pattern (see
// cascadeconfig.Config.GetBranchNamePattern) with {username}/{date}/
// {message} placeholders. An empty pattern, or one missing the required
// {message} placeholder, falls back to the plain Slug of message — the
// spec's deterministic algorithm remains the default when no pattern is
// configured.
func ProcessPattern(pattern, username, date, message string) string {
	messageSlug := Slug(message)
	if pattern == "" || !strings.Contains(pattern, "{message}") {
		return messageSlug
	}

	result := pattern
	result = strings.ReplaceAll(result, "{username}", Sanitize(username))
	result = strings.ReplaceAll(result, "{date}", date)
	result = strings.ReplaceAll(result, "{message}", messageSlug)
	return Sanitize(result)
}
