package product

import (
	"fmt"
	"regexp"
	"strings"
)

// maxSlugAttempts bounds the insert-if-absent collision probe. Exhausting it
// surfaces CONFLICT instead of looping forever on a hot name.
const maxSlugAttempts = 5

var (
	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugCollapseRe = regexp.MustCompile(`-{2,}`)
)

// Slugify normalizes a product name into a URL-safe slug. Whitespace runs
// become hyphens, every other invalid character is dropped. Empty results
// fall back to "product" so the collision probe still has a base to suffix.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	slug = slugInvalidRe.ReplaceAllString(slug, "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "product"
	}
	return slug
}

// CandidateSlug returns the probe candidate for the given attempt: the base
// slug first, then numbered suffixes.
func CandidateSlug(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}
