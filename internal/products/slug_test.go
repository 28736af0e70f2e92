package product

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Sticker Pack", "sticker-pack"},
		{"punctuation", "Vinyl! Record?? (Limited)", "vinyl-record-limited"},
		{"ampersandStripped", "Rock&Roll", "rockroll"},
		{"atSignStripped", "a@b", "ab"},
		{"collapsesHyphens", "a  --  b", "a-b"},
		{"trimsEdges", "  -edge case- ", "edge-case"},
		{"unicodeStripped", "café ☕ latte", "caf-latte"},
		{"emptyFallsBack", "!!!", "product"},
		{"blankFallsBack", "   ", "product"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.in); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCandidateSlug(t *testing.T) {
	if got := CandidateSlug("poster", 0); got != "poster" {
		t.Fatalf("attempt 0 = %q", got)
	}
	if got := CandidateSlug("poster", 2); got != "poster-2" {
		t.Fatalf("attempt 2 = %q", got)
	}
}
