package core

import (
	"fmt"
	"strings"
)

// maxSlugLen bounds slugs; truncation happens at a word boundary.
const maxSlugLen = 100

// Slugify derives a URL-safe slug from a keyword. The derivation is
// idempotent: Slugify(Slugify(x)) == Slugify(x). Empty or punctuation-only
// input yields the literal "article".
func Slugify(keyword string) string {
	s := strings.ToLower(keyword)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			// Everything else separates: whitespace, punctuation, non-ASCII.
			b.WriteByte('-')
		}
	}

	s = b.String()
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLen {
		cut := strings.LastIndex(s[:maxSlugLen+1], "-")
		if cut <= 0 {
			cut = maxSlugLen
		}
		s = strings.Trim(s[:cut], "-")
	}

	if s == "" {
		return "article"
	}
	return s
}

// UniqueSlugs assigns a slug to every keyword, suffixing collisions with
// -2, -3, ... in input order so no two jobs share an output directory.
func UniqueSlugs(keywords []string) []string {
	seen := make(map[string]int, len(keywords))
	slugs := make([]string, len(keywords))
	for i, kw := range keywords {
		base := Slugify(kw)
		seen[base]++
		if n := seen[base]; n > 1 {
			slug := fmt.Sprintf("%s-%d", base, n)
			// A keyword may itself slugify to an already-suffixed form.
			for seen[slug] > 0 {
				n++
				slug = fmt.Sprintf("%s-%d", base, n)
			}
			seen[slug]++
			slugs[i] = slug
			continue
		}
		slugs[i] = base
	}
	return slugs
}
