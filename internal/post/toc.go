package post

import (
	"regexp"
	"strings"

	"wordsmith/internal/core"
)

const (
	maxTOCEntries  = 9
	maxTOCLabelLen = 50
)

// questionOpeners are the openers stripped from ToC labels and
// deduplicated in stuttered headings ("What is What is X").
var questionOpeners = []string{"what is", "what are", "how does", "how do", "why is", "why are"}

// interrogativePrefix strips the question openers from ToC labels.
var interrogativePrefix = regexp.MustCompile(`(?i)^(what is|what are|how does|how do|why is|why are)\s+`)

// fixHeadings removes double-prefix stutters and drops sections whose
// heading is empty.
func fixHeadings(out *core.ArticleOutput) {
	out.Sections = fixSectionHeadings(out.Sections)
}

func fixSectionHeadings(sections []core.Section) []core.Section {
	var kept []core.Section
	for _, s := range sections {
		s.Heading = strings.TrimSpace(dedupePrefix(s.Heading))
		if s.Heading == "" {
			continue
		}
		s.Subsections = fixSectionHeadings(s.Subsections)
		kept = append(kept, s)
	}
	return kept
}

// dedupePrefix turns "What is What is X" into "What is X", preserving
// the original casing of the surviving prefix.
func dedupePrefix(heading string) string {
	lower := strings.ToLower(heading)
	for _, opener := range questionOpeners {
		doubled := opener + " " + opener + " "
		if strings.HasPrefix(lower, doubled) {
			return heading[:len(opener)+1] + heading[len(doubled):]
		}
	}
	return heading
}

// buildTOC derives the table of contents from the top-level section
// headings, at most maxTOCEntries of them.
func buildTOC(out *core.ArticleOutput) {
	var toc []core.TOCEntry
	for _, s := range out.Sections {
		if len(toc) >= maxTOCEntries {
			break
		}
		toc = append(toc, core.TOCEntry{
			Label:  tocLabel(s.Heading),
			Anchor: core.Slugify(s.Heading),
		})
	}
	out.TOC = toc
}

// tocLabel cleans a heading for ToC use: strip the question opener and
// the trailing question mark, then truncate at a word boundary. Lengths
// count runes so a multibyte heading is never split mid-character.
func tocLabel(heading string) string {
	label := strings.TrimSpace(interrogativePrefix.ReplaceAllString(heading, ""))
	label = strings.TrimSpace(strings.TrimSuffix(label, "?"))
	if label == "" {
		return truncateRunes(heading, maxTOCLabelLen)
	}

	runes := []rune(label)
	if len(runes) <= maxTOCLabelLen {
		return label
	}

	head := string(runes[:maxTOCLabelLen])
	if cut := strings.LastIndex(head, " "); cut > 0 {
		head = head[:cut]
	}
	return strings.TrimSpace(head) + "…"
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
