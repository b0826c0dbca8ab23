// Package post is the deterministic cleanup pipeline between the model's
// semi-structured draft and rendering: normalization, list
// reconstruction, deduplication, citation renumbering and table of
// contents construction. Every pass is idempotent; running the processor
// on its own output is a no-op.
package post

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wordsmith/internal/core"
)

// Processor cleans article drafts.
type Processor struct {
	pinnedURLs []string
}

// NewProcessor creates a processor. pinnedURLs are citation URLs kept in
// the list even when no body marker references them.
func NewProcessor(pinnedURLs []string) *Processor {
	return &Processor{pinnedURLs: pinnedURLs}
}

// Process cleans the draft in place and returns the stage report. A
// violated invariant after cleanup downgrades the report to warn but
// never discards the cleaned-so-far output.
func (p *Processor) Process(out *core.ArticleOutput) core.StageReport {
	var notes []string
	seenParagraphs := make(map[string]bool)

	out.Lead = inlineOnly(out.Lead)
	var walk func(sections []core.Section)
	walk = func(sections []core.Section) {
		for i := range sections {
			cleaned, fragNotes := cleanFragment(normalizeFragment(sections[i].Body), seenParagraphs)
			sections[i].Body = cleaned
			notes = append(notes, fragNotes...)
			walk(sections[i].Subsections)
		}
	}
	walk(out.Sections)

	markPinned(out, p.pinnedURLs)
	renumberCitations(out)
	fixHeadings(out)
	buildTOC(out)

	if violations := validate(out); len(violations) > 0 {
		notes = append(notes, violations...)
		return core.NewStageReport("post", core.StageWarn, strings.Join(notes, "; "))
	}
	if len(notes) > 0 {
		return core.NewStageReport("post", core.StageWarn, strings.Join(notes, "; "))
	}
	return core.NewStageReport("post", core.StageOK, "")
}

// inlineOnly applies the inline normalization passes to plain-text
// fields that never carry block markup.
func inlineOnly(s string) string {
	s = decodeDoubleEntities(s)
	s = boldToken.ReplaceAllString(s, "<strong>$1</strong>")
	return emToken.ReplaceAllString(s, "<em>$1</em>")
}

// stopwords end truncated list items; a short item ending on one was cut
// off mid-sentence by the model.
var stopwords = map[string]bool{
	"of": true, "by": true, "the": true, "and": true, "with": true,
	"for": true, "to": true, "in": true, "on": true, "at": true,
	"from": true, "a": true, "an": true,
}

// escapedBlockTag restores block tags the model escaped into text.
var escapedBlockTag = regexp.MustCompile(`&lt;(/?(?:p|ul|ol|li))&gt;`)

// whitespaceRun normalizes paragraph text for duplicate detection.
var whitespaceRun = regexp.MustCompile(`\s+`)

// cleanFragment runs the tree passes over one normalized fragment:
// truncated-item drops, list-echo and duplicate-paragraph removal, and
// orphan cleanup. seenParagraphs persists across fragments so duplicate
// paragraphs collapse article-wide.
func cleanFragment(fragment string, seenParagraphs map[string]bool) (string, []string) {
	fragment = escapedBlockTag.ReplaceAllString(fragment, "<$1>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment, []string{fmt.Sprintf("fragment parse: %v", err)}
	}
	var notes []string
	body := doc.Find("body")

	// Truncated and fragment list items.
	body.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		words := strings.Fields(text)
		last := ""
		if len(words) > 0 {
			last = strings.ToLower(strings.Trim(words[len(words)-1], ".,;:"))
		}
		switch {
		case stopwords[last] && len(words) < 5:
			li.Remove()
		case stopwords[last]:
			notes = append(notes, fmt.Sprintf("list item may be truncated: %q", truncateNote(text)))
		}
	})

	// Paragraph echoed by the list right after it.
	body.Find("p").Each(func(_ int, para *goquery.Selection) {
		next := para.Next()
		if !next.Is("ul") {
			return
		}
		if listEchoesParagraph(para, next) {
			para.Remove()
		}
	})

	// Article-wide duplicate paragraphs collapse to the first occurrence.
	body.Find("p").Each(func(_ int, para *goquery.Selection) {
		key := whitespaceRun.ReplaceAllString(strings.TrimSpace(para.Text()), " ")
		if key == "" {
			return
		}
		if seenParagraphs[key] {
			para.Remove()
			return
		}
		seenParagraphs[key] = true
	})

	// Orphans: empty paragraphs, items, lists and divs.
	for _, selector := range []string{"li", "p", "ul", "ol", "div"} {
		body.Find(selector).Each(func(_ int, el *goquery.Selection) {
			if strings.TrimSpace(el.Text()) == "" && el.Children().Length() == 0 {
				el.Remove()
			}
		})
	}

	html, err := body.Html()
	if err != nil {
		return fragment, notes
	}
	return strings.TrimSpace(html), notes
}

// listEchoesParagraph reports whether every list item matches one of the
// paragraph's sentences.
func listEchoesParagraph(para, list *goquery.Selection) bool {
	sentences := make(map[string]bool)
	for _, s := range regexp.MustCompile(`[.!?;:]`).Split(para.Text(), -1) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			sentences[s] = true
		}
	}

	matched := false
	echoes := true
	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		item := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(li.Text()), ".")))
		if item == "" {
			return
		}
		matched = true
		if !sentences[item] {
			echoes = false
		}
	})
	return matched && echoes
}

func truncateNote(s string) string {
	if len(s) > 60 {
		return s[:60]
	}
	return s
}

// validate asserts the post-processing invariants on the cleaned output.
func validate(out *core.ArticleOutput) []string {
	var violations []string

	// Citation list must be exactly 1..n.
	for i, src := range out.Citations {
		if src.N != i+1 {
			violations = append(violations, fmt.Sprintf("citation list not contiguous at position %d", i))
			break
		}
	}

	// Every marker must reference an existing citation and no raw
	// markdown bold may survive.
	n := len(out.Citations)
	for _, body := range bodyFields(out) {
		for _, m := range citationMarker.FindAllStringSubmatch(*body, -1) {
			var k int
			fmt.Sscanf(m[1], "%d", &k)
			if k < 1 || k > n {
				violations = append(violations, fmt.Sprintf("dangling citation marker [%d]", k))
			}
		}
		if strings.Contains(*body, "**") {
			violations = append(violations, "raw markdown bold survived cleanup")
		}
	}

	for _, entry := range out.TOC {
		if strings.TrimSpace(entry.Label) == "" {
			violations = append(violations, "empty ToC label")
		}
	}
	return violations
}
