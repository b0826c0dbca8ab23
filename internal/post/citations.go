package post

import (
	"fmt"
	"regexp"
	"strings"

	"wordsmith/internal/core"
)

// citationMarker is the single canonical in-body citation form.
var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// jsonLDBlock matches JSON-LD script payloads; markers inside them are
// data, not references, and get removed before collection.
var jsonLDBlock = regexp.MustCompile(`(?s)<script[^>]*application/ld\+json[^>]*>.*?</script>`)

// renumberCitations rewrites every in-body marker so the used citation
// numbers form a contiguous 1..n in body order of first appearance, and
// reorders the citation list to match. Unreferenced citations are
// dropped unless pinned.
func renumberCitations(out *core.ArticleOutput) {
	bodies := bodyFields(out)

	// Strip markers from JSON-LD payloads first.
	for _, body := range bodies {
		*body = jsonLDBlock.ReplaceAllStringFunc(*body, func(block string) string {
			return citationMarker.ReplaceAllString(block, "")
		})
	}

	byOld := make(map[int]core.Source, len(out.Citations))
	for _, src := range out.Citations {
		byOld[src.N] = src
	}

	// Collect referenced numbers in body order of first appearance.
	// Markers without a matching citation entry are dangling and get
	// removed rather than renumbered.
	oldToNew := make(map[int]int)
	var order []int
	for _, body := range bodies {
		for _, m := range citationMarker.FindAllStringSubmatch(*body, -1) {
			var old int
			fmt.Sscanf(m[1], "%d", &old)
			if _, exists := byOld[old]; !exists {
				continue
			}
			if _, seen := oldToNew[old]; !seen {
				oldToNew[old] = len(order) + 1
				order = append(order, old)
			}
		}
	}

	// Rewrite markers.
	for _, body := range bodies {
		*body = citationMarker.ReplaceAllStringFunc(*body, func(marker string) string {
			var old int
			fmt.Sscanf(marker, "[%d]", &old)
			newN, ok := oldToNew[old]
			if !ok {
				return ""
			}
			return fmt.Sprintf("[%d]", newN)
		})
	}

	// Rebuild the list: referenced citations in new order, then pinned
	// unreferenced ones appended with continuing numbers.
	var rebuilt []core.Source
	for newN, old := range order {
		src := byOld[old]
		src.N = newN + 1
		rebuilt = append(rebuilt, src)
	}
	for _, src := range out.Citations {
		if _, referenced := oldToNew[src.N]; referenced || !src.Pinned {
			continue
		}
		src.N = len(rebuilt) + 1
		rebuilt = append(rebuilt, src)
	}
	out.Citations = rebuilt
}

// bodyFields returns pointers to every text field that may carry
// citation markers, in reading order.
func bodyFields(out *core.ArticleOutput) []*string {
	fields := []*string{&out.Lead}
	var walk func(sections []core.Section)
	walk = func(sections []core.Section) {
		for i := range sections {
			fields = append(fields, &sections[i].Body)
			walk(sections[i].Subsections)
		}
	}
	walk(out.Sections)
	for i := range out.FAQ {
		fields = append(fields, &out.FAQ[i].Answer)
	}
	for i := range out.PAA {
		fields = append(fields, &out.PAA[i].Answer)
	}
	return fields
}

// markPinned flags citations whose URL is in the pinned set so
// renumbering keeps them even when unreferenced.
func markPinned(out *core.ArticleOutput, pinnedURLs []string) {
	if len(pinnedURLs) == 0 {
		return
	}
	pinned := make(map[string]bool, len(pinnedURLs))
	for _, u := range pinnedURLs {
		pinned[strings.TrimSpace(u)] = true
	}
	for i := range out.Citations {
		if pinned[out.Citations[i].URL] {
			out.Citations[i].Pinned = true
		}
	}
}
