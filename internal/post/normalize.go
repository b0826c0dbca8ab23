package post

import (
	"fmt"
	"regexp"
	"strings"
)

// Inline markdown tokens. These regexes touch only text that contains no
// angle brackets inside the token, so they cannot cut across tags.
var (
	boldToken = regexp.MustCompile(`\*\*([^*<>]+)\*\*`)
	emToken   = regexp.MustCompile(`\*([^*<>]+)\*`)

	// paraSplit matches a paragraph whose text is an introduction ending
	// in a colon or period followed by dash-bullets.
	paraSplit = regexp.MustCompile(`(?s)^(.*?[:.])\s*-\s+(.*)$`)
	dashSep   = regexp.MustCompile(`\s+-\s+`)

	orderedLine = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)

	blockTag = regexp.MustCompile(`(?s)<p>.*?</p>|<ul>.*?</ul>|<ol>.*?</ol>|<h[2-4]>.*?</h[2-4]>|<table>.*?</table>|<blockquote>.*?</blockquote>`)
)

// normalizeFragment converts the markdown constructs models leave inside
// HTML fragments into HTML and reassembles the fragment into block
// elements. The output consists solely of block-level elements.
func normalizeFragment(fragment string) string {
	s := decodeDoubleEntities(fragment)
	s = boldToken.ReplaceAllString(s, "<strong>$1</strong>")
	s = emToken.ReplaceAllString(s, "<em>$1</em>")

	var b strings.Builder
	last := 0
	for _, loc := range blockTag.FindAllStringIndex(s, -1) {
		writeLoose(&b, s[last:loc[0]])
		writeBlock(&b, s[loc[0]:loc[1]])
		last = loc[1]
	}
	writeLoose(&b, s[last:])

	return reconstructLists(b.String())
}

// writeBlock emits one already-tagged block, splitting paragraphs that
// smuggle dash-bullet lists.
func writeBlock(b *strings.Builder, block string) {
	if strings.HasPrefix(block, "<p>") && strings.HasSuffix(block, "</p>") {
		inner := strings.TrimSuffix(strings.TrimPrefix(block, "<p>"), "</p>")
		if intro, items, ok := splitDashBullets(inner); ok {
			fmt.Fprintf(b, "<p>%s</p>", intro)
			writeList(b, "ul", items)
			return
		}
	}
	b.WriteString(block)
}

// writeLoose wraps bare text between blocks into paragraphs, turning
// markdown bullet and numbered lines into lists.
func writeLoose(b *strings.Builder, loose string) {
	loose = strings.TrimSpace(loose)
	if loose == "" {
		return
	}

	var para []string
	var ul, ol []string

	flushPara := func() {
		if len(para) > 0 {
			fmt.Fprintf(b, "<p>%s</p>", strings.Join(para, " "))
			para = nil
		}
	}
	flushLists := func() {
		if len(ul) > 0 {
			writeList(b, "ul", ul)
			ul = nil
		}
		if len(ol) > 0 {
			writeList(b, "ol", ol)
			ol = nil
		}
	}

	for _, line := range strings.Split(loose, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flushPara()
			flushLists()
		case strings.HasPrefix(line, "- "):
			flushPara()
			ul = append(ul, strings.TrimPrefix(line, "- "))
		case orderedLine.MatchString(line):
			flushPara()
			ol = append(ol, orderedLine.FindStringSubmatch(line)[1])
		default:
			flushLists()
			para = append(para, line)
		}
	}
	flushPara()
	flushLists()
}

func writeList(b *strings.Builder, kind string, items []string) {
	fmt.Fprintf(b, "<%s>", kind)
	for _, item := range items {
		fmt.Fprintf(b, "<li>%s</li>", strings.TrimSpace(item))
	}
	fmt.Fprintf(b, "</%s>", kind)
}

// splitDashBullets detects "Intro: - a - b - c" paragraphs. The rule
// fires only for an introduction ending in a colon or period followed by
// at least two dash-separated items.
func splitDashBullets(inner string) (string, []string, bool) {
	m := paraSplit.FindStringSubmatch(inner)
	if m == nil {
		return "", nil, false
	}
	items := dashSep.Split(m[2], -1)
	if len(items) < 2 {
		return "", nil, false
	}
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return strings.TrimSpace(m[1]), items, true
}

// reconstructLists coalesces adjacent same-kind lists and collapses
// doubly-nested ones.
func reconstructLists(s string) string {
	for _, kind := range []string{"ul", "ol"} {
		open, close := "<"+kind+">", "</"+kind+">"
		adjacent := close + open
		nestedOpen := open + open
		nestedClose := close + close
		for {
			next := strings.ReplaceAll(s, adjacent, "")
			next = strings.ReplaceAll(next, nestedOpen, open)
			next = strings.ReplaceAll(next, nestedClose, close)
			if next == s {
				break
			}
			s = next
		}
	}
	return s
}

// decodeDoubleEntities collapses double-encoded ampersands. It touches
// only the literal token &amp;amp; and is safe on any input.
func decodeDoubleEntities(s string) string {
	for strings.Contains(s, "&amp;amp;") {
		s = strings.ReplaceAll(s, "&amp;amp;", "&amp;")
	}
	return s
}
