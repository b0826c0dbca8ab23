package post

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"wordsmith/internal/core"
)

func TestNormalizeMixedFragment(t *testing.T) {
	in := `<p>Benefits: - Fast - Cheap - Safe</p>**Conclusion:** use it.`
	want := `<p>Benefits:</p><ul><li>Fast</li><li>Cheap</li><li>Safe</li></ul><p><strong>Conclusion:</strong> use it.</p>`

	got := normalizeFragment(in)
	if got != want {
		t.Errorf("normalizeFragment:\n got  %q\n want %q", got, want)
	}
	if again := normalizeFragment(got); again != want {
		t.Errorf("normalization not idempotent:\n got %q", again)
	}
}

func TestNormalizeMarkdownLines(t *testing.T) {
	in := "Intro line.\n- first point here\n- second point here\n1. step one now\n2. step two now"
	want := `<p>Intro line.</p><ul><li>first point here</li><li>second point here</li></ul><ol><li>step one now</li><li>step two now</li></ol>`

	if got := normalizeFragment(in); got != want {
		t.Errorf("normalizeFragment:\n got  %q\n want %q", got, want)
	}
}

func TestReconstructLists(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<ul><li>a b c</li></ul><ul><li>d e f</li></ul>", "<ul><li>a b c</li><li>d e f</li></ul>"},
		{"<ul><ul><li>a b c</li></ul></ul>", "<ul><li>a b c</li></ul>"},
		{"<ol><li>x y z</li></ol>", "<ol><li>x y z</li></ol>"},
	}
	for _, tt := range tests {
		if got := reconstructLists(tt.in); got != tt.want {
			t.Errorf("reconstructLists(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeDoubleEntities(t *testing.T) {
	if got := decodeDoubleEntities("R&amp;amp;amp;D and R&amp;D"); got != "R&amp;D and R&amp;D" {
		t.Errorf("decodeDoubleEntities = %q", got)
	}
}

func TestCleanFragmentDropsTruncatedItems(t *testing.T) {
	in := `<ul><li>cut off by the</li><li>this complete item stands entirely on its own</li></ul>`
	got, _ := cleanFragment(in, map[string]bool{})
	want := `<ul><li>this complete item stands entirely on its own</li></ul>`
	if got != want {
		t.Errorf("cleanFragment = %q, want %q", got, want)
	}
}

func TestCleanFragmentFlagsLongTruncatedItems(t *testing.T) {
	in := `<ul><li>one long item that still somehow ends with the word of</li></ul>`
	got, notes := cleanFragment(in, map[string]bool{})
	if got != in {
		t.Errorf("long item must be kept, got %q", got)
	}
	if len(notes) != 1 {
		t.Errorf("expected one truncation note, got %v", notes)
	}
}

func TestCleanFragmentDropsEchoedParagraph(t *testing.T) {
	in := `<p>Fast. Cheap. Safe.</p><ul><li>Fast</li><li>Cheap</li></ul>`
	got, _ := cleanFragment(in, map[string]bool{})
	want := `<ul><li>Fast</li><li>Cheap</li></ul>`
	if got != want {
		t.Errorf("cleanFragment = %q, want %q", got, want)
	}
}

func TestCleanFragmentKeepsNonEchoList(t *testing.T) {
	in := `<p>Fast. Cheap.</p><ul><li>Unrelated item text</li></ul>`
	got, _ := cleanFragment(in, map[string]bool{})
	if got != in {
		t.Errorf("non-echo paragraph must survive, got %q", got)
	}
}

func TestCleanFragmentCollapsesDuplicateParagraphs(t *testing.T) {
	seen := map[string]bool{}
	first, _ := cleanFragment(`<p>Same   text here.</p>`, seen)
	second, _ := cleanFragment(`<p>Same text here.</p>`, seen)
	if first == "" {
		t.Error("first occurrence must be kept")
	}
	if second != "" {
		t.Errorf("duplicate paragraph must be dropped, got %q", second)
	}
}

func TestCleanFragmentRemovesOrphans(t *testing.T) {
	in := `<p>Real content stays.</p><p>  </p><ul></ul><div></div>`
	got, _ := cleanFragment(in, map[string]bool{})
	if got != `<p>Real content stays.</p>` {
		t.Errorf("cleanFragment = %q", got)
	}
}

func TestCleanFragmentUnescapesBlockTags(t *testing.T) {
	in := `&lt;p&gt;Escaped but real.&lt;/p&gt;`
	got, _ := cleanFragment(in, map[string]bool{})
	if got != `<p>Escaped but real.</p>` {
		t.Errorf("cleanFragment = %q", got)
	}
}

func draft() *core.ArticleOutput {
	return &core.ArticleOutput{
		Headline:        "Solar Panels",
		MetaDescription: "desc",
		Lead:            "Lead paragraph.",
		Sections: []core.Section{
			{Heading: "Costs", Body: `<p>Panels cost money [2]. Maintenance is cheap [2]. Resale helps [5].</p>`},
			{Heading: "What is What is net metering?", Body: `<p>Feeding power back.</p>`},
		},
		Citations: []core.Source{
			{N: 2, Title: "Cost report", URL: "https://example.com/costs"},
			{N: 5, Title: "Resale study", URL: "https://example.com/resale"},
			{N: 7, Title: "Unreferenced", URL: "https://example.com/unref"},
		},
	}
}

func TestProcessRenumbersCitations(t *testing.T) {
	out := draft()
	report := NewProcessor(nil).Process(out)
	if report.Status == core.StageFail {
		t.Fatalf("unexpected fail: %+v", report)
	}

	body := out.Sections[0].Body
	if body != `<p>Panels cost money [1]. Maintenance is cheap [1]. Resale helps [2].</p>` {
		t.Errorf("markers not renumbered: %q", body)
	}
	if len(out.Citations) != 2 {
		t.Fatalf("citations length = %d, want 2", len(out.Citations))
	}
	if out.Citations[0].N != 1 || out.Citations[0].URL != "https://example.com/costs" {
		t.Errorf("citation 1 wrong: %+v", out.Citations[0])
	}
	if out.Citations[1].N != 2 || out.Citations[1].URL != "https://example.com/resale" {
		t.Errorf("citation 2 wrong: %+v", out.Citations[1])
	}
}

func TestProcessKeepsPinnedCitations(t *testing.T) {
	out := draft()
	NewProcessor([]string{"https://example.com/unref"}).Process(out)
	if len(out.Citations) != 3 {
		t.Fatalf("citations length = %d, want 3 with pin", len(out.Citations))
	}
	last := out.Citations[2]
	if last.URL != "https://example.com/unref" || last.N != 3 || !last.Pinned {
		t.Errorf("pinned citation wrong: %+v", last)
	}
}

func TestProcessFixesHeadingsAndTOC(t *testing.T) {
	out := draft()
	NewProcessor(nil).Process(out)

	if out.Sections[1].Heading != "What is net metering?" {
		t.Errorf("double prefix not fixed: %q", out.Sections[1].Heading)
	}
	if len(out.TOC) != 2 {
		t.Fatalf("TOC length = %d", len(out.TOC))
	}
	if out.TOC[1].Label != "net metering" {
		t.Errorf("ToC label = %q", out.TOC[1].Label)
	}
	if out.TOC[0].Anchor != "costs" {
		t.Errorf("ToC anchor = %q", out.TOC[0].Anchor)
	}
}

func TestProcessIdempotent(t *testing.T) {
	out := draft()
	p := NewProcessor(nil)
	p.Process(out)

	snapshot := *out
	snapshotSections := append([]core.Section(nil), out.Sections...)
	p.Process(out)

	if !reflect.DeepEqual(out.Sections, snapshotSections) {
		t.Errorf("sections changed on second run:\n%+v\nvs\n%+v", out.Sections, snapshotSections)
	}
	if !reflect.DeepEqual(out.Citations, snapshot.Citations) {
		t.Errorf("citations changed on second run")
	}
	if !reflect.DeepEqual(out.TOC, snapshot.TOC) {
		t.Errorf("TOC changed on second run")
	}
}

func TestProcessDropsDanglingMarkers(t *testing.T) {
	out := &core.ArticleOutput{
		Lead:     "Claim [9] with no source.",
		Sections: []core.Section{{Heading: "H", Body: "<p>Fine text here.</p>"}},
	}
	NewProcessor(nil).Process(out)
	if out.Lead != "Claim  with no source." {
		t.Errorf("dangling marker not removed: %q", out.Lead)
	}
	if len(out.Citations) != 0 {
		t.Errorf("citations = %+v, want empty", out.Citations)
	}
}

func TestTOCLabelCleanup(t *testing.T) {
	tests := []struct {
		heading, want string
	}{
		{"What is net metering?", "net metering"},
		{"How does a solar inverter work", "a solar inverter work"},
		{"Costs", "Costs"},
		{
			"Why are extremely long heading labels truncated at a word boundary instead of mid-word",
			"extremely long heading labels truncated at a word…",
		},
	}
	for _, tt := range tests {
		if got := tocLabel(tt.heading); got != tt.want {
			t.Errorf("tocLabel(%q) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}

func TestTOCLabelTruncatesOnRuneBoundaries(t *testing.T) {
	label := tocLabel(strings.Repeat("é", 60))
	if !utf8.ValidString(label) {
		t.Fatalf("truncation split a rune: %q", label)
	}
	runes := []rune(label)
	if len(runes) != 51 || runes[50] != '…' {
		t.Errorf("label = %q (%d runes), want 50 runes plus ellipsis", label, len(runes))
	}

	spaced := tocLabel(strings.Repeat("überlange Überschrift ", 5))
	if !utf8.ValidString(spaced) {
		t.Fatalf("truncation split a rune: %q", spaced)
	}
	if !strings.HasSuffix(spaced, "…") || strings.Contains(spaced, "�") {
		t.Errorf("spaced label = %q", spaced)
	}
}
