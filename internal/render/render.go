// Package render serializes a cleaned article into its export formats:
// a standalone HTML page, a Markdown document and a JSON record.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"wordsmith/internal/core"
)

// Renderer emits the export formats for one article.
type Renderer struct {
	tmpl      *template.Template
	converter *md.Converter
}

// NewRenderer parses the article template and sets up the markdown
// converter.
func NewRenderer() (*Renderer, error) {
	tmpl := template.New("article").Funcs(template.FuncMap{
		"safe":   func(s string) template.HTML { return template.HTML(s) },
		"cite":   citeMarkers,
		"anchor": core.Slugify,
	})
	tmpl, err := tmpl.Parse(articleTemplate)
	if err != nil {
		return nil, fmt.Errorf("article template: %w", err)
	}
	return &Renderer{
		tmpl:      tmpl,
		converter: md.NewConverter("", true, nil),
	}, nil
}

// page is the template context for one article.
type page struct {
	Article       *core.ArticleOutput
	Language      string
	PublishedISO  string
	PublishedDate string
	JSONLD        template.JS
	HeroImage     *core.ImageSlot
	MidImage      *core.ImageSlot
	BottomImage   *core.ImageSlot
	MidIndex      int
}

// HTML renders the article page. Image slots without a URL are omitted
// entirely, never emitted as broken references.
func (r *Renderer) HTML(out *core.ArticleOutput, language string) (string, error) {
	jsonLD, err := buildJSONLD(out)
	if err != nil {
		return "", err
	}

	p := page{
		Article:       out,
		Language:      language,
		PublishedISO:  out.PublishedAt.UTC().Format(time.RFC3339),
		PublishedDate: out.PublishedAt.UTC().Format("January 2, 2006"),
		JSONLD:        template.JS(jsonLD),
		MidIndex:      len(out.Sections) / 2,
	}
	for i := range out.Images {
		img := &out.Images[i]
		if img.URL == "" {
			continue
		}
		switch img.Slot {
		case core.SlotHero:
			p.HeroImage = img
		case core.SlotMid:
			p.MidImage = img
		case core.SlotBottom:
			p.BottomImage = img
		}
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render HTML: %w", err)
	}
	return buf.String(), nil
}

// Markdown converts the rendered HTML page into a Markdown document.
func (r *Renderer) Markdown(html string) (string, error) {
	markdown, err := r.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return markdown, nil
}

// JSON serializes the article record.
func (r *Renderer) JSON(out *core.ArticleOutput) ([]byte, error) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render JSON: %w", err)
	}
	return data, nil
}

// markerPattern is the canonical in-body citation marker.
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// citeMarkers turns [k] markers into links to the citation block, so
// the rendered page carries no bare markers outside citation regions.
func citeMarkers(s string) template.HTML {
	linked := markerPattern.ReplaceAllString(s,
		`<sup class="citation"><a href="#source-$1">[$1]</a></sup>`)
	return template.HTML(linked)
}

// buildJSONLD constructs the schema.org Article payload from clean
// fields; citation markers never appear in it.
func buildJSONLD(out *core.ArticleOutput) (string, error) {
	href := out.Href
	if href == "" {
		href = "/" + core.Slugify(out.Headline)
	}
	doc := map[string]any{
		"@context":         "https://schema.org",
		"@type":            "Article",
		"headline":         out.Headline,
		"description":      out.MetaDescription,
		"datePublished":    out.PublishedAt.UTC().Format(time.RFC3339),
		"mainEntityOfPage": map[string]any{"@type": "WebPage", "@id": href},
	}
	if out.Author != "" {
		doc["author"] = map[string]any{"@type": "Person", "name": out.Author}
	}
	var images []string
	for _, img := range out.Images {
		if img.URL != "" {
			images = append(images, img.URL)
		}
	}
	if len(images) > 0 {
		doc["image"] = images
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("JSON-LD: %w", err)
	}
	return string(data), nil
}
