// Package core defines the data model shared by every pipeline stage.
package core

import "time"

// KeywordSpec describes one requested article.
type KeywordSpec struct {
	Keyword      string `json:"keyword"`                // Target keyword (non-empty)
	WordCount    int    `json:"word_count,omitempty"`   // Overrides the batch default when > 0
	Instructions string `json:"instructions,omitempty"` // Free-text per-keyword instructions
}

// BatchInput is the validated input for one pipeline run.
type BatchInput struct {
	Keywords          []KeywordSpec `json:"keywords"`           // Ordered; output order follows this
	CompanyURL        string        `json:"company_url"`        // Absolute URL of the company site
	Language          string        `json:"language"`           // BCP-47-like tag, e.g. "en"
	Market            string        `json:"market"`             // ISO-3166 alpha-2, e.g. "US"
	DefaultWordCount  int           `json:"default_word_count"` // Word-count target when a keyword has none
	BatchInstructions string        `json:"batch_instructions,omitempty"`
	MaxParallel       int           `json:"max_parallel,omitempty"` // Article worker bound; default 4
	SkipImages        bool          `json:"skip_images,omitempty"`
	ExportFormats     []string      `json:"export_formats,omitempty"` // Subset of html, markdown, json
}

// AuthorInfo identifies an author the company publishes under.
type AuthorInfo struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Bio   string `json:"bio,omitempty"`
	Email string `json:"email,omitempty"`
}

// CompanyContext is the structured company profile resolved once per batch.
// It is read-only from the start of the article phase.
type CompanyContext struct {
	Name           string            `json:"name"`
	URL            string            `json:"url"`
	Industry       string            `json:"industry"`
	Description    string            `json:"description"`
	Products       []string          `json:"products"`
	TargetAudience string            `json:"target_audience"`
	Tone           string            `json:"tone"`
	VoicePersona   map[string]string `json:"voice_persona,omitempty"`
	Authors        []AuthorInfo      `json:"authors,omitempty"`
	VisualIdentity string            `json:"visual_identity,omitempty"`
}

// PageLabel classifies a sitemap URL. Each URL carries exactly one label.
type PageLabel string

const (
	LabelBlog     PageLabel = "blog"
	LabelProduct  PageLabel = "product"
	LabelService  PageLabel = "service"
	LabelDocs     PageLabel = "docs"
	LabelResource PageLabel = "resource"
	LabelCompany  PageLabel = "company"
	LabelLegal    PageLabel = "legal"
	LabelContact  PageLabel = "contact"
	LabelLanding  PageLabel = "landing"
	LabelTool     PageLabel = "tool"
	LabelOther    PageLabel = "other"
)

// SitemapPage is one classified URL from the company sitemap.
type SitemapPage struct {
	URL        string    `json:"url"`
	Label      PageLabel `json:"label"`
	Confidence float64   `json:"confidence"` // 1.0 for pattern matches, lower for heuristics
}

// SitemapData is the deduplicated, classified view of the company sitemap.
type SitemapData struct {
	Pages  []SitemapPage     `json:"pages"`
	Counts map[PageLabel]int `json:"counts"` // Summary count per label
}

// PagesWithLabel returns the URLs carrying the given label, in crawl order.
func (s *SitemapData) PagesWithLabel(label PageLabel) []string {
	var urls []string
	for _, p := range s.Pages {
		if p.Label == label {
			urls = append(urls, p.URL)
		}
	}
	return urls
}

// BatchContext is the immutable shared state built by the batch phase.
type BatchContext struct {
	Input   BatchInput
	Company CompanyContext
	Sitemap SitemapData
}

// ArticleJob describes one scheduled article.
type ArticleJob struct {
	JobID           string      `json:"job_id"`
	Spec            KeywordSpec `json:"spec"`
	Slug            string      `json:"slug"` // Unique per batch
	Href            string      `json:"href"` // Relative path, "/" + slug
	WordCountTarget int         `json:"word_count_target"`
}

// Section is one body section of an article. Body is an HTML fragment.
type Section struct {
	Heading     string    `json:"heading"`
	Body        string    `json:"body"`
	Subsections []Section `json:"subsections,omitempty"`
}

// QA is a question/answer pair used by the FAQ and PAA blocks.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Source is one citation entry. After post-processing the list is exactly
// 1..n with no gaps or duplicates.
type Source struct {
	N           int        `json:"n"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`
	Pinned      bool       `json:"pinned,omitempty"` // Kept even when unreferenced (e.g. mandated legal citations)
}

// TOCEntry is one table-of-contents label pointing at a section anchor.
type TOCEntry struct {
	Label  string `json:"label"`
	Anchor string `json:"anchor"`
}

// SlotName tags an image slot within an article.
type SlotName string

const (
	SlotHero   SlotName = "hero"
	SlotMid    SlotName = "mid"
	SlotBottom SlotName = "bottom"
)

// ImageSlot is a rendered image reference for one article slot.
type ImageSlot struct {
	Slot SlotName `json:"slot"`
	URL  string   `json:"url"`
	Alt  string   `json:"alt"`
}

// ArticleOutput is the structured article produced by the generator and
// cleaned by the post-processor.
type ArticleOutput struct {
	Headline        string      `json:"headline"`
	Href            string      `json:"href,omitempty"` // Relative canonical path, "/" + slug
	MetaDescription string      `json:"meta_description"`
	Lead            string      `json:"lead"`
	Sections        []Section   `json:"sections"`
	FAQ             []QA        `json:"faq,omitempty"`
	PAA             []QA        `json:"paa,omitempty"`
	Citations       []Source    `json:"citations,omitempty"`
	TOC             []TOCEntry  `json:"toc,omitempty"`
	ComparisonTable string      `json:"comparison_table,omitempty"` // HTML table fragment
	Images          []ImageSlot `json:"images,omitempty"`
	PublishedAt     time.Time   `json:"published_at"`
	Author          string      `json:"author,omitempty"`
}

// AssetKind classifies a found image asset.
type AssetKind string

const (
	AssetPhoto        AssetKind = "photo"
	AssetIllustration AssetKind = "illustration"
	AssetInfographic  AssetKind = "infographic"
	AssetChart        AssetKind = "chart"
	AssetDiagram      AssetKind = "diagram"
)

// FoundAsset is one candidate image reference produced by the asset finder.
type FoundAsset struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SourceSite  string    `json:"source_site"`
	Kind        AssetKind `json:"kind"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	License     string    `json:"license,omitempty"`
	Recreated   bool      `json:"recreated,omitempty"` // True when synthesized in brand style
}
