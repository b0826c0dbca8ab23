package assets

import (
	"context"
	"fmt"
	"strings"

	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// maxRecreations bounds the brand-style pass per article.
const maxRecreations = 3

// ImageMaker is the slice of the image backend the recreator needs.
type ImageMaker interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, error)
}

// RecreatedAsset pairs a recreated asset with its generated PNG bytes.
type RecreatedAsset struct {
	Asset core.FoundAsset
	PNG   []byte
}

// industryPalettes map an industry keyword to a color direction for
// recreated visuals. Lookup is substring-based; first match wins.
var industryPalettes = []struct {
	keyword string
	palette string
}{
	{"finance", "deep navy and gold with generous whitespace"},
	{"health", "calm teal and soft white with rounded shapes"},
	{"energy", "warm amber and forest green on light backgrounds"},
	{"technology", "electric blue and slate gray with crisp geometry"},
	{"software", "electric blue and slate gray with crisp geometry"},
	{"education", "friendly orange and deep blue with clear labeling"},
	{"legal", "charcoal and muted burgundy with formal composition"},
	{"retail", "vivid accent colors on neutral backgrounds"},
}

const defaultPalette = "balanced neutral tones with one strong accent color"

// toneStyles map the company tone to a rendering style.
var toneStyles = map[string]string{
	"professional":  "clean flat vector illustration, minimal detail",
	"friendly":      "soft rounded illustration with approachable characters",
	"technical":     "precise schematic line-art with labeled parts",
	"playful":       "bold colorful illustration with loose shapes",
	"authoritative": "restrained editorial infographic style",
}

const defaultStyle = "clean flat vector illustration, minimal detail"

// Recreator synthesizes brand-styled versions of found assets whose
// originals cannot be embedded (licensing, resolution, style mismatch).
type Recreator struct {
	maker ImageMaker
}

// NewRecreator creates a recreator over the given image backend.
func NewRecreator(maker ImageMaker) *Recreator {
	return &Recreator{maker: maker}
}

// Recreate synthesizes up to maxRecreations assets in the company's
// visual style. Only informational kinds (chart, diagram, infographic)
// are worth recreating; photos are skipped. Individual generation
// failures skip the asset rather than failing the pass.
func (r *Recreator) Recreate(ctx context.Context, company core.CompanyContext, assets []core.FoundAsset) []RecreatedAsset {
	var out []RecreatedAsset
	for _, a := range assets {
		if len(out) >= maxRecreations {
			break
		}
		if !recreatable(a.Kind) {
			continue
		}

		png, err := r.maker.GenerateImage(ctx, recreationPrompt(company, a), "1024x1024")
		if err != nil {
			logger.Warn("asset recreation failed, skipping",
				"title", a.Title, "error", err.Error())
			continue
		}

		recreated := a
		recreated.URL = ""
		recreated.Recreated = true
		out = append(out, RecreatedAsset{Asset: recreated, PNG: png})
	}
	return out
}

func recreatable(kind core.AssetKind) bool {
	switch kind {
	case core.AssetChart, core.AssetDiagram, core.AssetInfographic:
		return true
	}
	return false
}

func recreationPrompt(company core.CompanyContext, a core.FoundAsset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s: %s.", a.Kind, a.Title)
	if a.Description != "" {
		fmt.Fprintf(&b, " It should convey: %s.", a.Description)
	}
	fmt.Fprintf(&b, " Style: %s.", styleFor(company.Tone))
	fmt.Fprintf(&b, " Color palette: %s.", paletteFor(company.Industry))
	b.WriteString(" No text watermarks, no logos of other companies.")
	return b.String()
}

func paletteFor(industry string) string {
	lower := strings.ToLower(industry)
	for _, entry := range industryPalettes {
		if strings.Contains(lower, entry.keyword) {
			return entry.palette
		}
	}
	return defaultPalette
}

func styleFor(tone string) string {
	if style, ok := toneStyles[strings.ToLower(tone)]; ok {
		return style
	}
	return defaultStyle
}
