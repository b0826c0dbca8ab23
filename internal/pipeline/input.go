package pipeline

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"

	"wordsmith/internal/core"
)

const (
	defaultLanguage    = "en"
	defaultMarket      = "US"
	defaultWordCount   = 1500
	defaultMaxParallel = 4
)

var validExportFormats = map[string]bool{"html": true, "markdown": true, "json": true}

// ParseBatchInput decodes and validates a batch request. Every rejection
// carries the input-invalid kind; nothing is attempted on bad input.
func ParseBatchInput(r io.Reader) (core.BatchInput, error) {
	var input core.BatchInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return input, core.Wrap(core.KindInputInvalid, err, "batch input is not valid JSON")
	}
	if err := ValidateBatchInput(&input); err != nil {
		return input, err
	}
	return input, nil
}

// ValidateBatchInput checks required fields and fills defaults in place.
func ValidateBatchInput(input *core.BatchInput) error {
	if len(input.Keywords) == 0 {
		return core.Errf(core.KindInputInvalid, "at least one keyword is required")
	}
	for i, spec := range input.Keywords {
		if strings.TrimSpace(spec.Keyword) == "" {
			return core.Errf(core.KindInputInvalid, "keyword %d is empty", i)
		}
		if spec.WordCount < 0 {
			return core.Errf(core.KindInputInvalid, "keyword %d has a negative word count", i)
		}
	}

	u, err := url.Parse(input.CompanyURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return core.Errf(core.KindInputInvalid, "company_url must be an absolute http(s) URL, got %q", input.CompanyURL)
	}

	if input.Language == "" {
		input.Language = defaultLanguage
	}
	if input.Market == "" {
		input.Market = defaultMarket
	}
	input.Market = strings.ToUpper(input.Market)
	if input.DefaultWordCount <= 0 {
		input.DefaultWordCount = defaultWordCount
	}
	if input.MaxParallel <= 0 {
		input.MaxParallel = defaultMaxParallel
	}

	if len(input.ExportFormats) == 0 {
		input.ExportFormats = []string{"html", "markdown", "json"}
	}
	for _, format := range input.ExportFormats {
		if !validExportFormats[format] {
			return core.Errf(core.KindInputInvalid, "unknown export format %q", format)
		}
	}
	return nil
}

// BuildJobs turns validated input into scheduled jobs with unique slugs.
func BuildJobs(input core.BatchInput, newID func() string) []core.ArticleJob {
	keywords := make([]string, len(input.Keywords))
	for i, spec := range input.Keywords {
		keywords[i] = spec.Keyword
	}
	slugs := core.UniqueSlugs(keywords)

	jobs := make([]core.ArticleJob, len(input.Keywords))
	for i, spec := range input.Keywords {
		target := spec.WordCount
		if target <= 0 {
			target = input.DefaultWordCount
		}
		jobs[i] = core.ArticleJob{
			JobID:           newID(),
			Spec:            spec,
			Slug:            slugs[i],
			Href:            "/" + slugs[i],
			WordCountTarget: target,
		}
	}
	return jobs
}
