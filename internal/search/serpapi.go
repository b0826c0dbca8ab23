package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// SerpAPIImages implements ImageProvider over the single-request Google
// Images SERP API (primary provider).
type SerpAPIImages struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewSerpAPIImages creates the primary image SERP adapter. The API key
// comes from the SERP_IMAGES_PRIMARY_KEY environment variable.
func NewSerpAPIImages() *SerpAPIImages {
	return &SerpAPIImages{
		apiKey:  config.SerpImagesPrimaryKey(),
		client:  &http.Client{Timeout: config.Duration("serp.request_timeout")},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: "https://serpapi.com/search",
	}
}

// Name returns the descriptive provider name.
func (s *SerpAPIImages) Name() string { return "serpapi-images" }

// IsConfigured reports whether credentials are present.
func (s *SerpAPIImages) IsConfigured() bool { return s.apiKey != "" }

// CostPerThousand estimates USD cost per thousand queries, reporting only.
func (s *SerpAPIImages) CostPerThousand() float64 { return 15.0 }

// SearchImages performs a single-request image search.
func (s *SerpAPIImages) SearchImages(ctx context.Context, query string, q ImageQuery) ([]ImageHit, error) {
	if s.apiKey == "" {
		return nil, core.Errf(core.KindInputInvalid, "primary image SERP key is required; set %s", config.EnvSerpImagesPrimary)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, core.Wrap(core.KindCancelled, err, "image search cancelled")
	}

	params := url.Values{}
	params.Set("engine", "google_images")
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	if q.Max > 0 {
		params.Set("num", strconv.Itoa(q.Max))
	}
	if q.Size != "" {
		params.Set("imgsz", q.Size)
	}
	if q.Type != "" {
		params.Set("imgtype", q.Type)
	}
	if q.License != "" {
		params.Set("tbs", "sur:"+q.License)
	}
	if q.Language != "" {
		params.Set("hl", q.Language)
	}
	if q.Market != "" {
		params.Set("gl", q.Market)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.Wrap(core.KindTimeout, err, "image search timed out")
		}
		return nil, core.Wrap(core.KindProviderUnavailable, err, "image search request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.Errf(core.KindQuotaExhausted, "image SERP rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, core.Errf(core.KindProviderUnavailable, "image SERP error (status %d)", resp.StatusCode)
	default:
		return nil, core.Errf(core.KindInvalidOutput, "image SERP rejected request (status %d)", resp.StatusCode)
	}

	var apiResponse struct {
		ImagesResults []struct {
			Original       string `json:"original"`
			OriginalWidth  int    `json:"original_width"`
			OriginalHeight int    `json:"original_height"`
			Thumbnail      string `json:"thumbnail"`
			Title          string `json:"title"`
			Source         string `json:"source"`
			License        string `json:"license,omitempty"`
		} `json:"images_results"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, core.Wrap(core.KindInvalidOutput, err, "failed to parse image SERP response")
	}
	if apiResponse.Error != "" {
		return nil, core.Errf(core.KindInvalidOutput, "image SERP error: %s", apiResponse.Error)
	}

	hits := make([]ImageHit, 0, len(apiResponse.ImagesResults))
	for _, item := range apiResponse.ImagesResults {
		if item.Original == "" {
			continue
		}
		hits = append(hits, ImageHit{
			URL:       item.Original,
			Title:     item.Title,
			Source:    item.Source,
			Thumbnail: item.Thumbnail,
			Width:     item.OriginalWidth,
			Height:    item.OriginalHeight,
			License:   item.License,
		})
		if q.Max > 0 && len(hits) >= q.Max {
			break
		}
	}

	logger.Info("image search completed", "provider", s.Name(), "query", query, "hits", len(hits))
	return hits, nil
}
