// Package search provides the image/text SERP provider adapters and the
// fallback router that composes them.
package search

import (
	"context"
)

// ImageHit is one image result from a SERP provider.
type ImageHit struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Source    string `json:"source"`    // Page hosting the image
	Thumbnail string `json:"thumbnail,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	License   string `json:"license,omitempty"`
}

// ImageQuery configures an image search request.
type ImageQuery struct {
	Size     string // e.g. "large"
	License  string // e.g. "commercial"
	Type     string // e.g. "photo", "clipart"
	Max      int    // Maximum hits to return
	Language string // BCP-47-like tag
	Market   string // ISO-3166 alpha-2
}

// ImageProvider is the contract every image SERP adapter implements.
type ImageProvider interface {
	// SearchImages performs one logical image search.
	SearchImages(ctx context.Context, query string, q ImageQuery) ([]ImageHit, error)

	// Name returns the descriptive provider name.
	Name() string

	// IsConfigured probes whether credentials are present.
	IsConfigured() bool

	// CostPerThousand estimates USD cost per thousand queries (reporting only).
	CostPerThousand() float64
}

// ProviderType identifies an image SERP adapter.
type ProviderType string

const (
	ProviderTypeSerpAPI  ProviderType = "serpapi"
	ProviderTypeTaskSERP ProviderType = "taskserp"
	ProviderTypeMock     ProviderType = "mock"
)

// NewImageProvider creates an image SERP adapter of the specified type.
func NewImageProvider(providerType ProviderType) (ImageProvider, error) {
	switch providerType {
	case ProviderTypeSerpAPI:
		return NewSerpAPIImages(), nil
	case ProviderTypeTaskSERP:
		return NewTaskSERPImages(), nil
	case ProviderTypeMock:
		return NewMockImages(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
