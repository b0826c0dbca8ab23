package search

import (
	"context"
	"fmt"
	"strings"

	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// Attempt records one provider try for the stage report.
type Attempt struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"` // "ok" or the failover reason
}

// RouteReport accumulates the providers attempted for one logical operation.
type RouteReport struct {
	Operation string    `json:"operation"`
	Attempts  []Attempt `json:"attempts"`
	Switched  bool      `json:"switched"` // True when a fallback provider served the call
}

// Describe renders the report for inclusion in stage report details.
func (r *RouteReport) Describe() string {
	parts := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Provider, a.Outcome))
	}
	return fmt.Sprintf("%s: %s", r.Operation, strings.Join(parts, ", "))
}

// Routed is one provider entry for a logical operation.
type Routed[T any] struct {
	Name string
	Call func(ctx context.Context) (T, error)
}

// Route tries providers in order. Failover happens only on quota exhaustion
// or provider unavailability (after in-provider retries); every other error
// propagates unchanged. When no provider succeeds the most severe error
// seen is returned.
func Route[T any](ctx context.Context, operation string, providers []Routed[T]) (T, *RouteReport, error) {
	var zero T
	report := &RouteReport{Operation: operation}

	if len(providers) == 0 {
		return zero, report, fmt.Errorf("%s: %w", operation, ErrNoProvider)
	}

	var worst error
	for i, p := range providers {
		result, err := p.Call(ctx)
		if err == nil {
			report.Attempts = append(report.Attempts, Attempt{Provider: p.Name, Outcome: "ok"})
			report.Switched = i > 0
			return result, report, nil
		}

		kind := core.KindOf(err)
		report.Attempts = append(report.Attempts, Attempt{Provider: p.Name, Outcome: string(kind)})
		worst = core.MoreSevere(worst, err)

		switch kind {
		case core.KindQuotaExhausted, core.KindProviderUnavailable:
			if i < len(providers)-1 {
				logger.Warn("provider failover", "operation", operation,
					"from", p.Name, "to", providers[i+1].Name, "reason", string(kind))
			}
			continue
		default:
			// InvalidOutput, cancellation and the rest propagate.
			return zero, report, err
		}
	}

	return zero, report, worst
}

// ImageRouter composes image SERP providers for the image-search operation.
type ImageRouter struct {
	providers []ImageProvider
}

// NewImageRouter builds a router over the configured provider order,
// skipping providers without credentials.
func NewImageRouter(providers ...ImageProvider) *ImageRouter {
	var configured []ImageProvider
	for _, p := range providers {
		if p.IsConfigured() {
			configured = append(configured, p)
		}
	}
	return &ImageRouter{providers: configured}
}

// Providers returns the configured providers in try order.
func (r *ImageRouter) Providers() []ImageProvider { return r.providers }

// SearchImages routes an image search across the provider order.
func (r *ImageRouter) SearchImages(ctx context.Context, query string, q ImageQuery) ([]ImageHit, *RouteReport, error) {
	routed := make([]Routed[[]ImageHit], 0, len(r.providers))
	for _, p := range r.providers {
		p := p
		routed = append(routed, Routed[[]ImageHit]{
			Name: p.Name(),
			Call: func(ctx context.Context) ([]ImageHit, error) {
				return p.SearchImages(ctx, query, q)
			},
		})
	}
	return Route(ctx, "image-search", routed)
}
