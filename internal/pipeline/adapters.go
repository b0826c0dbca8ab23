package pipeline

import (
	"context"

	"wordsmith/internal/core"
	"wordsmith/internal/visual"
)

// Metering adapters wrap the billable stages so every successful
// provider call lands in the cost tracker without the stages knowing
// about billing.

type meteredArticles struct {
	inner    ArticleGenerator
	costs    CostTracker
	provider string
	rate     float64
}

func (m *meteredArticles) Generate(ctx context.Context, job core.ArticleJob, batch *core.BatchContext) (core.ArticleOutput, error) {
	out, err := m.inner.Generate(ctx, job, batch)
	if err == nil {
		m.costs.Record(m.provider, m.rate, 1)
	}
	return out, err
}

type meteredAssets struct {
	inner    AssetFinder
	costs    CostTracker
	provider string
	rate     float64
}

func (m *meteredAssets) Find(ctx context.Context, keyword string, batch *core.BatchContext) ([]core.FoundAsset, error) {
	found, err := m.inner.Find(ctx, keyword, batch)
	if err == nil {
		m.costs.Record(m.provider, m.rate, 1)
	}
	return found, err
}

type meteredImages struct {
	inner    ImageGenerator
	costs    CostTracker
	provider string
	rate     float64
}

func (m *meteredImages) Generate(ctx context.Context, prompt string, slot core.SlotName) (visual.SlotImage, error) {
	img, err := m.inner.Generate(ctx, prompt, slot)
	if err == nil {
		m.costs.Record(m.provider, m.rate, 1)
	}
	return img, err
}
