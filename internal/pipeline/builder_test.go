package pipeline

import (
	"testing"

	"github.com/spf13/viper"

	"wordsmith/internal/core"
)

func TestBuildRejectsUnknownImageProvider(t *testing.T) {
	t.Setenv("TEXT_LLM_API_KEY", "test-key")
	viper.Set("serp.image_providers", []string{"bogus"})
	t.Cleanup(func() { viper.Set("serp.image_providers", nil) })

	_, err := NewBuilder(t.TempDir()).
		WithCrawler(&stubCrawler{}).
		WithResolver(&stubResolver{}).
		WithArticles(&stubArticles{}).
		WithPostProcessor(stubPost{}).
		WithRenderer(stubRenderer{}).
		WithQuality(&stubQuality{}).
		Build()
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
	if !core.IsKind(err, core.KindInputInvalid) {
		t.Errorf("kind = %q, want input_invalid", core.KindOf(err))
	}
}

func TestBuildHonorsProviderOrder(t *testing.T) {
	t.Setenv("TEXT_LLM_API_KEY", "test-key")
	viper.Set("serp.image_providers", []string{"mock"})
	t.Cleanup(func() { viper.Set("serp.image_providers", nil) })

	p, err := NewBuilder(t.TempDir()).
		WithCrawler(&stubCrawler{}).
		WithResolver(&stubResolver{}).
		WithArticles(&stubArticles{}).
		WithPostProcessor(stubPost{}).
		WithRenderer(stubRenderer{}).
		WithQuality(&stubQuality{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.assets == nil {
		t.Fatal("asset finder not wired")
	}
}
