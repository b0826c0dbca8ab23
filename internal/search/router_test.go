package search

import (
	"context"
	"errors"
	"testing"

	"wordsmith/internal/core"
)

func TestNewImageProvider(t *testing.T) {
	tests := []struct {
		typ      ProviderType
		wantName string
		wantErr  bool
	}{
		{ProviderTypeSerpAPI, "serpapi-images", false},
		{ProviderTypeTaskSERP, "taskserp-images", false},
		{ProviderTypeMock, "mock-images", false},
		{ProviderType("bogus"), "", true},
	}
	for _, tt := range tests {
		p, err := NewImageProvider(tt.typ)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedProvider) {
				t.Errorf("NewImageProvider(%q) err = %v, want ErrUnsupportedProvider", tt.typ, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewImageProvider(%q): %v", tt.typ, err)
			continue
		}
		if p.Name() != tt.wantName {
			t.Errorf("NewImageProvider(%q).Name() = %q, want %q", tt.typ, p.Name(), tt.wantName)
		}
	}
}

func TestRouteFailsOverOnQuota(t *testing.T) {
	primary := NewMockImages()
	primary.name = "primary"
	primary.Err = core.Errf(core.KindQuotaExhausted, "quota")
	secondary := NewMockImages()
	secondary.name = "secondary"

	router := NewImageRouter(primary, secondary)
	hits, report, err := router.SearchImages(context.Background(), "solar panels", ImageQuery{})
	if err != nil {
		t.Fatalf("expected failover to succeed: %v", err)
	}
	if len(hits) == 0 {
		t.Error("expected hits from secondary")
	}
	if !report.Switched {
		t.Error("report must record the provider switch")
	}
	if len(report.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(report.Attempts))
	}
	if report.Attempts[0].Outcome != string(core.KindQuotaExhausted) {
		t.Errorf("first attempt outcome = %q", report.Attempts[0].Outcome)
	}
	if report.Attempts[1].Outcome != "ok" {
		t.Errorf("second attempt outcome = %q", report.Attempts[1].Outcome)
	}
}

func TestRouteFailsOverOnUnavailable(t *testing.T) {
	primary := NewMockImages()
	primary.Err = core.Errf(core.KindProviderUnavailable, "5xx after retries")
	secondary := NewMockImages()

	router := NewImageRouter(primary, secondary)
	if _, _, err := router.SearchImages(context.Background(), "q", ImageQuery{}); err != nil {
		t.Fatalf("expected failover to succeed: %v", err)
	}
	if secondary.Calls != 1 {
		t.Errorf("secondary calls = %d, want 1", secondary.Calls)
	}
}

func TestRoutePropagatesInvalidOutput(t *testing.T) {
	primary := NewMockImages()
	primary.Err = core.Errf(core.KindInvalidOutput, "unparseable")
	secondary := NewMockImages()

	router := NewImageRouter(primary, secondary)
	_, _, err := router.SearchImages(context.Background(), "q", ImageQuery{})
	if !core.IsKind(err, core.KindInvalidOutput) {
		t.Fatalf("expected invalid_output to propagate, got %v", err)
	}
	if secondary.Calls != 0 {
		t.Error("invalid output must not trigger failover")
	}
}

func TestRouteReturnsMostSevereWhenAllFail(t *testing.T) {
	primary := NewMockImages()
	primary.Err = core.Errf(core.KindProviderUnavailable, "down")
	secondary := NewMockImages()
	secondary.Err = core.Errf(core.KindQuotaExhausted, "quota")

	router := NewImageRouter(primary, secondary)
	_, report, err := router.SearchImages(context.Background(), "q", ImageQuery{})
	if !core.IsKind(err, core.KindQuotaExhausted) {
		t.Errorf("expected most severe (quota) error, got %v", err)
	}
	if len(report.Attempts) != 2 {
		t.Errorf("expected both attempts recorded, got %d", len(report.Attempts))
	}
}

func TestRouteNoProviders(t *testing.T) {
	router := NewImageRouter()
	_, _, err := router.SearchImages(context.Background(), "q", ImageQuery{})
	if err == nil {
		t.Fatal("expected error with no providers")
	}
}

func TestLocationCode(t *testing.T) {
	tests := []struct {
		market string
		want   int
	}{
		{"US", 2840},
		{"UK", 2826},
		{"GB", 2826},
		{"DE", 2276},
		{"XX", 2840}, // Unknown market falls back to US
	}
	for _, tt := range tests {
		if got := LocationCode(tt.market); got != tt.want {
			t.Errorf("LocationCode(%q) = %d, want %d", tt.market, got, tt.want)
		}
	}
}
