package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindExtraction(t *testing.T) {
	base := Errf(KindQuotaExhausted, "rate limited by provider")
	wrapped := fmt.Errorf("search images: %w", base)

	if !IsKind(wrapped, KindQuotaExhausted) {
		t.Error("expected quota kind through wrap chain")
	}
	if IsKind(wrapped, KindTimeout) {
		t.Error("unexpected timeout kind")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain error should have empty kind")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindIO, nil, "write") != nil {
		t.Error("wrapping nil must yield nil")
	}
}

func TestMoreSevere(t *testing.T) {
	unavailable := Errf(KindProviderUnavailable, "transport down")
	quota := Errf(KindQuotaExhausted, "quota")
	invalid := Errf(KindInvalidOutput, "bad shape")

	if MoreSevere(unavailable, quota) != quota {
		t.Error("quota should outrank unavailable")
	}
	if MoreSevere(invalid, quota) != invalid {
		t.Error("invalid output should outrank quota")
	}
	if MoreSevere(nil, quota) != quota || MoreSevere(quota, nil) != quota {
		t.Error("nil argument must lose")
	}
}

func TestBatchReportExitCode(t *testing.T) {
	tests := []struct {
		name   string
		report BatchReport
		want   int
	}{
		{"all ok", BatchReport{ArticlesTotal: 3, ArticlesSuccessful: 3}, 0},
		{"partial", BatchReport{ArticlesTotal: 5, ArticlesSuccessful: 4, ArticlesFailed: 1}, 1},
		{"nothing attempted", BatchReport{}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStageReportTruncation(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	r := NewStageReport("article-generate", StageWarn, string(long))
	if len(r.Details) != maxStageDetail {
		t.Errorf("details length = %d, want %d", len(r.Details), maxStageDetail)
	}
}
