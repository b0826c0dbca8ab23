package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"wordsmith/internal/core"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.input); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want core.ErrKind
	}{
		{"rate limit", genai.APIError{Code: 429, Message: "quota"}, core.KindQuotaExhausted},
		{"server error", genai.APIError{Code: 503, Message: "unavailable"}, core.KindProviderUnavailable},
		{"auth", genai.APIError{Code: 401, Message: "bad key"}, core.KindInputInvalid},
		{"bad request", genai.APIError{Code: 400, Message: "bad schema"}, core.KindInvalidOutput},
		{"deadline", context.DeadlineExceeded, core.KindTimeout},
		{"transport", errors.New("connection refused"), core.KindProviderUnavailable},
		{"wrapped api error", fmt.Errorf("call: %w", genai.APIError{Code: 429}), core.KindQuotaExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(ctx, tt.err)
			if core.KindOf(got) != tt.want {
				t.Errorf("ClassifyError(%v) kind = %q, want %q", tt.err, core.KindOf(got), tt.want)
			}
		})
	}
}

func TestClassifyErrorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := ClassifyError(ctx, ctx.Err())
	if core.KindOf(got) != core.KindCancelled {
		t.Errorf("cancelled context should classify as cancelled, got %q", core.KindOf(got))
	}
}

func TestRetryable(t *testing.T) {
	if !retryable(core.Errf(core.KindProviderUnavailable, "down")) {
		t.Error("provider unavailable must be retryable")
	}
	if !retryable(core.Errf(core.KindQuotaExhausted, "quota")) {
		t.Error("quota must be retryable in-adapter")
	}
	if retryable(core.Errf(core.KindInvalidOutput, "bad")) {
		t.Error("invalid output must not be retried")
	}
	if retryable(core.Errf(core.KindCancelled, "cancelled")) {
		t.Error("cancellation must not be retried")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("TEXT_LLM_API_KEY", "")
	if _, err := NewClient(""); err == nil {
		t.Error("expected error without API key")
	}
}
