// Package llm wraps the Gemini API behind the grounded text-generation
// contract used by every pipeline stage that needs a language model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

const (
	// DefaultModel is the default Gemini model for article generation.
	DefaultModel = "gemini-2.5-flash"

	// minGroundedTimeout is the floor for calls with web-search grounding
	// enabled. Grounded calls may take notably longer than plain ones.
	minGroundedTimeout = 60 * time.Second

	maxAttempts       = 3
	initialBackoff    = 1 * time.Second
	backoffMultiplier = 2
)

// Options configures a single generation call.
type Options struct {
	EnableWebSearch bool          // Gives the model a web-search tool (grounded generation)
	ResponseSchema  *genai.Schema // When set, forces schema-conformant JSON output
	Timeout         time.Duration // Per-call budget; raised to minGroundedTimeout when grounded
	Temperature     *float32
	MaxTokens       int32
}

// Client is the grounded text LLM adapter.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// NewClient creates a new LLM client. The API key comes from the
// TEXT_LLM_API_KEY environment variable.
func NewClient(modelName string) (*Client, error) {
	apiKey := config.TextLLMKey()
	if apiKey == "" {
		return nil, core.Errf(core.KindInputInvalid, "text LLM API key is required; set %s", config.EnvTextLLMKey)
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	gClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{apiKey: apiKey, modelName: modelName, gClient: gClient}, nil
}

// Name returns the descriptive provider name.
func (c *Client) Name() string { return "gemini" }

// IsConfigured reports whether credentials are present.
func (c *Client) IsConfigured() bool { return c.apiKey != "" }

// CostPerThousand estimates USD cost per thousand calls, reporting only.
func (c *Client) CostPerThousand() float64 { return 2.50 }

// Generate produces text (or schema-conformant JSON) for a prompt.
// Transient transport faults are retried with exponential backoff; the
// final outcome carries a core error kind.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.Duration("llm.timeout")
	}
	if opts.EnableWebSearch && timeout < minGroundedTimeout {
		timeout = minGroundedTimeout
	}

	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		cfg.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}
	if opts.EnableWebSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if opts.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = opts.ResponseSchema
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := c.gClient.Models.GenerateContent(callCtx, c.modelName, contents, cfg)
		cancel()

		if err == nil {
			text := resp.Text()
			if text == "" {
				return "", core.Errf(core.KindInvalidOutput, "empty response from model %s", c.modelName)
			}
			return text, nil
		}

		classified := ClassifyError(ctx, err)
		if !retryable(classified) {
			return "", classified
		}
		lastErr = classified

		if attempt < maxAttempts {
			logger.Warn("LLM call failed, retrying",
				"provider", c.Name(), "attempt", attempt, "error", err.Error())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", core.Wrap(core.KindCancelled, ctx.Err(), "generation cancelled")
			}
			backoff *= backoffMultiplier
		}
	}

	return "", lastErr
}

// GenerateJSON generates schema-conformant JSON and decodes it into out.
// A malformed response triggers exactly one repair call that passes the
// bad text back with a fix-to-match-schema instruction; a second failure
// is an invalid-output error.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts Options, out any) error {
	opts.ResponseSchema = schema

	raw, err := c.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(StripCodeFence(raw)), out); err == nil {
		return nil
	}

	logger.Warn("LLM returned malformed JSON, attempting one repair call", "provider", c.Name())

	repairPrompt := fmt.Sprintf(
		"The following text was supposed to be a JSON object matching the requested schema but is malformed. "+
			"Fix it to match the schema exactly. Return only the corrected JSON.\n\n%s", raw)
	repaired, err := c.Generate(ctx, repairPrompt, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(StripCodeFence(repaired)), out); err != nil {
		return core.Wrap(core.KindInvalidOutput, err, "response not schema-conformant after repair attempt")
	}
	return nil
}

// StripCodeFence removes a surrounding markdown code fence, which models
// sometimes emit around JSON despite the response MIME type.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ClassifyError maps transport and API errors onto the pipeline taxonomy.
func ClassifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return core.Wrap(core.KindCancelled, err, "generation cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.Wrap(core.KindTimeout, err, "LLM call exceeded its budget")
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return core.Wrap(core.KindQuotaExhausted, err, "provider signalled rate/quota limit")
		case apiErr.Code >= 500:
			return core.Wrap(core.KindProviderUnavailable, err, "provider returned a server error")
		case apiErr.Code == 401 || apiErr.Code == 403:
			return core.Wrap(core.KindInputInvalid, err, "provider rejected credentials")
		default:
			return core.Wrap(core.KindInvalidOutput, err, "provider rejected the request")
		}
	}

	// Anything else is a transport fault.
	return core.Wrap(core.KindProviderUnavailable, err, "transport error calling provider")
}

func retryable(err error) bool {
	switch core.KindOf(err) {
	case core.KindProviderUnavailable, core.KindQuotaExhausted, core.KindTimeout:
		return true
	}
	return false
}
