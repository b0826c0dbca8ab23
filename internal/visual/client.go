// Package visual wraps the image LLM API and produces raster images for
// article slots.
package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-image-1"

	maxAttempts  = 3
	maxTotalWait = 30 * time.Second
)

// pngMagic is the PNG file signature; every returned byte stream must
// start with it.
var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Client is the image LLM adapter.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewClient creates a new image LLM client. The API key comes from the
// IMAGE_LLM_API_KEY environment variable.
func NewClient() *Client {
	return &Client{
		apiKey:     config.ImageLLMKey(),
		httpClient: &http.Client{Timeout: config.Duration("image.timeout")},
		baseURL:    defaultBaseURL,
		model:      defaultModel,
	}
}

// Name returns the descriptive provider name.
func (c *Client) Name() string { return "image-llm" }

// IsConfigured reports whether credentials are present.
func (c *Client) IsConfigured() bool { return c.apiKey != "" }

// CostPerThousand estimates USD cost per thousand images, reporting only.
func (c *Client) CostPerThousand() float64 { return 40.0 }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generateResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateImage produces a single PNG byte stream for a prompt. Transient
// faults (429, 503, timeouts) are retried with exponential backoff, at most
// three attempts and at most 30 seconds of cumulative waiting. Auth and
// invalid-prompt errors surface immediately.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, core.Errf(core.KindInputInvalid, "image LLM API key is required; set %s", config.EnvImageLLMKey)
	}
	if size == "" {
		size = "1024x1024"
	}

	var lastErr error
	backoff := 2 * time.Second
	var waited time.Duration

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		img, err := c.generateOnce(ctx, prompt, size)
		if err == nil {
			return img, nil
		}

		if !transient(err) {
			return nil, err
		}
		lastErr = err

		if attempt < maxAttempts && waited+backoff <= maxTotalWait {
			logger.Warn("image generation failed, retrying",
				"attempt", attempt, "error", err.Error())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, core.Wrap(core.KindCancelled, ctx.Err(), "image generation cancelled")
			}
			waited += backoff
			backoff *= 2
		}
	}

	return nil, lastErr
}

func (c *Client) generateOnce(ctx context.Context, prompt, size string) ([]byte, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/images/generations", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, core.Wrap(core.KindTimeout, err, "image request timed out")
		}
		return nil, core.Wrap(core.KindProviderUnavailable, err, "image request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.Wrap(core.KindProviderUnavailable, err, "failed to read image response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Parsed below.
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.Errf(core.KindQuotaExhausted, "image provider rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode >= 500:
		return nil, core.Errf(core.KindProviderUnavailable, "image provider error (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, core.Errf(core.KindInputInvalid, "image provider rejected credentials (status %d)", resp.StatusCode)
	default:
		return nil, core.Errf(core.KindInvalidOutput, "image provider rejected request (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, core.Wrap(core.KindInvalidOutput, err, "failed to parse image response")
	}
	if genResp.Error != nil {
		return nil, core.Errf(core.KindInvalidOutput, "image provider error: %s", genResp.Error.Message)
	}
	if len(genResp.Data) == 0 || genResp.Data[0].B64JSON == "" {
		return nil, core.Errf(core.KindInvalidOutput, "image response contained no image data")
	}

	img, err := base64.StdEncoding.DecodeString(genResp.Data[0].B64JSON)
	if err != nil {
		return nil, core.Wrap(core.KindInvalidOutput, err, "failed to decode base64 image")
	}
	if !bytes.HasPrefix(img, pngMagic) {
		return nil, core.Errf(core.KindInvalidOutput, "image payload is not a PNG stream")
	}
	return img, nil
}

func transient(err error) bool {
	switch core.KindOf(err) {
	case core.KindQuotaExhausted, core.KindProviderUnavailable, core.KindTimeout:
		return true
	}
	return false
}
