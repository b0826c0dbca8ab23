package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// imagesSearchType is the item type tag marking image records in the
// task-poll backend's nested result envelope.
const imagesSearchType = "images_search"

// organicType marks organic web results in the same envelope.
const organicType = "organic"

const taskSERPBaseURL = "https://api.dataforseo.com/v3"

// taskClient is the shared transport for the task-submit/poll SERP backend.
// Authentication is HTTP Basic over the login/password credential pair.
type taskClient struct {
	login    string
	password string
	client   *http.Client
	baseURL  string
}

func newTaskClient() *taskClient {
	login, password := config.SerpSecondaryCredentials()
	return &taskClient{
		login:    login,
		password: password,
		client:   &http.Client{Timeout: config.Duration("serp.poll_timeout")},
		baseURL:  taskSERPBaseURL,
	}
}

func (c *taskClient) isConfigured() bool { return c.login != "" && c.password != "" }

// taskEnvelope is the provider's response wrapper. Task state lives in
// tasks[0].status_code; image/organic items nest under
// tasks[0].result[0].items.
type taskEnvelope struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		ID            string `json:"id"`
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			Items []json.RawMessage `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

func (c *taskClient) do(ctx context.Context, method, path string, body any) (*taskEnvelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal task request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.login, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.Wrap(core.KindTimeout, err, "task request timed out")
		}
		return nil, core.Wrap(core.KindProviderUnavailable, err, "task request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.Errf(core.KindQuotaExhausted, "task backend rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, core.Errf(core.KindInputInvalid, "task backend rejected credentials")
	case resp.StatusCode >= 500:
		return nil, core.Errf(core.KindProviderUnavailable, "task backend error (status %d)", resp.StatusCode)
	default:
		return nil, core.Errf(core.KindInvalidOutput, "task backend rejected request (status %d)", resp.StatusCode)
	}

	var envelope taskEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, core.Wrap(core.KindInvalidOutput, err, "failed to parse task response")
	}
	return &envelope, nil
}

// taskRequest is the submit body; the backend takes an array of tasks.
type taskRequest struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth,omitempty"`
	Priority     int    `json:"priority,omitempty"`
}

// submitTask posts one task and returns its token.
func (c *taskClient) submitTask(ctx context.Context, path string, task taskRequest) (string, error) {
	envelope, err := c.do(ctx, "POST", path, []taskRequest{task})
	if err != nil {
		return "", err
	}
	if len(envelope.Tasks) == 0 {
		return "", core.Errf(core.KindInvalidOutput, "task submit returned no task entry")
	}
	t := envelope.Tasks[0]
	if !stillProcessing(t.StatusCode) && t.StatusCode != statusDone {
		return "", core.Errf(core.KindProviderUnavailable, "task submit failed: %d %s", t.StatusCode, t.StatusMessage)
	}
	return t.ID, nil
}

// fetchTask polls one task and returns its raw items and status code.
func (c *taskClient) fetchTask(ctx context.Context, path, taskID string) ([]json.RawMessage, int, error) {
	envelope, err := c.do(ctx, "GET", path+"/"+taskID, nil)
	if err != nil {
		return nil, 0, err
	}
	if len(envelope.Tasks) == 0 {
		return nil, 0, core.Errf(core.KindInvalidOutput, "task poll returned no task entry")
	}
	t := envelope.Tasks[0]
	if t.StatusCode != statusDone {
		return nil, t.StatusCode, nil
	}
	if len(t.Result) == 0 {
		return nil, statusDone, nil
	}
	return t.Result[0].Items, statusDone, nil
}

// TaskSERPImages implements ImageProvider over the task-submit/poll backend
// (secondary provider).
type TaskSERPImages struct {
	tc *taskClient
}

// NewTaskSERPImages creates the secondary image SERP adapter. Credentials
// come from SERP_SECONDARY_LOGIN / SERP_SECONDARY_PASSWORD.
func NewTaskSERPImages() *TaskSERPImages {
	return &TaskSERPImages{tc: newTaskClient()}
}

// Name returns the descriptive provider name.
func (t *TaskSERPImages) Name() string { return "taskserp-images" }

// IsConfigured reports whether credentials are present.
func (t *TaskSERPImages) IsConfigured() bool { return t.tc.isConfigured() }

// CostPerThousand estimates USD cost per thousand queries, reporting only.
func (t *TaskSERPImages) CostPerThousand() float64 { return 2.0 }

// imageItem is one nested image record; only items whose type tag equals
// the images-search sentinel carry image data.
type imageItem struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Image struct {
		URL       string `json:"url"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Thumbnail string `json:"thumbnail"`
		License   string `json:"license"`
	} `json:"image"`
}

// SearchImages submits an image search task and polls for its result.
func (t *TaskSERPImages) SearchImages(ctx context.Context, query string, q ImageQuery) ([]ImageHit, error) {
	if !t.tc.isConfigured() {
		return nil, core.Errf(core.KindInputInvalid, "secondary SERP credentials required; set %s and %s",
			config.EnvSerpSecondaryLogin, config.EnvSerpSecondaryPass)
	}

	depth := q.Max
	if depth <= 0 {
		depth = 20
	}
	task := taskRequest{
		Keyword:      query,
		LocationCode: LocationCode(q.Market),
		LanguageCode: languageOrDefault(q.Language),
		Depth:        depth,
	}

	future := taskFuture[[]json.RawMessage]{
		submit: func(ctx context.Context) (string, error) {
			return t.tc.submitTask(ctx, "/serp/google/images/task_post", task)
		},
		fetch: func(ctx context.Context, taskID string) ([]json.RawMessage, int, error) {
			return t.tc.fetchTask(ctx, "/serp/google/images/task_get/advanced", taskID)
		},
	}

	items, err := future.await(ctx)
	if err != nil {
		return nil, err
	}

	var hits []ImageHit
	for _, raw := range items {
		var item imageItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Type != imagesSearchType || item.Image.URL == "" {
			continue
		}
		hits = append(hits, ImageHit{
			URL:       item.Image.URL,
			Title:     item.Title,
			Source:    item.URL,
			Thumbnail: item.Image.Thumbnail,
			Width:     item.Image.Width,
			Height:    item.Image.Height,
			License:   item.Image.License,
		})
		if q.Max > 0 && len(hits) >= q.Max {
			break
		}
	}

	logger.Info("image search completed", "provider", t.Name(), "query", query, "hits", len(hits))
	return hits, nil
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}
