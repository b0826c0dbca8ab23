package search

import (
	"context"
	"encoding/json"

	"wordsmith/internal/config"
	"wordsmith/internal/core"
	"wordsmith/internal/logger"
)

// TextHit is one organic web result from the paid text SERP provider.
type TextHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// TextQuery configures a text SERP request.
type TextQuery struct {
	Max      int
	Language string
	Market   string
}

// TaskSERPText is the paid text SERP provider over the same task-submit/
// poll backend as TaskSERPImages. The task queue is ~30% cheaper per query
// than the provider's live mode; it is used only as a fallback for
// web-search operations.
type TaskSERPText struct {
	tc *taskClient
}

// NewTaskSERPText creates the paid text SERP adapter.
func NewTaskSERPText() *TaskSERPText {
	return &TaskSERPText{tc: newTaskClient()}
}

// Name returns the descriptive provider name.
func (t *TaskSERPText) Name() string { return "taskserp-organic" }

// IsConfigured reports whether credentials are present.
func (t *TaskSERPText) IsConfigured() bool { return t.tc.isConfigured() }

// CostPerThousand estimates USD cost per thousand queries, reporting only.
func (t *TaskSERPText) CostPerThousand() float64 { return 2.1 }

type organicItem struct {
	Type         string `json:"type"`
	RankAbsolute int    `json:"rank_absolute"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description"`
}

// Search submits an organic search task and polls for its result.
func (t *TaskSERPText) Search(ctx context.Context, query string, q TextQuery) ([]TextHit, error) {
	if !t.tc.isConfigured() {
		return nil, core.Errf(core.KindInputInvalid, "secondary SERP credentials required; set %s and %s",
			config.EnvSerpSecondaryLogin, config.EnvSerpSecondaryPass)
	}

	depth := q.Max
	if depth <= 0 {
		depth = 10
	}
	task := taskRequest{
		Keyword:      query,
		LocationCode: LocationCode(q.Market),
		LanguageCode: languageOrDefault(q.Language),
		Depth:        depth,
	}

	future := taskFuture[[]json.RawMessage]{
		submit: func(ctx context.Context) (string, error) {
			return t.tc.submitTask(ctx, "/serp/google/organic/task_post", task)
		},
		fetch: func(ctx context.Context, taskID string) ([]json.RawMessage, int, error) {
			return t.tc.fetchTask(ctx, "/serp/google/organic/task_get/regular", taskID)
		},
	}

	items, err := future.await(ctx)
	if err != nil {
		return nil, err
	}

	var hits []TextHit
	for _, raw := range items {
		var item organicItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Type != organicType || item.URL == "" {
			continue
		}
		hits = append(hits, TextHit{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Description,
			Rank:    item.RankAbsolute,
		})
		if q.Max > 0 && len(hits) >= q.Max {
			break
		}
	}

	logger.Info("text search completed", "provider", t.Name(), "query", query, "hits", len(hits))
	return hits, nil
}
