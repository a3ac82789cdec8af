package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"propmatch/internal/cache"
	"propmatch/internal/config"
	"propmatch/internal/model"
)

// Extractor turns a prompt into structured preferences.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (*model.Preferences, error)
}

// Compiler turns preferences into a query and sort order.
type Compiler interface {
	Compile(ctx context.Context, prefs *model.Preferences) (model.Query, model.Sort)
}

// Searcher runs the bounded fetch-evaluate loop.
type Searcher interface {
	Run(ctx context.Context, prompt string, query model.Query, sortOrder model.Sort) ([]model.EvaluatedResult, error)
}

// RecommendResponse is the full outcome of one recommendation request.
type RecommendResponse struct {
	Message     string                  `json:"message"`
	Preferences *model.Preferences      `json:"preferences,omitempty"`
	Results     []model.EvaluatedResult `json:"results"`
	Cached      bool                    `json:"cached"`
}

// Recommender is the top-level pipeline: clean the prompt, extract
// preferences, compile a query, run the search loop, and cache the
// whole outcome keyed by the prompt's content.
type Recommender struct {
	extractor    Extractor
	compiler     Compiler
	orchestrator Searcher
	assistant    *Assistant
	cache        *cache.Cache
	cacheCfg     *config.CacheConfig
	promptCount  int
}

// NewRecommender wires the pipeline together.
func NewRecommender(
	extractor Extractor,
	compiler Compiler,
	orchestrator Searcher,
	assistant *Assistant,
	c *cache.Cache,
	cacheCfg *config.CacheConfig,
) *Recommender {
	return &Recommender{
		extractor:    extractor,
		compiler:     compiler,
		orchestrator: orchestrator,
		assistant:    assistant,
		cache:        c,
		cacheCfg:     cacheCfg,
		promptCount:  4,
	}
}

// Recommend runs the full pipeline for a prompt. Results are cached;
// repeated prompts are answered from the cache with Cached set.
func (r *Recommender) Recommend(ctx context.Context, prompt string) (*RecommendResponse, error) {
	key := r.cache.Key(cache.PurposeResult, prompt)

	data, hit, err := r.cache.Do(key, r.cacheCfg.ResultTTL, func() ([]byte, error) {
		resp, err := r.recommend(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	if err != nil {
		return nil, err
	}

	var resp RecommendResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cached recommendation: %w", err)
	}
	resp.Cached = hit
	return &resp, nil
}

// Search runs the pipeline and returns only the evaluated results. Used
// by the chat flow, which carries its own conversational framing.
func (r *Recommender) Search(ctx context.Context, prompt string) ([]model.EvaluatedResult, error) {
	resp, err := r.Recommend(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (r *Recommender) recommend(ctx context.Context, prompt string) (*RecommendResponse, error) {
	cleaned := r.assistant.CleanPrompt(ctx, prompt)
	prefs := r.extractPreferences(ctx, cleaned)
	message := r.assistant.Acknowledge(ctx, prefs)

	query, sortOrder := r.compiler.Compile(ctx, prefs)
	results, err := r.orchestrator.Run(ctx, cleaned, query, sortOrder)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.EvaluatedResult{}
	}

	resp := &RecommendResponse{
		Message: message,
		Results: results,
	}
	if !prefs.IsEmpty() {
		resp.Preferences = prefs
	}
	return resp, nil
}

// extractPreferences resolves preferences for the prompt, consulting the
// preference cache first. Extraction failures degrade to an empty
// Preferences (an unconstrained search) and are never cached.
func (r *Recommender) extractPreferences(ctx context.Context, prompt string) *model.Preferences {
	key := r.cache.Key(cache.PurposePreferences, prompt)

	if data, ok, err := r.cache.Get(key); err == nil && ok {
		var prefs model.Preferences
		if err := json.Unmarshal(data, &prefs); err == nil {
			return &prefs
		}
	}

	prefs, err := r.extractor.Extract(ctx, prompt)
	if err != nil {
		log.Printf("Preference extraction failed, searching unconstrained: %v", err)
		return &model.Preferences{}
	}

	if data, err := json.Marshal(prefs); err == nil {
		if err := r.cache.Set(key, data, r.cacheCfg.PreferenceTTL); err != nil {
			log.Printf("Failed to cache preferences: %v", err)
		}
	}
	return prefs
}

// SuggestPrompts returns example prompts, cached under a fixed key so
// the landing page does not trigger a model call per visitor.
func (r *Recommender) SuggestPrompts(ctx context.Context) []string {
	key := r.cache.Key(cache.PurposePrompts, "suggested-prompts")

	data, _, err := r.cache.Do(key, r.cacheCfg.PromptsTTL, func() ([]byte, error) {
		return json.Marshal(r.assistant.SuggestPrompts(ctx, r.promptCount))
	})
	if err != nil {
		log.Printf("Prompt suggestion cache failed: %v", err)
		return r.assistant.SuggestPrompts(ctx, r.promptCount)
	}

	var prompts []string
	if err := json.Unmarshal(data, &prompts); err != nil || len(prompts) == 0 {
		return r.assistant.SuggestPrompts(ctx, r.promptCount)
	}
	return prompts
}
