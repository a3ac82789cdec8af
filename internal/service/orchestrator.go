package service

import (
	"context"
	"log"
	"sort"

	"propmatch/internal/config"
	"propmatch/internal/model"
)

// CatalogPager fetches one page of catalog rows matching a compiled
// query, excluding rows already seen.
type CatalogPager interface {
	FetchPage(ctx context.Context, query model.Query, sortOrder model.Sort, excludeLinks, excludeTitles []string, limit int) ([]model.Property, error)
}

// Evaluator scores candidates against the prompt, one score per input.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt string, candidates []model.Property) ([]int, error)
}

// SearchOrchestrator runs the fetch-evaluate loop: page candidates from
// the catalog, score them, keep the ones above threshold, and repeat
// until enough matches accumulate or the round budget runs out.
type SearchOrchestrator struct {
	pager     CatalogPager
	evaluator Evaluator
	cfg       *config.SearchConfig
}

// NewSearchOrchestrator creates a new orchestrator.
func NewSearchOrchestrator(pager CatalogPager, evaluator Evaluator, cfg *config.SearchConfig) *SearchOrchestrator {
	return &SearchOrchestrator{pager: pager, evaluator: evaluator, cfg: cfg}
}

// Run executes the bounded search loop. The result holds at most
// TargetSize properties scoring at or above RelevanceThreshold, sorted
// by score descending, with no duplicate links. An evaluation failure
// ends the loop with whatever was kept so far.
func (o *SearchOrchestrator) Run(ctx context.Context, prompt string, query model.Query, sortOrder model.Sort) ([]model.EvaluatedResult, error) {
	var kept []model.EvaluatedResult
	seenLinks := map[string]bool{}
	seenTitles := map[string]bool{}

	for round := 0; round < o.cfg.MaxRounds && len(kept) < o.cfg.TargetSize; round++ {
		excludeLinks := keys(seenLinks)
		excludeTitles := keys(seenTitles)

		page, err := o.pager.FetchPage(ctx, query, sortOrder, excludeLinks, excludeTitles, o.cfg.FetchLimit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		// Dedupe within the page as well; the exclusion lists only cover
		// earlier rounds.
		candidates := page[:0:0]
		for _, p := range page {
			if seenLinks[p.Link] {
				continue
			}
			seenLinks[p.Link] = true
			if p.Title != nil && *p.Title != "" {
				seenTitles[*p.Title] = true
			}
			candidates = append(candidates, p)
		}
		if len(candidates) == 0 {
			continue
		}

		// A failed evaluation counts as zero matches for this round; the
		// candidates stay in the exclusion sets and the loop moves on.
		scores, err := o.evaluator.Evaluate(ctx, prompt, candidates)
		if err != nil {
			log.Printf("Relevance evaluation failed on round %d, keeping nothing this round: %v", round+1, err)
			continue
		}

		for i, score := range scores {
			if score < o.cfg.RelevanceThreshold {
				continue
			}
			kept = append(kept, model.EvaluatedResult{Property: candidates[i], Relevance: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Relevance > kept[j].Relevance
	})
	if len(kept) > o.cfg.TargetSize {
		kept = kept[:o.cfg.TargetSize]
	}
	return kept, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
