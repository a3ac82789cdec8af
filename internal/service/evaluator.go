package service

import (
	"context"
	"fmt"
	"strings"

	"propmatch/internal/model"
	"propmatch/internal/utils"
)

// RelevanceEvaluator scores candidate properties against the original
// prompt using a language model.
type RelevanceEvaluator struct {
	client ChatClient
}

// NewRelevanceEvaluator creates a new evaluator.
func NewRelevanceEvaluator(client ChatClient) *RelevanceEvaluator {
	return &RelevanceEvaluator{client: client}
}

const evaluationPrompt = `You are a real-estate matching judge. Given a user request and a numbered list of property listings, score how well each listing satisfies the request.

Respond with ONLY a JSON array of integers from 0 to 100, one per listing, in the same order. 100 means a perfect match, 0 means completely irrelevant. No markdown, no explanation.`

// Evaluate returns one 0-100 score per candidate, index-aligned with the
// input. An empty batch returns an empty slice without calling the model.
// Any failure returns a nil slice and the error; partial scores are never
// produced.
func (e *RelevanceEvaluator) Evaluate(ctx context.Context, prompt string, candidates []model.Property) ([]int, error) {
	if len(candidates) == 0 {
		return []int{}, nil
	}

	var sb strings.Builder
	sb.WriteString("User request: ")
	sb.WriteString(prompt)
	sb.WriteString("\n\nListings:\n")
	for i, p := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, describeProperty(p)))
	}

	raw, err := e.client.Complete(ctx, []ChatMessage{
		{Role: RoleSystem, Content: evaluationPrompt},
		{Role: RoleUser, Content: sb.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation completion failed: %w", err)
	}

	var scores []int
	if err := utils.ParseModelJSON(raw, &scores); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation response: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("score count mismatch: got %d for %d listings", len(scores), len(candidates))
	}

	for i, s := range scores {
		if s < 0 {
			scores[i] = 0
		} else if s > 100 {
			scores[i] = 100
		}
	}
	return scores, nil
}

// describeProperty renders a listing as a compact single line for the
// judging prompt.
func describeProperty(p model.Property) string {
	var parts []string
	if p.Title != nil && *p.Title != "" {
		parts = append(parts, *p.Title)
	}
	if p.Type != nil && *p.Type != "" {
		parts = append(parts, "type: "+*p.Type)
	}
	if p.Price != nil && *p.Price != "" {
		parts = append(parts, "price: "+*p.Price)
	}
	if p.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d bed", *p.Bedrooms))
	}
	if p.Bathrooms != nil {
		parts = append(parts, fmt.Sprintf("%d bath", *p.Bathrooms))
	}
	if p.Size != nil && *p.Size != "" {
		parts = append(parts, "size: "+*p.Size)
	}
	if p.Location != nil && *p.Location != "" {
		parts = append(parts, "location: "+*p.Location)
	}
	if p.Description != nil && *p.Description != "" {
		// Truncate on rune boundaries; listing text is often Thai
		desc := []rune(*p.Description)
		if len(desc) > 280 {
			parts = append(parts, string(desc[:280])+"...")
		} else {
			parts = append(parts, string(desc))
		}
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, "keywords: "+strings.Join(p.Keywords, ", "))
	}
	return strings.Join(parts, " | ")
}
