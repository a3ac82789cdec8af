package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"propmatch/internal/model"
	"propmatch/internal/utils"
)

// Assistant generates the conversational dressing around a search:
// prompt cleanup, acknowledgement copy, and example prompts.
type Assistant struct {
	client ChatClient
}

// NewAssistant creates a new assistant.
func NewAssistant(client ChatClient) *Assistant {
	return &Assistant{client: client}
}

const cleanupPrompt = `Rewrite the user's property search request as one short, clean English sentence keeping every concrete constraint (type, budget, currency, rooms, location, amenities, exclusions, rent vs buy). Respond with ONLY the rewritten sentence.`

// CleanPrompt condenses a raw prompt into a single clean sentence. On
// any failure the original prompt is returned unchanged.
func (a *Assistant) CleanPrompt(ctx context.Context, prompt string) string {
	cleaned, err := a.client.Complete(ctx, []ChatMessage{
		{Role: RoleSystem, Content: cleanupPrompt},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil || strings.TrimSpace(cleaned) == "" {
		if err != nil {
			log.Printf("Prompt cleanup failed, using raw prompt: %v", err)
		}
		return prompt
	}
	return strings.TrimSpace(cleaned)
}

// Acknowledge produces a one-line confirmation of what was understood
// from the preferences. Falls back to a generic line on failure.
func (a *Assistant) Acknowledge(ctx context.Context, prefs *model.Preferences) string {
	const fallback = "Got it, searching the catalog for matching properties now."
	if prefs.IsEmpty() {
		return fallback
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return fallback
	}

	msg, err := a.client.Complete(ctx, []ChatMessage{
		{Role: RoleSystem, Content: "Write one friendly sentence confirming the property search criteria below, then say you are searching now. Respond with only that sentence."},
		{Role: RoleUser, Content: string(data)},
	})
	if err != nil || strings.TrimSpace(msg) == "" {
		return fallback
	}
	return strings.TrimSpace(msg)
}

// defaultPrompts is served when generation is unavailable.
var defaultPrompts = []string{
	"2 bedroom condo in Phuket under 5,000,000 THB",
	"Pet-friendly house with a garden near an international school",
	"Studio for rent close to BTS, budget 20,000 THB per month",
	"Beachfront villa with a private pool, 3 bedrooms or more",
}

// SuggestPrompts generates example search prompts for the landing page.
func (a *Assistant) SuggestPrompts(ctx context.Context, count int) []string {
	if count <= 0 {
		count = len(defaultPrompts)
	}
	if !a.client.IsEnabled() {
		return clipPrompts(defaultPrompts, count)
	}

	raw, err := a.client.Complete(ctx, []ChatMessage{
		{Role: RoleSystem, Content: fmt.Sprintf("Generate %d short example property search prompts a user in Thailand might type, varied in type, budget and location. Respond with ONLY a JSON array of strings.", count)},
	})
	if err != nil {
		log.Printf("Prompt suggestion failed, using defaults: %v", err)
		return clipPrompts(defaultPrompts, count)
	}

	var prompts []string
	if err := utils.ParseModelJSON(raw, &prompts); err != nil || len(prompts) == 0 {
		return clipPrompts(defaultPrompts, count)
	}
	return clipPrompts(prompts, count)
}

func clipPrompts(prompts []string, count int) []string {
	if len(prompts) > count {
		return prompts[:count]
	}
	return prompts
}
