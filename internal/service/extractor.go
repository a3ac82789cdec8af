package service

import (
	"context"
	"fmt"
	"strings"

	"propmatch/internal/model"
	"propmatch/internal/utils"
)

// TypeInventory exposes the distinct property types present in the
// catalog, used to anchor extraction to labels that actually exist.
type TypeInventory interface {
	DistinctTypes(ctx context.Context) ([]string, error)
}

// PreferenceExtractor turns a free-text prompt into structured
// preferences using a language model.
type PreferenceExtractor struct {
	client    ChatClient
	inventory TypeInventory
}

// NewPreferenceExtractor creates a new extractor.
func NewPreferenceExtractor(client ChatClient, inventory TypeInventory) *PreferenceExtractor {
	return &PreferenceExtractor{client: client, inventory: inventory}
}

const extractionPromptTemplate = `You are a real-estate search assistant. Extract structured search preferences from the user's message.

Known property types in the catalog: %s

Respond with ONLY a JSON object (no markdown, no explanation) with these optional fields:
{
  "title": "short free-text summary of what is wanted",
  "types": ["property types, chosen from the known types when possible"],
  "budget": 5000000,
  "currency": "ISO 4217 code of the budget, e.g. THB, USD",
  "bedrooms": 2,
  "bathrooms": 1,
  "location": "area, district or city",
  "amenities": ["pool", "gym"],
  "avoids": ["things the user does NOT want"],
  "isRent": false
}

Rules:
- Omit any field the message gives no information about.
- "studio" counts as 1 bedroom.
- budget is a plain number without separators.
- isRent is true only when the user clearly wants to rent.`

// Extract parses the prompt into preferences. Any failure along the way
// (inventory lookup, model call, JSON parse) is returned to the caller;
// callers are expected to degrade to an unconstrained search.
func (e *PreferenceExtractor) Extract(ctx context.Context, prompt string) (*model.Preferences, error) {
	types, err := e.inventory.DistinctTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load type inventory: %w", err)
	}

	system := fmt.Sprintf(extractionPromptTemplate, strings.Join(types, ", "))
	raw, err := e.client.Complete(ctx, []ChatMessage{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion failed: %w", err)
	}

	var prefs model.Preferences
	if err := utils.ParseModelJSON(raw, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	normalizePreferences(&prefs)
	return &prefs, nil
}

// normalizePreferences lowercases and trims list fields so downstream
// matching is case-insensitive and whitespace-clean.
func normalizePreferences(p *model.Preferences) {
	p.Title = strings.TrimSpace(p.Title)
	p.Location = strings.TrimSpace(p.Location)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.Types = cleanList(p.Types)
	p.Amenities = cleanList(p.Amenities)
	p.Avoids = cleanList(p.Avoids)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.ToLower(strings.TrimSpace(item)); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
