package service

import (
	"context"
	"errors"
	"testing"
)

type fakeInventory struct {
	types []string
	err   error
}

func (f *fakeInventory) DistinctTypes(ctx context.Context) ([]string, error) {
	return f.types, f.err
}

func TestExtract_ParsesAndNormalizes(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"```json\n{\"types\": [\" Condo \"], \"location\": \" Phuket \", \"currency\": \"thb\", \"bedrooms\": \"studio\", \"avoids\": [\"Main Road\", \"\"]}\n```",
	}}
	extractor := NewPreferenceExtractor(client, &fakeInventory{types: []string{"condo", "villa"}})

	prefs, err := extractor.Extract(context.Background(), "studio condo in phuket, not on a main road")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(prefs.Types) != 1 || prefs.Types[0] != "condo" {
		t.Errorf("Types = %v, want [condo]", prefs.Types)
	}
	if prefs.Location != "Phuket" {
		t.Errorf("Location = %q, want Phuket", prefs.Location)
	}
	if prefs.Currency != "THB" {
		t.Errorf("Currency = %q, want THB", prefs.Currency)
	}
	if n, ok := prefs.Bedrooms.Int(); !ok || n != 1 {
		t.Errorf("Bedrooms = %d (valid=%v), want studio to coerce to 1", n, ok)
	}
	if len(prefs.Avoids) != 1 || prefs.Avoids[0] != "main road" {
		t.Errorf("Avoids = %v, want [main road] with the empty entry dropped", prefs.Avoids)
	}
}

func TestExtract_InventoryFailure(t *testing.T) {
	client := &scriptedClient{responses: []string{"{}"}}
	extractor := NewPreferenceExtractor(client, &fakeInventory{err: errors.New("database down")})

	if _, err := extractor.Extract(context.Background(), "anything"); err == nil {
		t.Fatal("Expected inventory failure to surface")
	}
	if client.calls != 0 {
		t.Errorf("model called %d times despite inventory failure, want 0", client.calls)
	}
}

func TestExtract_UnparseableResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{"I could not determine any preferences."}}
	extractor := NewPreferenceExtractor(client, &fakeInventory{types: []string{"condo"}})

	if _, err := extractor.Extract(context.Background(), "anything"); err == nil {
		t.Fatal("Expected parse failure to surface")
	}
}

func TestExtract_EmptyObjectIsEmptyPreferences(t *testing.T) {
	client := &scriptedClient{responses: []string{"{}"}}
	extractor := NewPreferenceExtractor(client, &fakeInventory{types: []string{"condo"}})

	prefs, err := extractor.Extract(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !prefs.IsEmpty() {
		t.Errorf("prefs = %+v, want empty", *prefs)
	}
}
