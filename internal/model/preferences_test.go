package model

import (
	"encoding/json"
	"testing"
)

func TestFlexCount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue int
		wantValid bool
	}{
		{
			name:      "plain number",
			input:     `2`,
			wantValue: 2,
			wantValid: true,
		},
		{
			name:      "float number truncates",
			input:     `2.7`,
			wantValue: 2,
			wantValid: true,
		},
		{
			name:      "numeric string",
			input:     `"3"`,
			wantValue: 3,
			wantValid: true,
		},
		{
			name:      "studio counts as one",
			input:     `"studio"`,
			wantValue: 1,
			wantValid: true,
		},
		{
			name:      "studio is case insensitive",
			input:     `"Studio"`,
			wantValue: 1,
			wantValid: true,
		},
		{
			name:      "garbage string is invalid, not an error",
			input:     `"plenty"`,
			wantValid: false,
		},
		{
			name:      "null is invalid",
			input:     `null`,
			wantValid: false,
		},
		{
			name:      "object is invalid",
			input:     `{"n": 2}`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexCount
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}

			value, valid := f.Int()
			if valid != tt.wantValid {
				t.Fatalf("Int() valid = %v, want %v", valid, tt.wantValid)
			}
			if valid && value != tt.wantValue {
				t.Errorf("Int() = %d, want %d", value, tt.wantValue)
			}
		})
	}
}

func TestFlexCount_InsidePreferences(t *testing.T) {
	// A bad room count must not fail the whole Preferences decode
	input := `{"location": "Phuket", "bedrooms": "a few", "bathrooms": 2}`

	var prefs Preferences
	if err := json.Unmarshal([]byte(input), &prefs); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	if prefs.Location != "Phuket" {
		t.Errorf("Location = %q, want Phuket", prefs.Location)
	}
	if _, ok := prefs.Bedrooms.Int(); ok {
		t.Error("Expected bedrooms to be invalid")
	}
	if n, ok := prefs.Bathrooms.Int(); !ok || n != 2 {
		t.Errorf("Bathrooms = %d (valid=%v), want 2", n, ok)
	}
}

func TestPreferences_IsEmpty(t *testing.T) {
	var nilPrefs *Preferences
	if !nilPrefs.IsEmpty() {
		t.Error("nil Preferences should be empty")
	}

	if !(&Preferences{Currency: "THB"}).IsEmpty() {
		t.Error("currency alone is not a constraint")
	}

	if (&Preferences{Location: "Bangkok"}).IsEmpty() {
		t.Error("location should count as a constraint")
	}

	budget := 1000000.0
	if (&Preferences{Budget: &budget}).IsEmpty() {
		t.Error("budget should count as a constraint")
	}
}
