package utils

import (
	"testing"
)

func TestParseModelJSON(t *testing.T) {
	type prefs struct {
		Location string `json:"location"`
		Bedrooms int    `json:"bedrooms"`
	}

	tests := []struct {
		name    string
		input   string
		want    prefs
		wantErr bool
	}{
		{
			name:  "pure JSON",
			input: `{"location": "Phuket", "bedrooms": 2}`,
			want:  prefs{Location: "Phuket", Bedrooms: 2},
		},
		{
			name:  "json code fence",
			input: "```json\n{\"location\": \"Phuket\", \"bedrooms\": 2}\n```",
			want:  prefs{Location: "Phuket", Bedrooms: 2},
		},
		{
			name:  "bare code fence",
			input: "```\n{\"location\": \"Phuket\", \"bedrooms\": 2}\n```",
			want:  prefs{Location: "Phuket", Bedrooms: 2},
		},
		{
			name:  "JSON surrounded by prose",
			input: `Here is what I extracted: {"location": "Phuket", "bedrooms": 2} Let me know if that helps!`,
			want:  prefs{Location: "Phuket", Bedrooms: 2},
		},
		{
			name:  "braces inside string literals",
			input: `{"location": "Phuket {island}", "bedrooms": 2}`,
			want:  prefs{Location: "Phuket {island}", Bedrooms: 2},
		},
		{
			name:  "trailing comma",
			input: `{"location": "Phuket", "bedrooms": 2,}`,
			want:  prefs{Location: "Phuket", Bedrooms: 2},
		},
		{
			name:    "empty input",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   "I could not find any preferences in that message.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got prefs
			err := ParseModelJSON(tt.input, &got)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseModelJSON_Array(t *testing.T) {
	var scores []int
	input := "The scores are:\n[85, 40, 92]"
	if err := ParseModelJSON(input, &scores); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(scores) != 3 || scores[0] != 85 || scores[2] != 92 {
		t.Errorf("Got %v, want [85 40 92]", scores)
	}
}
