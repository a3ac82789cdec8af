package utils

import (
	"reflect"
	"testing"
)

func TestNormalizePrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normalized",
			input: "2 bedroom condo in phuket",
			want:  "2 bedroom condo in phuket",
		},
		{
			name:  "case and whitespace folded",
			input: "  2 Bedroom   CONDO \n in Phuket  ",
			want:  "2 bedroom condo in phuket",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePrompt(tt.input); got != tt.want {
				t.Errorf("NormalizePrompt(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "words and punctuation",
			input: "2-bedroom condo, near BTS!",
			want:  []string{"2", "bedroom", "condo", "near", "BTS"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only punctuation",
			input: "!!! ---",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
