package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Preferences represents structured search constraints extracted from a
// free-text prompt. All fields are optional; absent fields mean "no
// constraint". A Preferences value is immutable once produced.
type Preferences struct {
	Title     string     `json:"title,omitempty"`
	Types     []string   `json:"types,omitempty"`
	Budget    *float64   `json:"budget,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	Bedrooms  *FlexCount `json:"bedrooms,omitempty"`
	Bathrooms *FlexCount `json:"bathrooms,omitempty"`
	Location  string     `json:"location,omitempty"`
	Amenities []string   `json:"amenities,omitempty"`
	Avoids    []string   `json:"avoids,omitempty"`
	IsRent    *bool      `json:"isRent,omitempty"`
}

// IsEmpty reports whether no constraint was extracted at all.
func (p *Preferences) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Title == "" && len(p.Types) == 0 && p.Budget == nil &&
		p.Bedrooms == nil && p.Bathrooms == nil && p.Location == "" &&
		len(p.Amenities) == 0 && len(p.Avoids) == 0 && p.IsRent == nil
}

// FlexCount is a room count as produced by a language model: a JSON number,
// a numeric string, or the word "studio" (which counts as one bedroom).
// Values that cannot be coerced are nulled out rather than failing the
// whole Preferences decode.
type FlexCount struct {
	value int
	valid bool
}

// NewFlexCount returns a valid count.
func NewFlexCount(n int) *FlexCount {
	return &FlexCount{value: n, valid: true}
}

// Int returns the coerced count and whether it is usable.
func (f *FlexCount) Int() (int, bool) {
	if f == nil || !f.valid {
		return 0, false
	}
	return f.value, true
}

// UnmarshalJSON coerces numbers, numeric strings, and "studio". Anything
// else leaves the count invalid without returning an error.
func (f *FlexCount) UnmarshalJSON(data []byte) error {
	f.valid = false

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.value = int(n)
		f.valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}

	s = strings.TrimSpace(strings.ToLower(s))
	if s == "studio" {
		f.value = 1
		f.valid = true
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		f.value = v
		f.valid = true
	}
	return nil
}

// MarshalJSON writes the coerced count, or null when invalid.
func (f *FlexCount) MarshalJSON() ([]byte, error) {
	if f == nil || !f.valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
