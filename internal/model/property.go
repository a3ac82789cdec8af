package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Property represents a catalog record. Rows are owned by the catalog
// store and read-only to the search pipeline.
type Property struct {
	ID           int64           `json:"-" db:"id"`
	Link         string          `json:"link" db:"link"`
	Title        *string         `json:"title,omitempty" db:"title"`
	Type         *string         `json:"type,omitempty" db:"type"`
	Price        *string         `json:"price,omitempty" db:"price"`
	PriceNumeric *float64        `json:"priceNumeric,omitempty" db:"price_numeric"`
	CurrencyCode *string         `json:"currencyCode,omitempty" db:"currency_code"`
	Bedrooms     *int            `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms    *int            `json:"bathrooms,omitempty" db:"bathrooms"`
	Size         *string         `json:"size,omitempty" db:"property_size"`
	Location     *string         `json:"location,omitempty" db:"location"`
	Description  *string         `json:"description,omitempty" db:"description"`
	Image        *string         `json:"image,omitempty" db:"image"`
	Keywords     JSONArray       `json:"keywords,omitempty" db:"keywords"`
	Embedding    pgvector.Vector `json:"-" db:"embedding"`
	TextRank     *float64        `json:"-" db:"text_rank"`
	CreatedAt    time.Time       `json:"-" db:"created_at"`
	UpdatedAt    time.Time       `json:"-" db:"updated_at"`
}

// EvaluatedResult is a property paired with its relevance score (0-100)
// for the prompt that produced it. Ephemeral, created per evaluation round.
type EvaluatedResult struct {
	Property
	Relevance int `json:"relevance"`
}

// EmbeddingItem is a single enrichment payload: the text to embed for a
// catalog row, keyed by link.
type EmbeddingItem struct {
	Link string `json:"link" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// EmbeddingBatchResponse reports the outcome of a batch enrichment run.
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// JSONArray represents a JSON array column
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
