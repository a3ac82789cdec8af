package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"propmatch/internal/config"
)

// CurrencyConverter converts an amount from one currency into the
// catalog's base currency.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from string) (float64, error)
}

// RateAPIConverter fetches exchange rates from an open exchange-rate API.
type RateAPIConverter struct {
	apiBase    string
	base       string
	httpClient *http.Client
}

// NewRateAPIConverter creates a converter targeting the configured base
// currency.
func NewRateAPIConverter(cfg *config.CurrencyConfig) *RateAPIConverter {
	return &RateAPIConverter{
		apiBase: cfg.APIBase,
		base:    strings.ToUpper(cfg.BaseCurrency),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type rateResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Convert converts amount from the given currency to the base currency.
// Amounts already denominated in the base currency pass through untouched.
func (c *RateAPIConverter) Convert(ctx context.Context, amount float64, from string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	if from == "" || from == c.base {
		return amount, nil
	}

	url := fmt.Sprintf("%s/latest/%s", c.apiBase, from)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result rateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to unmarshal rate response: %w", err)
	}

	if result.Result != "success" {
		return 0, fmt.Errorf("rate API returned result %q", result.Result)
	}

	rate, ok := result.Rates[c.base]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no %s rate for %s", c.base, from)
	}

	return amount * rate, nil
}
