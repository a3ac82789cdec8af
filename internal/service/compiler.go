package service

import (
	"context"
	"log"
	"strings"

	"propmatch/internal/model"
	"propmatch/internal/utils"
)

// typeBuckets groups property type synonyms into canonical buckets so a
// search for one label matches listings tagged with any of its synonyms.
var typeBuckets = [][]string{
	{"condo", "apartment"},
	{"villa", "house", "bungalow"},
}

// QueryCompiler derives a filter tree and sort order from extracted
// preferences. Compilation is deterministic apart from the currency
// conversion step, which is an external call with a documented fallback.
type QueryCompiler struct {
	converter CurrencyConverter
	base      string
}

// NewQueryCompiler creates a compiler converting budgets into the given
// base currency.
func NewQueryCompiler(converter CurrencyConverter, baseCurrency string) *QueryCompiler {
	return &QueryCompiler{
		converter: converter,
		base:      strings.ToUpper(baseCurrency),
	}
}

// Compile turns preferences into a query tree plus sort order. A nil or
// empty Preferences compiles to an unconstrained query.
func (c *QueryCompiler) Compile(ctx context.Context, prefs *model.Preferences) (model.Query, model.Sort) {
	if prefs.IsEmpty() {
		return model.Query{Root: model.And{}}, model.SortPriceDesc
	}

	var conds []model.Predicate

	// Positive text feeds the full-text clause
	var terms []string
	terms = append(terms, utils.Tokenize(prefs.Title)...)
	terms = append(terms, utils.Tokenize(prefs.Location)...)
	terms = append(terms, prefs.Types...)
	terms = append(terms, prefs.Amenities...)
	if prefs.IsRent != nil && *prefs.IsRent {
		terms = append(terms, "rent")
	}
	if len(terms) > 0 {
		conds = append(conds, model.FullText{Terms: terms})
	}

	// Type filters, synonym-expanded
	seenBuckets := map[string]bool{}
	for _, typ := range prefs.Types {
		bucket := bucketFor(typ)
		sig := strings.Join(bucket, "|")
		if seenBuckets[sig] {
			continue
		}
		seenBuckets[sig] = true

		if len(bucket) == 1 {
			conds = append(conds, model.Match{Field: model.FieldType, Pattern: bucket[0]})
			continue
		}
		group := make([]model.Predicate, len(bucket))
		for i, syn := range bucket {
			group[i] = model.Match{Field: model.FieldType, Pattern: syn}
		}
		conds = append(conds, model.Or{Preds: group})
	}

	// Budget, converted to the base currency; conversion failure falls
	// back to the raw number rather than blocking the search.
	if prefs.Budget != nil {
		amount := *prefs.Budget
		converted, err := c.converter.Convert(ctx, amount, prefs.Currency)
		if err != nil {
			log.Printf("Currency conversion failed, using raw amount: %v", err)
			converted = amount
		}
		conds = append(conds, model.Compare{Field: model.FieldPriceNumeric, Op: model.OpLte, Value: converted})
	}

	if n, ok := prefs.Bedrooms.Int(); ok {
		conds = append(conds, model.Compare{Field: model.FieldBedrooms, Op: model.OpGte, Value: float64(n)})
	}
	if n, ok := prefs.Bathrooms.Int(); ok {
		conds = append(conds, model.Compare{Field: model.FieldBathrooms, Op: model.OpGte, Value: float64(n)})
	}

	// Location tokens match the location field directly as well
	if tokens := utils.Tokenize(prefs.Location); len(tokens) > 0 {
		if len(tokens) == 1 {
			conds = append(conds, model.Match{Field: model.FieldLocation, Pattern: tokens[0]})
		} else {
			group := make([]model.Predicate, len(tokens))
			for i, tok := range tokens {
				group[i] = model.Match{Field: model.FieldLocation, Pattern: tok}
			}
			conds = append(conds, model.Or{Preds: group})
		}
	}

	// Negative constraints exclude the pattern from title, description
	// and location simultaneously.
	for _, avoid := range prefs.Avoids {
		avoid = strings.TrimSpace(avoid)
		if avoid == "" {
			continue
		}
		for _, field := range []model.Field{model.FieldTitle, model.FieldDescription, model.FieldLocation} {
			conds = append(conds, model.Not{Pred: model.Match{Field: field, Pattern: avoid}})
		}
	}

	query := model.Query{Root: model.And{Preds: conds}}

	return query, c.sortFor(query, prefs)
}

// sortFor picks the ordering: textual relevance when full-text search is
// in play, price descending when a budget constrains the query, keyword
// richness otherwise.
func (c *QueryCompiler) sortFor(query model.Query, prefs *model.Preferences) model.Sort {
	if query.HasFullText() {
		return model.SortRelevance
	}
	if prefs.Budget != nil {
		return model.SortPriceDesc
	}
	return model.SortKeywordRichness
}

// bucketFor returns the synonym bucket containing the type, or the type
// alone when no bucket matches.
func bucketFor(typ string) []string {
	t := strings.ToLower(strings.TrimSpace(typ))
	for _, bucket := range typeBuckets {
		for _, syn := range bucket {
			if syn == t {
				return bucket
			}
		}
	}
	return []string{t}
}
