package repository

import (
	"testing"

	"propmatch/internal/model"
)

func TestTranslate_Compare(t *testing.T) {
	tr := newTranslator()
	got := tr.translate(model.Compare{Field: model.FieldPriceNumeric, Op: model.OpLte, Value: 5000000})

	want := "price_numeric <= $1"
	if got != want {
		t.Errorf("translate = %q, want %q", got, want)
	}
	if len(tr.args) != 1 || tr.args[0] != 5000000.0 {
		t.Errorf("args = %v, want [5e+06]", tr.args)
	}
}

func TestTranslate_Match(t *testing.T) {
	tr := newTranslator()
	got := tr.translate(model.Match{Field: model.FieldLocation, Pattern: "phuket"})

	want := "location ILIKE $1"
	if got != want {
		t.Errorf("translate = %q, want %q", got, want)
	}
	if tr.args[0] != "%phuket%" {
		t.Errorf("args[0] = %v, want %%phuket%%", tr.args[0])
	}
}

func TestTranslate_NestedTree(t *testing.T) {
	tr := newTranslator()
	tree := model.And{Preds: []model.Predicate{
		model.Or{Preds: []model.Predicate{
			model.Match{Field: model.FieldType, Pattern: "condo"},
			model.Match{Field: model.FieldType, Pattern: "apartment"},
		}},
		model.Compare{Field: model.FieldBedrooms, Op: model.OpGte, Value: 2},
		model.Not{Pred: model.Match{Field: model.FieldDescription, Pattern: "leasehold"}},
	}}

	got := tr.translate(tree)
	want := "((type ILIKE $1 OR type ILIKE $2) AND bedrooms >= $3 AND NOT (description ILIKE $4))"
	if got != want {
		t.Errorf("translate = %q, want %q", got, want)
	}
	if len(tr.args) != 4 {
		t.Fatalf("got %d args, want 4", len(tr.args))
	}
}

func TestTranslate_FullText(t *testing.T) {
	tr := newTranslator()
	got := tr.translate(model.FullText{Terms: []string{"condo", "phuket", "pool"}})

	want := "search_vector @@ plainto_tsquery('english', $1)"
	if got != want {
		t.Errorf("translate = %q, want %q", got, want)
	}
	if tr.args[0] != "condo phuket pool" {
		t.Errorf("args[0] = %v, want joined terms", tr.args[0])
	}
}

func TestTranslate_EmptyCases(t *testing.T) {
	tr := newTranslator()
	if got := tr.translate(model.And{}); got != "" {
		t.Errorf("empty And = %q, want empty", got)
	}
	if got := tr.translate(model.FullText{}); got != "" {
		t.Errorf("empty FullText = %q, want empty", got)
	}
	if got := tr.translate(nil); got != "" {
		t.Errorf("nil predicate = %q, want empty", got)
	}
	if len(tr.args) != 0 {
		t.Errorf("expected no args bound, got %v", tr.args)
	}
}

func TestCollectFullTextTerms(t *testing.T) {
	tree := model.And{Preds: []model.Predicate{
		model.FullText{Terms: []string{"condo", "phuket"}},
		model.Not{Pred: model.Match{Field: model.FieldTitle, Pattern: "noisy"}},
	}}

	terms := collectFullTextTerms(tree)
	if len(terms) != 2 || terms[0] != "condo" || terms[1] != "phuket" {
		t.Errorf("terms = %v, want [condo phuket]", terms)
	}
}
