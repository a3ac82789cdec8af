package repository

import (
	"fmt"
	"strings"

	"propmatch/internal/model"

	"github.com/lib/pq"
)

// translator walks a query expression tree and emits a parameterized SQL
// WHERE fragment. Each backend carries its own translation; this one
// targets PostgreSQL (ILIKE pattern matching, tsvector full-text search).
type translator struct {
	args []interface{}
}

func newTranslator() *translator {
	return &translator{}
}

// bind appends a query argument and returns its 1-based placeholder index.
func (t *translator) bind(arg interface{}) int {
	t.args = append(t.args, arg)
	return len(t.args)
}

func (t *translator) translate(p model.Predicate) string {
	switch v := p.(type) {
	case nil:
		return ""
	case model.And:
		return t.join(v.Preds, " AND ")
	case model.Or:
		return t.join(v.Preds, " OR ")
	case model.Not:
		inner := t.translate(v.Pred)
		if inner == "" {
			return ""
		}
		return "NOT (" + inner + ")"
	case model.Compare:
		return fmt.Sprintf("%s %s $%d", v.Field, v.Op, t.bind(v.Value))
	case model.Match:
		return fmt.Sprintf("%s ILIKE $%d", v.Field, t.bind("%"+v.Pattern+"%"))
	case model.In:
		lowered := make([]string, len(v.Values))
		for i, val := range v.Values {
			lowered[i] = strings.ToLower(val)
		}
		return fmt.Sprintf("lower(%s) = ANY($%d)", v.Field, t.bind(pq.Array(lowered)))
	case model.FullText:
		if len(v.Terms) == 0 {
			return ""
		}
		return fmt.Sprintf(
			"search_vector @@ plainto_tsquery('english', $%d)",
			t.bind(strings.Join(v.Terms, " ")),
		)
	default:
		return ""
	}
}

func (t *translator) join(preds []model.Predicate, sep string) string {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		if frag := t.translate(p); frag != "" {
			parts = append(parts, frag)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// collectFullTextTerms gathers the terms of every full-text clause in the
// tree, in traversal order. Used to compute the ts_rank sort expression.
func collectFullTextTerms(p model.Predicate) []string {
	var terms []string
	var walk func(model.Predicate)
	walk = func(p model.Predicate) {
		switch v := p.(type) {
		case model.FullText:
			terms = append(terms, v.Terms...)
		case model.And:
			for _, c := range v.Preds {
				walk(c)
			}
		case model.Or:
			for _, c := range v.Preds {
				walk(c)
			}
		case model.Not:
			walk(v.Pred)
		}
	}
	walk(p)
	return terms
}
