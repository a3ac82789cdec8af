package model

// Field names a property attribute a predicate can test.
type Field string

// Queryable fields
const (
	FieldTitle        Field = "title"
	FieldType         Field = "type"
	FieldPriceNumeric Field = "price_numeric"
	FieldBedrooms     Field = "bedrooms"
	FieldBathrooms    Field = "bathrooms"
	FieldLocation     Field = "location"
	FieldDescription  Field = "description"
)

// CompareOp is a numeric comparison operator.
type CompareOp string

// Comparison operators
const (
	OpEq  CompareOp = "="
	OpLte CompareOp = "<="
	OpGte CompareOp = ">="
)

// Predicate is one node of a query expression tree. The tree is backend
// agnostic; each storage backend translates it into its native filter
// representation.
type Predicate interface {
	isPredicate()
}

// And matches when every child predicate matches.
type And struct {
	Preds []Predicate
}

// Or matches when any child predicate matches.
type Or struct {
	Preds []Predicate
}

// Not inverts a predicate.
type Not struct {
	Pred Predicate
}

// Compare tests a numeric field against a constant.
type Compare struct {
	Field Field
	Op    CompareOp
	Value float64
}

// Match tests whether a text field contains a pattern, case-insensitively.
type Match struct {
	Field   Field
	Pattern string
}

// In tests set membership of a text field.
type In struct {
	Field  Field
	Values []string
}

// FullText matches the backend's full-text index against a bag of terms.
type FullText struct {
	Terms []string
}

func (And) isPredicate()      {}
func (Or) isPredicate()       {}
func (Not) isPredicate()      {}
func (Compare) isPredicate()  {}
func (Match) isPredicate()    {}
func (In) isPredicate()       {}
func (FullText) isPredicate() {}

// Sort orders a result page.
type Sort int

// Sort orders. SortRelevance requires a FullText clause in the query;
// the compiler falls back to SortPriceDesc otherwise.
const (
	SortRelevance Sort = iota
	SortPriceDesc
	SortKeywordRichness
)

// Query is a compiled filter: a predicate tree rooted at an implicit AND.
type Query struct {
	Root Predicate
}

// HasFullText reports whether the query contains a full-text clause.
func (q Query) HasFullText() bool {
	return hasFullText(q.Root)
}

func hasFullText(p Predicate) bool {
	switch v := p.(type) {
	case FullText:
		return len(v.Terms) > 0
	case And:
		for _, c := range v.Preds {
			if hasFullText(c) {
				return true
			}
		}
	case Or:
		for _, c := range v.Preds {
			if hasFullText(c) {
				return true
			}
		}
	case Not:
		return hasFullText(v.Pred)
	}
	return false
}
