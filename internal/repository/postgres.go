package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"propmatch/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore is the PostgreSQL-backed property catalog.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the catalog database.
func NewPostgresStore(dsn string, maxConn, maxIdleConn int) (*PostgresStore, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const propertyColumns = `
	id, link, title, type, price, price_numeric, currency_code,
	bedrooms, bathrooms, property_size, location, description, image,
	keywords, created_at, updated_at`

// FetchPage returns up to limit catalog rows matching the compiled query,
// excluding rows whose link or title appears in the exclusion sets.
func (s *PostgresStore) FetchPage(
	ctx context.Context,
	query model.Query,
	sort model.Sort,
	excludeLinks, excludeTitles []string,
	limit int,
) ([]model.Property, error) {
	tr := newTranslator()
	where := tr.translate(query.Root)
	if where == "" {
		where = "TRUE"
	}

	if len(excludeLinks) > 0 {
		where += fmt.Sprintf(" AND link <> ALL($%d)", tr.bind(pq.Array(excludeLinks)))
	}
	if len(excludeTitles) > 0 {
		where += fmt.Sprintf(" AND (title IS NULL OR title <> ALL($%d))", tr.bind(pq.Array(excludeTitles)))
	}

	rankExpr := "0.0"
	if terms := collectFullTextTerms(query.Root); len(terms) > 0 {
		rankExpr = fmt.Sprintf(
			"ts_rank(search_vector, plainto_tsquery('english', $%d))",
			tr.bind(strings.Join(terms, " ")),
		)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s, %s AS text_rank
		FROM properties
		WHERE %s
		ORDER BY %s
		LIMIT $%d
	`, propertyColumns, rankExpr, where, orderBy(sort), tr.bind(limit))

	var properties []model.Property
	if err := s.db.SelectContext(ctx, &properties, selectQuery, tr.args...); err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}

	return properties, nil
}

// DistinctTypes returns the catalog's property type inventory, lowercased.
func (s *PostgresStore) DistinctTypes(ctx context.Context) ([]string, error) {
	var types []string
	query := `
		SELECT DISTINCT lower(type)
		FROM properties
		WHERE type IS NOT NULL AND type <> ''
		ORDER BY lower(type)
	`
	if err := s.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("failed to fetch property types: %w", err)
	}
	return types, nil
}

// UpdateEmbedding writes the embedding vector for a catalog row.
func (s *PostgresStore) UpdateEmbedding(ctx context.Context, link string, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE link = $2`
	res, err := s.db.ExecContext(ctx, query, vec, link)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no catalog row for link %s", link)
	}
	return nil
}

func orderBy(sort model.Sort) string {
	switch sort {
	case model.SortRelevance:
		return "text_rank DESC, price_numeric DESC NULLS LAST"
	case model.SortKeywordRichness:
		return "jsonb_array_length(coalesce(keywords, '[]'::jsonb)) DESC, price_numeric DESC NULLS LAST"
	default:
		return "price_numeric DESC NULLS LAST"
	}
}
