package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote_api/internal/model"

	"github.com/jackc/pgx/v5"
)

// QuoteRepository defines operations for quote data
type QuoteRepository interface {
	FindAll(ctx context.Context) ([]model.Quote, error)
	FindByID(ctx context.Context, id string) (*model.Quote, error)
	Create(ctx context.Context, quote *model.Quote) error
	Update(ctx context.Context, id string, req model.UpdateQuoteRequest, now time.Time) (*model.Quote, error)
	Delete(ctx context.Context, id string) error
}

type quoteRepository struct {
	db DBTX
}

// NewQuoteRepository creates a PostgreSQL backed QuoteRepository
func NewQuoteRepository(db DBTX) QuoteRepository {
	return &quoteRepository{db: db}
}

const quoteColumns = `id, text, author, tags, created_at, updated_at`

func scanQuote(row pgx.Row) (*model.Quote, error) {
	q := &model.Quote{}
	if err := row.Scan(&q.ID, &q.Text, &q.Author, &q.Tags, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Tags = model.NormalizeTags(q.Tags)
	return q, nil
}

// FindAll retrieves every quote ordered by creation time
func (r *quoteRepository) FindAll(ctx context.Context) ([]model.Quote, error) {
	sql := `SELECT ` + quoteColumns + ` FROM quotes ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := []model.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}
	return quotes, nil
}

// FindByID retrieves a quote by its ID
func (r *quoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	sql := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	q, err := scanQuote(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find quote by ID: %w", err)
	}
	return q, nil
}

// Create inserts a new quote
func (r *quoteRepository) Create(ctx context.Context, q *model.Quote) error {
	sql := `INSERT INTO quotes (id, text, author, tags, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, sql, q.ID, q.Text, q.Author, model.NormalizeTags(q.Tags), q.CreatedAt, q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// Update merges the supplied fields in a single statement. updated_at moves
// forward by at least one microsecond so it strictly increases per row.
func (r *quoteRepository) Update(ctx context.Context, id string, req model.UpdateQuoteRequest, now time.Time) (*model.Quote, error) {
	var tags []string
	if req.Tags != nil {
		tags = model.NormalizeTags(*req.Tags)
	}
	sql := `UPDATE quotes SET
                text = COALESCE($2, text),
                author = COALESCE($3, author),
                tags = COALESCE($4, tags),
                updated_at = GREATEST($5, updated_at + interval '1 microsecond')
            WHERE id = $1
            RETURNING ` + quoteColumns
	q, err := scanQuote(r.db.QueryRow(ctx, sql, id, req.Text, req.Author, tags, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	return q, nil
}

// Delete removes a quote by its ID
func (r *quoteRepository) Delete(ctx context.Context, id string) error {
	sql := `DELETE FROM quotes WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
