package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quote_api/internal/model"

	"github.com/jmoiron/sqlx"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// quoteRow is the SQLite row shape: tags as JSON text, timestamps as UTC text.
type quoteRow struct {
	ID        string `db:"id"`
	Text      string `db:"text"`
	Author    string `db:"author"`
	Tags      string `db:"tags"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func toQuoteRow(q model.Quote) (quoteRow, error) {
	tags, err := json.Marshal(model.NormalizeTags(q.Tags))
	if err != nil {
		return quoteRow{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return quoteRow{
		ID:        q.ID,
		Text:      q.Text,
		Author:    q.Author,
		Tags:      string(tags),
		CreatedAt: formatTime(q.CreatedAt),
		UpdatedAt: formatTime(q.UpdatedAt),
	}, nil
}

func fromQuoteRow(row quoteRow) (model.Quote, error) {
	var tags []string
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return model.Quote{}, fmt.Errorf("failed to decode tags of quote %s: %w", row.ID, err)
		}
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return model.Quote{}, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{
		ID:        row.ID,
		Text:      row.Text,
		Author:    row.Author,
		Tags:      model.NormalizeTags(tags),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

type sqliteQuoteRepository struct {
	db *sqlx.DB
}

// NewSQLiteQuoteRepository creates a SQLite backed QuoteRepository
func NewSQLiteQuoteRepository(db *sqlx.DB) QuoteRepository {
	return &sqliteQuoteRepository{db: db}
}

const sqliteQuoteColumns = `id, text, author, tags, created_at, updated_at`

func (r *sqliteQuoteRepository) FindAll(ctx context.Context) ([]model.Quote, error) {
	var rows []quoteRow
	query := `SELECT ` + sqliteQuoteColumns + ` FROM quotes ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}

	quotes := make([]model.Quote, 0, len(rows))
	for _, row := range rows {
		q, err := fromQuoteRow(row)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func (r *sqliteQuoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	return findQuoteRow(ctx, r.db, id)
}

func findQuoteRow(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Quote, error) {
	var row quoteRow
	query := `SELECT ` + sqliteQuoteColumns + ` FROM quotes WHERE id = ?`
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quote by ID: %w", err)
	}
	quote, err := fromQuoteRow(row)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *sqliteQuoteRepository) Create(ctx context.Context, q *model.Quote) error {
	row, err := toQuoteRow(*q)
	if err != nil {
		return err
	}
	query := `INSERT INTO quotes (id, text, author, tags, created_at, updated_at)
              VALUES (:id, :text, :author, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

func (r *sqliteQuoteRepository) Update(ctx context.Context, id string, req model.UpdateQuoteRequest, now time.Time) (*model.Quote, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := findQuoteRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrRecordNotFound
	}

	req.Apply(current)
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Microsecond)
	}
	current.UpdatedAt = now

	row, err := toQuoteRow(*current)
	if err != nil {
		return nil, err
	}
	query := `UPDATE quotes SET text = :text, author = :author, tags = :tags, updated_at = :updated_at
              WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quote update: %w", err)
	}
	return current, nil
}

func (r *sqliteQuoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
