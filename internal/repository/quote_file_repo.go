package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"quote_api/internal/model"
)

// ErrCorruptStore is returned by file store mutations when the document on
// disk cannot be decoded. The file is left untouched.
var ErrCorruptStore = errors.New("quote file is not a valid JSON array")

// quoteDocument is the on-disk shape of a quote.
type quoteDocument struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Author    string     `json:"author"`
	Tags      []string   `json:"tags"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func toQuoteDocument(q model.Quote) quoteDocument {
	doc := quoteDocument{
		ID:     q.ID,
		Text:   q.Text,
		Author: q.Author,
		Tags:   model.NormalizeTags(q.Tags),
	}
	if !q.CreatedAt.IsZero() {
		createdAt := q.CreatedAt.UTC()
		doc.CreatedAt = &createdAt
	}
	if !q.UpdatedAt.IsZero() {
		updatedAt := q.UpdatedAt.UTC()
		doc.UpdatedAt = &updatedAt
	}
	return doc
}

func fromQuoteDocument(doc quoteDocument) model.Quote {
	q := model.Quote{
		ID:     doc.ID,
		Text:   doc.Text,
		Author: doc.Author,
		Tags:   model.NormalizeTags(doc.Tags),
	}
	if doc.CreatedAt != nil {
		q.CreatedAt = *doc.CreatedAt
	}
	if doc.UpdatedAt != nil {
		q.UpdatedAt = *doc.UpdatedAt
	}
	return q
}

type fileQuoteRepository struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewFileQuoteRepository creates a QuoteRepository persisting the whole
// collection as one JSON array at path.
func NewFileQuoteRepository(path string, logger *slog.Logger) (QuoteRepository, error) {
	if path == "" {
		return nil, errors.New("quote file path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create quote directory: %w", err)
	}
	return &fileQuoteRepository{path: path, logger: logger}, nil
}

// load reads the document. A missing file is an empty store.
func (r *fileQuoteRepository) load() ([]model.Quote, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Quote{}, nil
		}
		return nil, fmt.Errorf("failed to read quote file: %w", err)
	}
	if len(data) == 0 {
		return []model.Quote{}, nil
	}

	var docs []quoteDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	quotes := make([]model.Quote, 0, len(docs))
	for _, doc := range docs {
		quotes = append(quotes, fromQuoteDocument(doc))
	}
	return quotes, nil
}

// loadForRead swallows read failures so the read paths stay available.
func (r *fileQuoteRepository) loadForRead(ctx context.Context) []model.Quote {
	quotes, err := r.load()
	if err != nil {
		r.logger.ErrorContext(ctx, "reading quote file failed, serving empty result",
			slog.String("path", r.path), slog.Any("error", err))
		return []model.Quote{}
	}
	return quotes
}

// save writes the document to a temp file and renames it over the target.
func (r *fileQuoteRepository) save(quotes []model.Quote) error {
	docs := make([]quoteDocument, 0, len(quotes))
	for _, q := range quotes {
		docs = append(docs, toQuoteDocument(q))
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode quotes: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp quote file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write quote file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync quote file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close quote file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace quote file: %w", err)
	}
	return nil
}

func (r *fileQuoteRepository) FindAll(ctx context.Context) ([]model.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadForRead(ctx), nil
}

func (r *fileQuoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, q := range r.loadForRead(ctx) {
		if q.ID == id {
			found := q
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fileQuoteRepository) Create(ctx context.Context, q *model.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	quotes, err := r.load()
	if err != nil {
		return err
	}
	for _, existing := range quotes {
		if existing.ID == q.ID {
			return ErrDuplicate
		}
	}
	quotes = append(quotes, *q)
	return r.save(quotes)
}

func (r *fileQuoteRepository) Update(ctx context.Context, id string, req model.UpdateQuoteRequest, now time.Time) (*model.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	quotes, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		if quotes[i].ID != id {
			continue
		}
		req.Apply(&quotes[i])
		if !now.After(quotes[i].UpdatedAt) {
			now = quotes[i].UpdatedAt.Add(time.Microsecond)
		}
		quotes[i].UpdatedAt = now
		if err := r.save(quotes); err != nil {
			return nil, err
		}
		updated := quotes[i]
		return &updated, nil
	}
	return nil, ErrRecordNotFound
}

func (r *fileQuoteRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	quotes, err := r.load()
	if err != nil {
		return err
	}
	for i := range quotes {
		if quotes[i].ID == id {
			quotes = append(quotes[:i], quotes[i+1:]...)
			return r.save(quotes)
		}
	}
	return ErrRecordNotFound
}

// CheckQuoteFile reports whether the document at path is readable and
// well formed. A missing file is healthy.
func CheckQuoteFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read quote file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var docs []quoteDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return nil
}
