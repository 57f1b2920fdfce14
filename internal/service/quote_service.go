package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"quote_api/internal/logging"
	"quote_api/internal/model"
	"quote_api/internal/repository"

	"github.com/google/uuid"
)

// QuoteService defines operations for quotes
type QuoteService interface {
	ListQuotes(ctx context.Context) ([]model.Quote, error)
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	GetRandomQuote(ctx context.Context) (*model.Quote, error)
	CreateQuote(ctx context.Context, req model.CreateQuoteRequest) (*model.Quote, error)
	UpdateQuote(ctx context.Context, id string, req model.UpdateQuoteRequest) (*model.Quote, error)
	DeleteQuote(ctx context.Context, id string) error
	SeedQuotes(ctx context.Context, quotes []model.CreateQuoteRequest) (int, error)
}

// QuoteOption customises a QuoteService
type QuoteOption func(*quoteService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) QuoteOption {
	return func(s *quoteService) { s.now = now }
}

// WithRandom replaces the uniform index picker used by GetRandomQuote
func WithRandom(intN func(n int) int) QuoteOption {
	return func(s *quoteService) { s.intN = intN }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(newID func() string) QuoteOption {
	return func(s *quoteService) { s.newID = newID }
}

type quoteService struct {
	repo  repository.QuoteRepository
	now   func() time.Time
	intN  func(n int) int
	newID func() string
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(repo repository.QuoteRepository, opts ...QuoteOption) QuoteService {
	s := &quoteService{
		repo:  repo,
		now:   time.Now,
		intN:  rand.IntN,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is truncated to microseconds so every backend stores it losslessly.
func (s *quoteService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func quoteNotFound(id string) error {
	return &NotFoundError{Entity: "Quote", ID: id}
}

func (s *quoteService) ListQuotes(ctx context.Context) ([]model.Quote, error) {
	quotes, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	return quotes, nil
}

func (s *quoteService) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if quote == nil {
		return nil, quoteNotFound(id)
	}
	return quote, nil
}

func (s *quoteService) GetRandomQuote(ctx context.Context) (*model.Quote, error) {
	quotes, err := s.ListQuotes(ctx)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, &NotFoundError{Entity: "Quote", Message: MsgNoQuotes}
	}
	picked := quotes[s.intN(len(quotes))]
	return &picked, nil
}

func (s *quoteService) CreateQuote(ctx context.Context, req model.CreateQuoteRequest) (*model.Quote, error) {
	if err := validateQuoteFields(req.Text, req.Author); err != nil {
		return nil, err
	}

	now := s.timestamp()
	quote := &model.Quote{
		ID:        s.newID(),
		Text:      req.Text,
		Author:    req.Author,
		Tags:      model.NormalizeTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	logging.FromContext(ctx).Info("quote created", slog.String("quote_id", quote.ID))
	return quote, nil
}

func (s *quoteService) UpdateQuote(ctx context.Context, id string, req model.UpdateQuoteRequest) (*model.Quote, error) {
	if err := validateQuoteUpdate(req); err != nil {
		return nil, err
	}

	quote, err := s.repo.Update(ctx, id, req, s.timestamp())
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, quoteNotFound(id)
		}
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	logging.FromContext(ctx).Info("quote updated", slog.String("quote_id", id))
	return quote, nil
}

func (s *quoteService) DeleteQuote(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return quoteNotFound(id)
		}
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	logging.FromContext(ctx).Info("quote deleted", slog.String("quote_id", id))
	return nil
}

// SeedQuotes inserts quotes only into an empty store and reports how many were added.
func (s *quoteService) SeedQuotes(ctx context.Context, quotes []model.CreateQuoteRequest) (int, error) {
	existing, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect store before seeding: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, req := range quotes {
		if _, err := s.CreateQuote(ctx, req); err != nil {
			return i, fmt.Errorf("failed to seed quote %d: %w", i, err)
		}
	}
	return len(quotes), nil
}

func validateQuoteFields(text, author string) error {
	var missing []string
	if strings.TrimSpace(text) == "" {
		missing = append(missing, "text")
	}
	if strings.TrimSpace(author) == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return &ValidationError{
			Message: MsgQuoteRequiredFields,
			Detail:  strings.Join(missing, " and ") + " must not be empty",
		}
	}
	return nil
}

// validateQuoteUpdate rejects fields that are present but blank.
func validateQuoteUpdate(req model.UpdateQuoteRequest) error {
	text, author := "x", "x"
	if req.Text != nil {
		text = *req.Text
	}
	if req.Author != nil {
		author = *req.Author
	}
	return validateQuoteFields(text, author)
}

// DefaultSeedQuotes are loaded into an empty store when seeding is enabled.
func DefaultSeedQuotes() []model.CreateQuoteRequest {
	return []model.CreateQuoteRequest{
		{Text: "The best way to predict the future is to invent it.", Author: "Alan Kay", Tags: []string{"inspiration", "future"}},
		{Text: "The only way to do great work is to love what you do.", Author: "Steve Jobs", Tags: []string{"work", "passion"}},
		{Text: "Life is what happens when you're busy making other plans.", Author: "John Lennon", Tags: []string{"life", "planning"}},
		{Text: "The journey of a thousand miles begins with one step.", Author: "Lao Tzu", Tags: []string{"journey", "perseverance"}},
		{Text: "It always seems impossible until it's done.", Author: "Nelson Mandela", Tags: []string{"motivation", "achievement"}},
	}
}
