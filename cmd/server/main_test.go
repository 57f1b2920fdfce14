package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"quote_api/internal/config"
	"quote_api/internal/handler"
	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileOnlyConfig(path string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendFile, FilePath: path, Seed: true},
		Auth:    config.AuthConfig{Enabled: false},
	}
}

func listQuotes(t *testing.T, svc service.QuoteService) (int, []model.Quote) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := handler.NewRouter(handler.RouterConfig{
		Quotes:      handler.NewQuoteHandler(svc),
		QuoteAccess: config.AccessOpen,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes", nil))

	var env struct {
		Data []model.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env.Data
}

func TestSeedQuotes_CorruptFileKeepsServing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.json")
	corrupt := []byte("{not json")
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	ctx := context.Background()

	st, err := openStores(ctx, fileOnlyConfig(path), logger)
	require.NoError(t, err)
	defer st.Close()

	svc := service.NewQuoteService(st.quotes)
	assert.NotPanics(t, func() { seedQuotes(ctx, svc, logger) })
	assert.Contains(t, logs.String(), "failed to seed quotes")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)

	status, quotes := listQuotes(t, svc)
	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, quotes)
	assert.Empty(t, quotes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data)
}

func TestSeedQuotes_EmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.json")
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	ctx := context.Background()

	st, err := openStores(ctx, fileOnlyConfig(path), logger)
	require.NoError(t, err)
	defer st.Close()

	svc := service.NewQuoteService(st.quotes)
	seedQuotes(ctx, svc, logger)
	assert.Contains(t, logs.String(), "seeded initial quotes")

	_, quotes := listQuotes(t, svc)
	assert.Len(t, quotes, len(service.DefaultSeedQuotes()))

	// a second start leaves the populated store alone
	seedQuotes(ctx, svc, logger)
	_, quotes = listQuotes(t, svc)
	assert.Len(t, quotes, len(service.DefaultSeedQuotes()))
}
