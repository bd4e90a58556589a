package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/polyscan/ctfindex/internal/db"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/internal/migrations"
	"github.com/polyscan/ctfindex/internal/store"
	"github.com/polyscan/ctfindex/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *config.APIConfig) (*Server, *store.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, migrations.RunMigrations(dbPath))

	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	s := store.New(database, logger.NewNopLogger(), nil)

	if cfg == nil {
		cfg = &config.APIConfig{Enabled: true}
	}

	cfg.ApplyDefaults()

	return NewServer(cfg, s, testCursorKey, logger.NewNopLogger()), s
}

func TestServer_Routes(t *testing.T) {
	srv, s := newTestServer(t, nil)

	eventID, err := s.UpsertEvent(t.Context(), &store.Event{Slug: "cup-final", Title: "Cup Final"})
	require.NoError(t, err)

	market := seedMarket(t, s, "cup-final-team-a", &eventID)
	seedTrade(t, s, market, 0, 41000001, "BUY")

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"health", "/health", http.StatusOK},
		{"event", "/api/v1/events/cup-final", http.StatusOK},
		{"event markets", "/api/v1/events/cup-final/markets", http.StatusOK},
		{"market", "/api/v1/markets/cup-final-team-a", http.StatusOK},
		{"market trades", "/api/v1/markets/cup-final-team-a/trades", http.StatusOK},
		{"token trades", "/api/v1/tokens/" + market.YesTokenID + "/trades", http.StatusOK},
		{"missing event", "/api/v1/events/nope", http.StatusNotFound},
		{"missing market", "/api/v1/markets/nope", http.StatusNotFound},
		{"unknown route", "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServer_TradesThroughMux(t *testing.T) {
	srv, s := newTestServer(t, nil)

	market := seedMarket(t, s, "will-it-rain", nil)
	seedTrade(t, s, market, 0, 41000001, "BUY")
	seedTrade(t, s, market, 1, 41000002, "SELL")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/markets/will-it-rain/trades?side=buy", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, "BUY", resp.Trades[0].Side)
}

func TestServer_CORSEnabled(t *testing.T) {
	cfg := &config.APIConfig{
		Enabled: true,
		CORS: config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://example.com"},
		},
	}

	srv, _ := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_DisabledReturnsImmediately(t *testing.T) {
	srv, _ := newTestServer(t, &config.APIConfig{Enabled: false})

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(context.Background())
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("disabled server did not return")
	}
}

func TestServer_StartStopsOnContextCancel(t *testing.T) {
	cfg := &config.APIConfig{Enabled: true, ListenAddress: "127.0.0.1:0"}
	srv, _ := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after context cancel")
	}
}
