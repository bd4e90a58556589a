package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyscan/ctfindex/internal/db"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/internal/migrations"
	"github.com/polyscan/ctfindex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCursorKey = "trade_sync"

func newTestHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, migrations.RunMigrations(dbPath))

	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	s := store.New(database, logger.NewNopLogger(), nil)

	return NewHandler(s, testCursorKey, logger.NewNopLogger()), s
}

func seedMarket(t *testing.T, s *store.Store, slug string, eventID *int64) *store.Market {
	t.Helper()

	market := &store.Market{
		Slug:            slug,
		ConditionID:     common.HexToHash("0x" + strings.Repeat("11", 32)),
		QuestionID:      common.HexToHash("0x" + strings.Repeat("22", 32)),
		Oracle:          common.HexToAddress("0x" + strings.Repeat("33", 20)),
		CollateralToken: common.HexToAddress("0x" + strings.Repeat("44", 20)),
		YesTokenID:      "0x" + strings.Repeat("aa", 32),
		NoTokenID:       "0x" + strings.Repeat("bb", 32),
		Status:          store.StatusActive,
		EventID:         eventID,
	}

	id, err := s.UpsertMarket(t.Context(), market)
	require.NoError(t, err)
	market.ID = id

	return market
}

func seedTrade(t *testing.T, s *store.Store, market *store.Market, logIndex uint, blockNumber uint64, side string) {
	t.Helper()

	inserted, err := s.InsertTrades(t.Context(), []*store.Trade{{
		MarketID:     &market.ID,
		TxHash:       common.HexToHash(fmt.Sprintf("0x%064d", blockNumber)),
		LogIndex:     logIndex,
		BlockNumber:  blockNumber,
		Timestamp:    1700000000,
		Maker:        common.HexToAddress("0x" + strings.Repeat("01", 20)),
		Taker:        common.HexToAddress("0x" + strings.Repeat("02", 20)),
		Side:         side,
		Outcome:      "YES",
		TokenID:      market.YesTokenID,
		Price:        "0.5",
		Size:         "2",
		MakerAssetID: "0",
		TakerAssetID: "1",
		MakerAmount:  "1000000",
		TakerAmount:  "2000000",
		Fee:          "0",
	}})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
}

func doRequest(t *testing.T, handler http.HandlerFunc, target string, pathParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	w := httptest.NewRecorder()
	handler(w, req)

	return w
}

func TestHealth(t *testing.T) {
	h, s := newTestHandler(t)

	// Without a cursor row the API is healthy at block 0
	w := doRequest(t, h.Health, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, uint64(0), health.LastSyncedBlock)

	require.NoError(t, s.SaveSyncState(t.Context(), testCursorKey, 41000000, common.HexToHash("0xff")))

	w = doRequest(t, h.Health, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, uint64(41000000), health.LastSyncedBlock)
}

func TestGetEvent(t *testing.T) {
	h, s := newTestHandler(t)

	_, err := s.UpsertEvent(t.Context(), &store.Event{
		Slug:    "election-2026",
		Title:   "Election 2026",
		NegRisk: true,
	})
	require.NoError(t, err)

	w := doRequest(t, h.GetEvent, "/api/v1/events/election-2026", map[string]string{"slug": "election-2026"})
	require.Equal(t, http.StatusOK, w.Code)

	var event EventView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, "election-2026", event.Slug)
	assert.Equal(t, "Election 2026", event.Title)
	assert.True(t, event.NegRisk)
}

func TestGetEvent_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h.GetEvent, "/api/v1/events/missing", map[string]string{"slug": "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, http.StatusNotFound, errResp.Code)
	assert.Contains(t, errResp.Message, "missing")
}

func TestGetEventMarkets(t *testing.T) {
	h, s := newTestHandler(t)

	eventID, err := s.UpsertEvent(t.Context(), &store.Event{Slug: "cup-final", Title: "Cup Final"})
	require.NoError(t, err)

	seedMarket(t, s, "cup-final-team-a", &eventID)
	seedMarket(t, s, "cup-final-team-b", &eventID)
	seedMarket(t, s, "unrelated-market", nil)

	w := doRequest(t, h.GetEventMarkets, "/api/v1/events/cup-final/markets", map[string]string{"slug": "cup-final"})
	require.Equal(t, http.StatusOK, w.Code)

	var markets []MarketView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &markets))
	require.Len(t, markets, 2)
	assert.Equal(t, "cup-final-team-a", markets[0].Slug)
	assert.Equal(t, "cup-final-team-b", markets[1].Slug)
}

func TestGetEventMarkets_EventNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h.GetEventMarkets, "/api/v1/events/missing/markets", map[string]string{"slug": "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMarket_IncludesTradeCount(t *testing.T) {
	h, s := newTestHandler(t)

	market := seedMarket(t, s, "will-it-rain", nil)
	seedTrade(t, s, market, 0, 41000001, "BUY")
	seedTrade(t, s, market, 1, 41000002, "SELL")

	w := doRequest(t, h.GetMarket, "/api/v1/markets/will-it-rain", map[string]string{"slug": "will-it-rain"})
	require.Equal(t, http.StatusOK, w.Code)

	var view MarketView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "will-it-rain", view.Slug)
	assert.Equal(t, market.YesTokenID, view.YesTokenID)
	require.NotNil(t, view.TradeCount)
	assert.Equal(t, int64(2), *view.TradeCount)
}

func TestGetMarketTrades(t *testing.T) {
	h, s := newTestHandler(t)

	market := seedMarket(t, s, "will-it-rain", nil)
	other := seedMarket(t, s, "other-market", nil)
	seedTrade(t, s, market, 0, 41000001, "BUY")
	seedTrade(t, s, market, 1, 41000002, "SELL")
	seedTrade(t, s, other, 0, 41000003, "BUY")

	w := doRequest(t, h.GetMarketTrades, "/api/v1/markets/will-it-rain/trades", map[string]string{"slug": "will-it-rain"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 2)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	assert.False(t, resp.Pagination.HasMore)
	assert.Equal(t, uint64(41000001), resp.Trades[0].BlockNumber)
	assert.Equal(t, "BUY", resp.Trades[0].Side)
}

func TestGetMarketTrades_SideFilter(t *testing.T) {
	h, s := newTestHandler(t)

	market := seedMarket(t, s, "will-it-rain", nil)
	seedTrade(t, s, market, 0, 41000001, "BUY")
	seedTrade(t, s, market, 1, 41000002, "SELL")

	w := doRequest(t, h.GetMarketTrades, "/api/v1/markets/will-it-rain/trades?side=sell",
		map[string]string{"slug": "will-it-rain"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, "SELL", resp.Trades[0].Side)
}

func TestGetMarketTrades_Pagination(t *testing.T) {
	h, s := newTestHandler(t)

	market := seedMarket(t, s, "will-it-rain", nil)
	for i := uint64(0); i < 5; i++ {
		seedTrade(t, s, market, 0, 41000001+i, "BUY")
	}

	w := doRequest(t, h.GetMarketTrades, "/api/v1/markets/will-it-rain/trades?limit=2&offset=2",
		map[string]string{"slug": "will-it-rain"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.Limit)
	assert.Equal(t, 2, resp.Pagination.Offset)
	assert.True(t, resp.Pagination.HasMore)
	assert.Equal(t, uint64(41000003), resp.Trades[0].BlockNumber)
}

func TestGetMarketTrades_InvalidParams(t *testing.T) {
	h, s := newTestHandler(t)
	seedMarket(t, s, "will-it-rain", nil)

	tests := []struct {
		name  string
		query string
	}{
		{"limit too large", "?limit=5000"},
		{"limit zero", "?limit=0"},
		{"negative offset", "?offset=-1"},
		{"bad from_block", "?from_block=abc"},
		{"inverted range", "?from_block=100&to_block=50"},
		{"bad side", "?side=hold"},
		{"bad outcome", "?outcome=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h.GetMarketTrades, "/api/v1/markets/will-it-rain/trades"+tt.query,
				map[string]string{"slug": "will-it-rain"})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetMarketTrades_MarketNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h.GetMarketTrades, "/api/v1/markets/missing/trades", map[string]string{"slug": "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTokenTrades(t *testing.T) {
	h, s := newTestHandler(t)

	market := seedMarket(t, s, "will-it-rain", nil)
	seedTrade(t, s, market, 0, 41000001, "BUY")

	// Token id lookup is case-insensitive
	tokenID := "0x" + strings.ToUpper(strings.Repeat("aa", 32))
	w := doRequest(t, h.GetTokenTrades, "/api/v1/tokens/"+tokenID+"/trades",
		map[string]string{"tokenId": tokenID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, market.YesTokenID, resp.Trades[0].TokenID)

	// Unknown token yields an empty page, not an error
	w = doRequest(t, h.GetTokenTrades, "/api/v1/tokens/0xdead/trades", map[string]string{"tokenId": "0xdead"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Trades)
	assert.Equal(t, int64(0), resp.Pagination.Total)
}
