package gamma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/polyscan/ctfindex/internal/common"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.GammaConfig{
		BaseURL:        server.URL,
		RequestTimeout: common.NewDuration(5 * time.Second),
	}, logger.NewNopLogger())
}

func TestGetEvent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/election-2026", r.URL.Path)
		w.Write([]byte(`{
			"id": "1",
			"slug": "election-2026",
			"title": "Election",
			"negRisk": true,
			"markets": [{"slug": "m1", "conditionId": "0xabc", "questionId": "0xdef", "clobTokenIds": ["0x1", "0x2"]}]
		}`))
	}))

	event, err := client.GetEvent(context.Background(), "election-2026")
	require.NoError(t, err)
	assert.Equal(t, "election-2026", event.Slug)
	assert.True(t, event.NegRisk)
	require.Len(t, event.Markets, 1)
	assert.Equal(t, "m1", event.Markets[0].Slug)
}

func TestGetEvent_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetEvent(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetEventMarkets_FallsBackToEndpoint(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/e":
			// Event exists but carries no nested markets
			w.Write([]byte(`{"slug": "e", "markets": []}`))
		case "/events/e/markets":
			w.Write([]byte(`[{"slug": "m1"}, {"slug": "m2"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	markets, err := client.GetEventMarkets(context.Background(), "e")
	require.NoError(t, err)
	require.Len(t, markets, 2)
}

func TestGetMarketByConditionID_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetMarketByConditionID(context.Background(), "0xabc")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetMarketByTokenID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0x1", r.URL.Query().Get("clob_token_ids"))
		w.Write([]byte(`[{"slug": "m1", "clobTokenIds": "[\"0x1\", \"0x2\"]"}]`))
	}))

	market, err := client.GetMarketByTokenID(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, "m1", market.Slug)
	// String-wrapped clobTokenIds decode transparently
	assert.Equal(t, TokenIDList{"0x1", "0x2"}, market.ClobTokenIDs)
}

func TestGetMarketByTokenID_EmptyResult(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	_, err := client.GetMarketByTokenID(context.Background(), "0x1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarketIsClosed(t *testing.T) {
	open := Market{Active: true, EnableOrderBook: true, AcceptingOrders: true}
	assert.False(t, open.IsClosed())

	tests := []struct {
		name   string
		mutate func(*Market)
	}{
		{"closed flag", func(m *Market) { m.Closed = true }},
		{"archived", func(m *Market) { m.Archived = true }},
		{"order book disabled", func(m *Market) { m.EnableOrderBook = false }},
		{"not accepting orders", func(m *Market) { m.AcceptingOrders = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := open
			tt.mutate(&m)
			assert.True(t, m.IsClosed())
		})
	}
}

func TestMarketValidate(t *testing.T) {
	valid := Market{
		Slug:         "m",
		ConditionID:  "0xabc",
		QuestionID:   "0xdef",
		ClobTokenIDs: TokenIDList{"0x1", "0x2"},
	}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.ConditionID = ""
	require.Error(t, missing.Validate())

	oneToken := valid
	oneToken.ClobTokenIDs = TokenIDList{"0x1"}
	require.Error(t, oneToken.Validate())

	badHex := valid
	badHex.ClobTokenIDs = TokenIDList{"0x1", "nothex"}
	require.Error(t, badHex.Validate())
}
