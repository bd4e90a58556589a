package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/internal/store"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// Storage is the read surface the API serves from.
type Storage interface {
	GetEventBySlug(ctx context.Context, slug string) (*store.Event, error)
	GetMarketBySlug(ctx context.Context, slug string) (*store.Market, error)
	GetMarketsByEventSlug(ctx context.Context, eventSlug string) ([]*store.Market, error)
	FindMarketByTokenID(ctx context.Context, tokenID string) (*store.Market, error)
	QueryTrades(ctx context.Context, filter store.TradeFilter) ([]*store.Trade, int64, error)
	TradeCount(ctx context.Context, marketID int64) (int64, error)
	GetSyncState(ctx context.Context, key string) (*store.SyncState, error)
}

// Handler handles HTTP requests for the API.
type Handler struct {
	storage   Storage
	cursorKey string
	log       *logger.Logger
}

// NewHandler creates a new API handler. cursorKey is the sync cursor row the
// health endpoint reports.
func NewHandler(storage Storage, cursorKey string, log *logger.Logger) *Handler {
	return &Handler{
		storage:   storage,
		cursorKey: cursorKey,
		log:       log,
	}
}

// Health returns the health status of the API and the sync cursor height.
// @Summary Health check
// @Description Check API health and the last synced block
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "API health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	}

	state, err := h.storage.GetSyncState(r.Context(), h.cursorKey)
	if err == nil {
		response.LastSyncedBlock = state.LastBlock
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Errorf("Failed to read sync state: %v", err)
		response.Status = "degraded"
	}

	respondJSON(w, http.StatusOK, response)
}

// GetEvent returns a single event by slug.
// @Summary Get an event
// @Description Retrieve a single event by its slug
// @Tags Events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} EventView "Event"
// @Failure 404 {object} ErrorResponse "Event not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events/{slug} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "event slug is required")
		return
	}

	event, err := h.storage.GetEventBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("event '%s' not found", slug))
			return
		}

		h.log.Errorf("Failed to get event: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get event")

		return
	}

	respondJSON(w, http.StatusOK, eventView(event))
}

// GetEventMarkets returns all markets that belong to an event.
// @Summary Get an event's markets
// @Description Retrieve all markets grouped under an event
// @Tags Events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {array} MarketView "Markets"
// @Failure 404 {object} ErrorResponse "Event not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events/{slug}/markets [get]
func (h *Handler) GetEventMarkets(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "event slug is required")
		return
	}

	if _, err := h.storage.GetEventBySlug(r.Context(), slug); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("event '%s' not found", slug))
			return
		}

		h.log.Errorf("Failed to get event: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get event")

		return
	}

	markets, err := h.storage.GetMarketsByEventSlug(r.Context(), slug)
	if err != nil {
		h.log.Errorf("Failed to get markets for event '%s': %v", slug, err)
		respondError(w, http.StatusInternalServerError, "failed to get markets")

		return
	}

	views := make([]MarketView, 0, len(markets))
	for _, market := range markets {
		views = append(views, marketView(market))
	}

	respondJSON(w, http.StatusOK, views)
}

// GetMarket returns a single market by slug, including its trade count.
// @Summary Get a market
// @Description Retrieve a single market by its slug with its trade count
// @Tags Markets
// @Produce json
// @Param slug path string true "Market slug"
// @Success 200 {object} MarketView "Market"
// @Failure 404 {object} ErrorResponse "Market not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /markets/{slug} [get]
func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "market slug is required")
		return
	}

	market, err := h.storage.GetMarketBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("market '%s' not found", slug))
			return
		}

		h.log.Errorf("Failed to get market: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get market")

		return
	}

	view := marketView(market)

	count, err := h.storage.TradeCount(r.Context(), market.ID)
	if err != nil {
		h.log.Errorf("Failed to count trades for market '%s': %v", slug, err)
	} else {
		view.TradeCount = &count
	}

	respondJSON(w, http.StatusOK, view)
}

// GetMarketTrades returns a page of trades for a market.
// @Summary Get a market's trades
// @Description Retrieve trades for a market with optional filtering and pagination
// @Tags Trades
// @Produce json
// @Param slug path string true "Market slug"
// @Param limit query int false "Maximum number of trades to return" default(100)
// @Param offset query int false "Number of trades to skip" default(0)
// @Param from_block query integer false "Filter trades from this block number"
// @Param to_block query integer false "Filter trades up to this block number"
// @Param side query string false "Filter by side" Enums(buy, sell)
// @Param outcome query string false "Filter by outcome" Enums(yes, no)
// @Success 200 {object} TradesResponse "Trades with pagination info"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Market not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /markets/{slug}/trades [get]
func (h *Handler) GetMarketTrades(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "market slug is required")
		return
	}

	market, err := h.storage.GetMarketBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("market '%s' not found", slug))
			return
		}

		h.log.Errorf("Failed to get market: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get market")

		return
	}

	filter, err := parseTradeFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter.MarketID = &market.ID

	h.respondTrades(w, r, filter)
}

// GetTokenTrades returns a page of trades for an outcome token id.
// @Summary Get trades by token id
// @Description Retrieve trades for a specific outcome token with optional filtering and pagination
// @Tags Trades
// @Produce json
// @Param tokenId path string true "Outcome token id (hex)"
// @Param limit query int false "Maximum number of trades to return" default(100)
// @Param offset query int false "Number of trades to skip" default(0)
// @Param from_block query integer false "Filter trades from this block number"
// @Param to_block query integer false "Filter trades up to this block number"
// @Param side query string false "Filter by side" Enums(buy, sell)
// @Success 200 {object} TradesResponse "Trades with pagination info"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tokens/{tokenId}/trades [get]
func (h *Handler) GetTokenTrades(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("tokenId")
	if tokenID == "" {
		respondError(w, http.StatusBadRequest, "token id is required")
		return
	}

	filter, err := parseTradeFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter.TokenID = tokenID

	h.respondTrades(w, r, filter)
}

func (h *Handler) respondTrades(w http.ResponseWriter, r *http.Request, filter store.TradeFilter) {
	trades, total, err := h.storage.QueryTrades(r.Context(), filter)
	if err != nil {
		h.log.Errorf("Failed to query trades: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query trades")

		return
	}

	response := TradesResponse{
		Trades: tradeViews(trades),
		Pagination: PaginationResult{
			Total:   total,
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: int64(filter.Offset+len(trades)) < total,
		},
	}

	respondJSON(w, http.StatusOK, response)
}

// parseTradeFilter parses the shared trade query parameters.
func parseTradeFilter(r *http.Request) (store.TradeFilter, error) {
	filter := store.TradeFilter{Limit: defaultPageLimit}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return filter, fmt.Errorf("invalid limit: must be between 1 and %d", maxPageLimit)
		}

		filter.Limit = limit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("invalid offset: must be non-negative")
		}

		filter.Offset = offset
	}

	if fromBlockStr := r.URL.Query().Get("from_block"); fromBlockStr != "" {
		fromBlock, err := strconv.ParseUint(fromBlockStr, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid from_block")
		}

		filter.FromBlock = &fromBlock
	}

	if toBlockStr := r.URL.Query().Get("to_block"); toBlockStr != "" {
		toBlock, err := strconv.ParseUint(toBlockStr, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid to_block")
		}

		filter.ToBlock = &toBlock
	}

	if filter.FromBlock != nil && filter.ToBlock != nil && *filter.FromBlock > *filter.ToBlock {
		return filter, fmt.Errorf("from_block cannot be greater than to_block")
	}

	if side := r.URL.Query().Get("side"); side != "" {
		side = strings.ToUpper(side)
		if side != "BUY" && side != "SELL" {
			return filter, fmt.Errorf("invalid side: must be 'buy' or 'sell'")
		}

		filter.Side = side
	}

	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		outcome = strings.ToUpper(outcome)
		if outcome != "YES" && outcome != "NO" {
			return filter, fmt.Errorf("invalid outcome: must be 'yes' or 'no'")
		}

		filter.Outcome = outcome
	}

	return filter, nil
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	if _, err := w.Write(encoded); err != nil {
		// Headers already sent, nothing left to do
		return
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}
