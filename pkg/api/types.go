package api

import (
	"time"

	"github.com/polyscan/ctfindex/internal/store"
)

// EventView is the JSON representation of a persisted event.
type EventView struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	NegRisk     bool   `json:"neg_risk"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// MarketView is the JSON representation of a persisted market.
type MarketView struct {
	Slug            string `json:"slug"`
	ConditionID     string `json:"condition_id"`
	QuestionID      string `json:"question_id"`
	Oracle          string `json:"oracle"`
	CollateralToken string `json:"collateral_token"`
	YesTokenID      string `json:"yes_token_id"`
	NoTokenID       string `json:"no_token_id"`
	NegRisk         bool   `json:"neg_risk"`
	Status          string `json:"status"`
	TradeCount      *int64 `json:"trade_count,omitempty"`
}

// TradeView is the JSON representation of a persisted trade.
type TradeView struct {
	TxHash      string `json:"tx_hash"`
	LogIndex    uint   `json:"log_index"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   int64  `json:"timestamp"`
	Maker       string `json:"maker"`
	Taker       string `json:"taker"`
	Side        string `json:"side"`
	Outcome     string `json:"outcome"`
	TokenID     string `json:"token_id"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	Fee         string `json:"fee"`
}

// TradesResponse wraps a page of trades with pagination metadata.
type TradesResponse struct {
	Trades     []TradeView      `json:"trades"`
	Pagination PaginationResult `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	LastSyncedBlock uint64    `json:"last_synced_block"`
}

func eventView(event *store.Event) EventView {
	return EventView{
		Slug:        event.Slug,
		Title:       event.Title,
		Description: event.Description,
		NegRisk:     event.NegRisk,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func marketView(market *store.Market) MarketView {
	return MarketView{
		Slug:            market.Slug,
		ConditionID:     market.ConditionID.Hex(),
		QuestionID:      market.QuestionID.Hex(),
		Oracle:          market.Oracle.Hex(),
		CollateralToken: market.CollateralToken.Hex(),
		YesTokenID:      market.YesTokenID,
		NoTokenID:       market.NoTokenID,
		NegRisk:         market.NegRisk,
		Status:          market.Status,
	}
}

func tradeViews(trades []*store.Trade) []TradeView {
	views := make([]TradeView, 0, len(trades))
	for _, trade := range trades {
		views = append(views, TradeView{
			TxHash:      trade.TxHash.Hex(),
			LogIndex:    trade.LogIndex,
			BlockNumber: trade.BlockNumber,
			Timestamp:   trade.Timestamp,
			Maker:       trade.Maker.Hex(),
			Taker:       trade.Taker.Hex(),
			Side:        trade.Side,
			Outcome:     trade.Outcome,
			TokenID:     trade.TokenID,
			Price:       trade.Price,
			Size:        trade.Size,
			Fee:         trade.Fee,
		})
	}

	return views
}
