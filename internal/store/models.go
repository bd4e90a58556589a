package store

import (
	"github.com/ethereum/go-ethereum/common"
)

// Market status values.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Event is a persisted parent grouping of markets.
// Uses meddler tags for automatic struct-to-db mapping.
type Event struct {
	ID          int64  `meddler:"id,pk"`
	Slug        string `meddler:"slug"`
	Title       string `meddler:"title"`
	Description string `meddler:"description"`
	NegRisk     bool   `meddler:"neg_risk"`
	CreatedAt   string `meddler:"created_at"`
	UpdatedAt   string `meddler:"updated_at"`
}

// Market is a persisted condition with its derived outcome token ids.
type Market struct {
	ID              int64          `meddler:"id,pk"`
	Slug            string         `meddler:"slug"`
	ConditionID     common.Hash    `meddler:"condition_id,hash"`
	QuestionID      common.Hash    `meddler:"question_id,hash"`
	Oracle          common.Address `meddler:"oracle,address"`
	CollateralToken common.Address `meddler:"collateral_token,address"`
	YesTokenID      string         `meddler:"yes_token_id"`
	NoTokenID       string         `meddler:"no_token_id"`
	NegRisk         bool           `meddler:"neg_risk"`
	Status          string         `meddler:"status"`
	EventID         *int64         `meddler:"event_id"`
	CreatedAt       string         `meddler:"created_at"`
	UpdatedAt       string         `meddler:"updated_at"`
}

// Trade is one persisted fill. (tx_hash, log_index) is the idempotency key.
type Trade struct {
	ID           int64          `meddler:"id,pk"`
	MarketID     *int64         `meddler:"market_id"`
	TxHash       common.Hash    `meddler:"tx_hash,hash"`
	LogIndex     uint           `meddler:"log_index"`
	BlockNumber  uint64         `meddler:"block_number"`
	BlockHash    common.Hash    `meddler:"block_hash,hash"`
	Timestamp    int64          `meddler:"timestamp"`
	Maker        common.Address `meddler:"maker,address"`
	Taker        common.Address `meddler:"taker,address"`
	Side         string         `meddler:"side"`
	Outcome      string         `meddler:"outcome"`
	TokenID      string         `meddler:"token_id"`
	Price        string         `meddler:"price"`
	Size         string         `meddler:"size"`
	MakerAssetID string         `meddler:"maker_asset_id"`
	TakerAssetID string         `meddler:"taker_asset_id"`
	MakerAmount  string         `meddler:"maker_amount"`
	TakerAmount  string         `meddler:"taker_amount"`
	Fee          string         `meddler:"fee"`
	CreatedAt    string         `meddler:"created_at"`
}

// SyncState is the durable cursor row for one sync stream.
type SyncState struct {
	Key           string      `meddler:"key"`
	LastBlock     uint64      `meddler:"last_block"`
	LastBlockHash common.Hash `meddler:"last_block_hash,hash"`
	UpdatedAt     string      `meddler:"updated_at"`
}

// TradeFilter narrows and pages trade queries.
type TradeFilter struct {
	MarketID  *int64
	TokenID   string
	FromBlock *uint64
	ToBlock   *uint64
	Side      string
	Outcome   string
	Limit     int
	Offset    int
}
