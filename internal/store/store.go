package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyscan/ctfindex/internal/db"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/russross/meddler"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed storage port shared by the synchronizer,
// the reconciler and the read API.
type Store struct {
	db          *sql.DB
	log         *logger.Logger
	maintenance db.Maintenance
}

// New creates a Store on an already migrated database.
func New(database *sql.DB, log *logger.Logger, maintenance db.Maintenance) *Store {
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}
	return &Store{
		db:          database,
		log:         log.WithComponent("store"),
		maintenance: maintenance,
	}
}

// DB exposes the underlying handle for migrations and maintenance wiring.
func (s *Store) DB() *sql.DB {
	return s.db
}

// UpsertEvent inserts or updates an event keyed by slug and returns its row id.
func (s *Store) UpsertEvent(ctx context.Context, event *Event) (int64, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (slug, title, description, neg_risk)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			neg_risk = excluded.neg_risk,
			updated_at = CURRENT_TIMESTAMP
	`, event.Slug, event.Title, event.Description, event.NegRisk)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert event %s: %w", event.Slug, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM events WHERE slug = ?`, event.Slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back event %s: %w", event.Slug, err)
	}

	event.ID = id
	return id, nil
}

// GetEventBySlug returns the event with the given slug, or ErrNotFound.
func (s *Store) GetEventBySlug(ctx context.Context, slug string) (*Event, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var event Event
	err := meddler.QueryRow(s.db, &event, `SELECT * FROM events WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event %s: %w", slug, err)
	}

	return &event, nil
}

// UpsertMarket inserts or updates a market keyed by slug and returns its row id.
func (s *Store) UpsertMarket(ctx context.Context, market *Market) (int64, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markets (
			slug, condition_id, question_id, oracle, collateral_token,
			yes_token_id, no_token_id, neg_risk, status, event_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			condition_id = excluded.condition_id,
			question_id = excluded.question_id,
			oracle = excluded.oracle,
			collateral_token = excluded.collateral_token,
			yes_token_id = excluded.yes_token_id,
			no_token_id = excluded.no_token_id,
			neg_risk = excluded.neg_risk,
			status = excluded.status,
			event_id = COALESCE(excluded.event_id, markets.event_id),
			updated_at = CURRENT_TIMESTAMP
	`,
		market.Slug,
		market.ConditionID.Hex(),
		market.QuestionID.Hex(),
		market.Oracle.Hex(),
		market.CollateralToken.Hex(),
		strings.ToLower(market.YesTokenID),
		strings.ToLower(market.NoTokenID),
		market.NegRisk,
		market.Status,
		market.EventID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert market %s: %w", market.Slug, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM markets WHERE slug = ?`, market.Slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back market %s: %w", market.Slug, err)
	}

	market.ID = id
	return id, nil
}

// GetMarketBySlug returns the market with the given slug, or ErrNotFound.
func (s *Store) GetMarketBySlug(ctx context.Context, slug string) (*Market, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var market Market
	err := meddler.QueryRow(s.db, &market, `SELECT * FROM markets WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query market %s: %w", slug, err)
	}

	return &market, nil
}

// GetMarketsByEventSlug lists all markets grouped under the given event.
func (s *Store) GetMarketsByEventSlug(ctx context.Context, eventSlug string) ([]*Market, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var markets []*Market
	err := meddler.QueryAll(s.db, &markets, `
		SELECT m.* FROM markets m
		JOIN events e ON e.id = m.event_id
		WHERE e.slug = ?
		ORDER BY m.id ASC
	`, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets for event %s: %w", eventSlug, err)
	}

	return markets, nil
}

// FindMarketByTokenID returns the market owning the given outcome token id,
// matching either side case-insensitively, or ErrNotFound.
func (s *Store) FindMarketByTokenID(ctx context.Context, tokenID string) (*Market, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	normalized := strings.ToLower(tokenID)

	var market Market
	err := meddler.QueryRow(s.db, &market, `
		SELECT * FROM markets
		WHERE yes_token_id = ? OR no_token_id = ?
	`, normalized, normalized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query market by token id %s: %w", tokenID, err)
	}

	return &market, nil
}

// InsertTrades inserts the batch in a single transaction. Duplicate rows
// (same tx_hash and log_index) are ignored. Returns the number of rows
// actually inserted.
func (s *Store) InsertTrades(ctx context.Context, trades []*Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	rollback := func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Warnf("failed to rollback trade insert: %v", err)
		}
	}

	inserted := 0
	for _, trade := range trades {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO trades (
				market_id, tx_hash, log_index, block_number, block_hash, timestamp,
				maker, taker, side, outcome, token_id, price, size,
				maker_asset_id, taker_asset_id, maker_amount, taker_amount, fee
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			trade.MarketID,
			trade.TxHash.Hex(),
			trade.LogIndex,
			trade.BlockNumber,
			trade.BlockHash.Hex(),
			trade.Timestamp,
			trade.Maker.Hex(),
			trade.Taker.Hex(),
			trade.Side,
			trade.Outcome,
			strings.ToLower(trade.TokenID),
			trade.Price,
			trade.Size,
			trade.MakerAssetID,
			trade.TakerAssetID,
			trade.MakerAmount,
			trade.TakerAmount,
			trade.Fee,
		)
		if err != nil {
			rollback()
			return 0, fmt.Errorf("failed to insert trade %s/%d: %w",
				trade.TxHash.Hex(), trade.LogIndex, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			rollback()
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit trade insert: %w", err)
	}

	return inserted, nil
}

// QueryTrades returns the filtered trade page plus the total row count
// matching the filter before paging.
func (s *Store) QueryTrades(ctx context.Context, filter TradeFilter) ([]*Trade, int64, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	where, args := buildTradeFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM trades" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	query := "SELECT * FROM trades" + where +
		" ORDER BY block_number ASC, log_index ASC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	var trades []*Trade
	if err := meddler.QueryAll(s.db, &trades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to query trades: %w", err)
	}

	return trades, total, nil
}

// TradeCount returns the number of trades recorded for a market.
func (s *Store) TradeCount(ctx context.Context, marketID int64) (int64, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE market_id = ?`, marketID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades for market %d: %w", marketID, err)
	}

	return count, nil
}

// GetSyncState returns the cursor row for the given stream key, or ErrNotFound.
func (s *Store) GetSyncState(ctx context.Context, key string) (*SyncState, error) {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	var state SyncState
	err := meddler.QueryRow(s.db, &state, `SELECT * FROM sync_state WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync state %s: %w", key, err)
	}

	return &state, nil
}

// SaveSyncState upserts the cursor row for the given stream key.
func (s *Store) SaveSyncState(ctx context.Context, key string, lastBlock uint64, lastBlockHash common.Hash) error {
	unlock := s.maintenance.AcquireOperationLock()
	defer unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, last_block, last_block_hash)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			last_block = excluded.last_block,
			last_block_hash = excluded.last_block_hash,
			updated_at = CURRENT_TIMESTAMP
	`, key, lastBlock, lastBlockHash.Hex())
	if err != nil {
		return fmt.Errorf("failed to save sync state %s: %w", key, err)
	}

	return nil
}

func buildTradeFilter(filter TradeFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	if filter.MarketID != nil {
		clauses = append(clauses, "market_id = ?")
		args = append(args, *filter.MarketID)
	}
	if filter.TokenID != "" {
		clauses = append(clauses, "token_id = ?")
		args = append(args, strings.ToLower(filter.TokenID))
	}
	if filter.FromBlock != nil {
		clauses = append(clauses, "block_number >= ?")
		args = append(args, *filter.FromBlock)
	}
	if filter.ToBlock != nil {
		clauses = append(clauses, "block_number <= ?")
		args = append(args, *filter.ToBlock)
	}
	if filter.Side != "" {
		clauses = append(clauses, "side = ?")
		args = append(args, strings.ToUpper(filter.Side))
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, strings.ToUpper(filter.Outcome))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
