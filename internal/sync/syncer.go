package sync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/polyscan/ctfindex/internal/ctf"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/internal/rpc"
	"github.com/polyscan/ctfindex/internal/store"
	"github.com/polyscan/ctfindex/internal/trades"
	internaltypes "github.com/polyscan/ctfindex/internal/types"
	"github.com/polyscan/ctfindex/pkg/config"
)

// ChainClient is the chain transport capability the syncer consumes.
type ChainClient interface {
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, blockNum uint64) (*types.Header, error)
	HeadByFinality(ctx context.Context, finality internaltypes.BlockFinality) (uint64, error)
}

// MarketResolver backfills markets for outcome tokens first seen mid-sync.
type MarketResolver interface {
	DiscoverByTokenID(ctx context.Context, tokenID string) (*store.Market, error)
}

// Storage is the slice of the storage port the syncer consumes.
type Storage interface {
	FindMarketByTokenID(ctx context.Context, tokenID string) (*store.Market, error)
	InsertTrades(ctx context.Context, batch []*store.Trade) (int, error)
	GetSyncState(ctx context.Context, key string) (*store.SyncState, error)
	SaveSyncState(ctx context.Context, key string, lastBlock uint64, lastBlockHash common.Hash) error
}

// ErrNoRange is returned when neither an override, a cursor, nor a
// default start block yields a scannable range.
var ErrNoRange = errors.New("no derivable block range")

// WindowError records one window that failed after retries. The run
// carries on; the error surfaces in the final report.
type WindowError struct {
	FromBlock uint64
	ToBlock   uint64
	Err       error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %d-%d failed: %v", e.FromBlock, e.ToBlock, e.Err)
}

func (e *WindowError) Unwrap() error {
	return e.Err
}

// Report summarizes one synchronizer run. WindowErrors is non-empty
// whenever partial failures occurred; dropped data is counted, never
// silently lost.
type Report struct {
	FromBlock       uint64
	ToBlock         uint64
	TradesInserted  int
	BlocksProcessed uint64
	LogsDecoded     int
	DecodeFailures  int
	Unresolved      int
	WindowErrors    []*WindowError
}

// defaultResolveTimeout bounds a single registry lookup for an unknown
// token. A stalled lookup drops that one fill as unresolved instead of
// holding the whole window; the reconciler backfills the market later.
const defaultResolveTimeout = 15 * time.Second

// Syncer drives the windowed scan: fetch logs, normalize, resolve each
// fill to a market, persist idempotently, advance the cursor.
type Syncer struct {
	client         ChainClient
	storage        Storage
	resolver       MarketResolver
	cfg            config.SyncConfig
	exchanges      []common.Address
	finality       internaltypes.BlockFinality
	cache          *BlockCache
	resolveTimeout time.Duration
	log            *logger.Logger
}

// New creates a Syncer. resolver may be nil, in which case unknown
// tokens are dropped without a registry lookup.
func New(client ChainClient, storage Storage, resolver MarketResolver,
	cfg config.SyncConfig, log *logger.Logger) *Syncer {
	exchanges := make([]common.Address, 0, len(cfg.Exchanges))
	for _, addr := range cfg.Exchanges {
		exchanges = append(exchanges, common.HexToAddress(addr))
	}
	if len(exchanges) == 0 {
		exchanges = ctf.ExchangeAddresses()
	}

	finality, err := internaltypes.ParseBlockFinality(cfg.Finality)
	if err != nil {
		finality = internaltypes.FinalityLatest
	}

	// A zero window would never advance; one block is the floor.
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 1
	}

	return &Syncer{
		client:         client,
		storage:        storage,
		resolver:       resolver,
		cfg:            cfg,
		exchanges:      exchanges,
		finality:       finality,
		cache:          NewBlockCache(cfg.BlockCacheSize),
		resolveTimeout: defaultResolveTimeout,
		log:            log.WithComponent("syncer"),
	}
}

// Cache exposes the block cache, mainly so tests can reset it.
func (s *Syncer) Cache() *BlockCache {
	return s.cache
}

// Run scans [from, to] in fixed-size windows, strictly ascending.
// Either bound may be nil: from falls back to cursor+1 then the
// configured default start block, to falls back to the chain head.
func (s *Syncer) Run(ctx context.Context, fromOverride, toOverride *uint64) (*Report, error) {
	from, to, err := s.computeRange(ctx, fromOverride, toOverride)
	if err != nil {
		return nil, err
	}

	report := &Report{FromBlock: from, ToBlock: to}
	if from > to {
		s.log.Infof("nothing to sync: cursor already at %d, head at %d", from-1, to)
		return report, nil
	}

	s.log.Infof("starting sync: blocks %d-%d (%d blocks, window size %d)",
		from, to, to-from+1, s.cfg.WindowSize)

	for windowStart := from; windowStart <= to; {
		windowEnd := windowStart + s.cfg.WindowSize - 1
		if windowEnd > to {
			windowEnd = to
		}

		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("sync interrupted at block %d: %w", windowStart, err)
		}

		if err := s.processWindow(ctx, windowStart, windowEnd, report); err != nil {
			WindowFailedInc()
			windowErr := &WindowError{FromBlock: windowStart, ToBlock: windowEnd, Err: err}
			report.WindowErrors = append(report.WindowErrors, windowErr)
			s.log.Errorf("%v; continuing with next window", windowErr)
		} else {
			WindowSucceededInc()
		}

		report.BlocksProcessed += windowEnd - windowStart + 1
		windowStart = windowEnd + 1
	}

	s.log.Infof("sync finished: %d trades inserted, %d blocks processed, %d unresolved, %d window errors",
		report.TradesInserted, report.BlocksProcessed, report.Unresolved, len(report.WindowErrors))

	return report, nil
}

func (s *Syncer) computeRange(ctx context.Context, fromOverride, toOverride *uint64) (uint64, uint64, error) {
	var from uint64
	switch {
	case fromOverride != nil:
		from = *fromOverride
	default:
		state, err := s.storage.GetSyncState(ctx, s.cfg.CursorKey)
		switch {
		case err == nil:
			from = state.LastBlock + 1
		case errors.Is(err, store.ErrNotFound):
			from = s.cfg.DefaultStartBlock
		default:
			return 0, 0, fmt.Errorf("%w: failed to read cursor: %v", ErrNoRange, err)
		}
	}

	var to uint64
	if toOverride != nil {
		to = *toOverride
	} else {
		head, err := s.client.HeadByFinality(ctx, s.finality)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: failed to fetch chain head: %v", ErrNoRange, err)
		}
		to = head
	}

	return from, to, nil
}

// processWindow runs one window through fetch, normalize, resolve,
// persist and cursor advance. The cursor moves only after the trade
// transaction committed, so a crash in between replays the window and
// inserts zero new rows.
func (s *Syncer) processWindow(ctx context.Context, fromBlock, toBlock uint64, report *Report) error {
	logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: s.exchanges,
		Topics:    [][]common.Hash{{trades.OrderFilledTopic}},
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
	})
	if err != nil {
		return fmt.Errorf("log fetch failed: %w", err)
	}

	s.log.Debugf("window %d-%d: %d logs", fromBlock, toBlock, len(logs))

	batch := make([]*store.Trade, 0, len(logs))
	var lastBlockHash common.Hash

	for i := range logs {
		trade, err := s.processLog(ctx, &logs[i], report)
		if err != nil {
			// Already counted; a single bad log never aborts the window.
			continue
		}
		batch = append(batch, trade)
		lastBlockHash = trade.BlockHash
	}

	inserted, err := s.storage.InsertTrades(ctx, batch)
	if err != nil {
		return fmt.Errorf("trade insert failed: %w", err)
	}

	report.TradesInserted += inserted
	TradesInsertedAdd(inserted)

	// A window with nothing persisted keeps the last real block hash
	// instead of overwriting the cursor with a zero hash.
	if lastBlockHash == (common.Hash{}) {
		if state, err := s.storage.GetSyncState(ctx, s.cfg.CursorKey); err == nil {
			lastBlockHash = state.LastBlockHash
		}
	}

	if err := s.storage.SaveSyncState(ctx, s.cfg.CursorKey, toBlock, lastBlockHash); err != nil {
		return fmt.Errorf("cursor advance failed: %w", err)
	}
	CursorHeightSet(toBlock)

	return nil
}

func (s *Syncer) processLog(ctx context.Context, log *types.Log, report *Report) (*store.Trade, error) {
	fill, err := trades.Normalize(*log)
	if err != nil {
		report.DecodeFailures++
		LogSkippedInc("decode")
		s.log.Warnf("skipping undecodable log %s/%d: %v", log.TxHash.Hex(), log.Index, err)
		return nil, err
	}
	report.LogsDecoded++

	market, err := s.resolveMarket(ctx, fill.TokenID)
	if err != nil {
		report.Unresolved++
		LogSkippedInc("unresolved")
		s.log.Warnf("dropping fill %s/%d: no market for token %s",
			log.TxHash.Hex(), log.Index, fill.TokenID)
		return nil, err
	}

	outcome := trades.OutcomeNo
	if strings.EqualFold(fill.TokenID, market.YesTokenID) {
		outcome = trades.OutcomeYes
	}

	info, err := s.blockInfo(ctx, log.BlockNumber)
	if err != nil {
		report.Unresolved++
		LogSkippedInc("block_info")
		s.log.Warnf("dropping fill %s/%d: block info unavailable: %v",
			log.TxHash.Hex(), log.Index, err)
		return nil, err
	}

	return &store.Trade{
		MarketID:     &market.ID,
		TxHash:       fill.TxHash,
		LogIndex:     fill.LogIndex,
		BlockNumber:  fill.BlockNumber,
		BlockHash:    info.Hash,
		Timestamp:    int64(info.Timestamp),
		Maker:        fill.Maker,
		Taker:        fill.Taker,
		Side:         string(fill.Side),
		Outcome:      string(outcome),
		TokenID:      fill.TokenID,
		Price:        fill.Price,
		Size:         fill.Size,
		MakerAssetID: fill.MakerAssetID.String(),
		TakerAssetID: fill.TakerAssetID.String(),
		MakerAmount:  fill.MakerAmount.String(),
		TakerAmount:  fill.TakerAmount.String(),
		Fee:          fill.Fee.String(),
	}, nil
}

func (s *Syncer) resolveMarket(ctx context.Context, tokenID string) (*store.Market, error) {
	market, err := s.storage.FindMarketByTokenID(ctx, tokenID)
	if err == nil {
		return market, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if s.resolver == nil {
		return nil, err
	}

	return rpc.WithTimeout(s.resolveTimeout, func() (*store.Market, error) {
		return s.resolver.DiscoverByTokenID(ctx, tokenID)
	})
}

func (s *Syncer) blockInfo(ctx context.Context, blockNum uint64) (BlockInfo, error) {
	if info, ok := s.cache.Get(blockNum); ok {
		return info, nil
	}

	header, err := s.client.HeaderByNumber(ctx, blockNum)
	if err != nil {
		return BlockInfo{}, err
	}

	info := BlockInfo{Timestamp: header.Time, Hash: header.Hash()}
	s.cache.Put(blockNum, info)
	return info, nil
}
