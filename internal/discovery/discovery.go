package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyscan/ctfindex/internal/ctf"
	"github.com/polyscan/ctfindex/internal/gamma"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/internal/store"

	"golang.org/x/sync/errgroup"
)

// Registry is the market registry capability the reconciler consumes.
type Registry interface {
	GetEvent(ctx context.Context, slug string) (*gamma.Event, error)
	GetEventMarkets(ctx context.Context, eventSlug string) ([]gamma.Market, error)
	GetMarketByConditionID(ctx context.Context, conditionID string) (*gamma.Market, error)
	GetMarketByTokenID(ctx context.Context, tokenID string) (*gamma.Market, error)
	Oracle(market *gamma.Market) common.Address
}

// Storage is the slice of the storage port the reconciler consumes.
type Storage interface {
	UpsertEvent(ctx context.Context, event *store.Event) (int64, error)
	UpsertMarket(ctx context.Context, market *store.Market) (int64, error)
	FindMarketByTokenID(ctx context.Context, tokenID string) (*store.Market, error)
}

// Reconciler fetches registry descriptors, re-derives the outcome token
// ids locally and persists the markets with the computed ids as
// authoritative.
type Reconciler struct {
	registry Registry
	storage  Storage
	log      *logger.Logger
}

// New creates a Reconciler.
func New(registry Registry, storage Storage, log *logger.Logger) *Reconciler {
	return &Reconciler{
		registry: registry,
		storage:  storage,
		log:      log.WithComponent("discovery"),
	}
}

// Report summarizes one discovery pass.
type Report struct {
	EventSlug string
	Succeeded int
	Failed    int
}

// DiscoverEvent fetches an event and reconciles every market under it.
// A single market failure is counted, logged and does not abort the pass.
func (r *Reconciler) DiscoverEvent(ctx context.Context, eventSlug string) (*Report, error) {
	event, err := r.registry.GetEvent(ctx, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", eventSlug, err)
	}

	eventID, err := r.storage.UpsertEvent(ctx, &store.Event{
		Slug:        event.Slug,
		Title:       event.Title,
		Description: event.Description,
		NegRisk:     event.NegRisk,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist event %s: %w", eventSlug, err)
	}

	markets := event.Markets
	if len(markets) == 0 {
		markets, err = r.registry.GetEventMarkets(ctx, eventSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to list markets for event %s: %w", eventSlug, err)
		}
	}

	report := &Report{EventSlug: eventSlug}
	for i := range markets {
		if err := r.processMarket(ctx, &markets[i], &eventID); err != nil {
			report.Failed++
			r.log.Errorf("failed to reconcile market %s: %v", markets[i].Slug, err)
			continue
		}
		report.Succeeded++
	}

	r.log.Infof("discovery for event %s finished: %d succeeded, %d failed",
		eventSlug, report.Succeeded, report.Failed)

	return report, nil
}

// DiscoverMany reconciles several unrelated events in parallel under a
// concurrency limit. One event's failure does not cancel its siblings;
// all failures are returned joined after every event finished.
func (r *Reconciler) DiscoverMany(ctx context.Context, eventSlugs []string, concurrency int) ([]*Report, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	reports := make([]*Report, len(eventSlugs))
	errs := make([]error, len(eventSlugs))

	group := errgroup.Group{}
	group.SetLimit(concurrency)

	for i, slug := range eventSlugs {
		group.Go(func() error {
			report, err := r.DiscoverEvent(ctx, slug)
			if err != nil {
				errs[i] = fmt.Errorf("event %s: %w", slug, err)
				return nil
			}
			reports[i] = report
			return nil
		})
	}

	// Tasks never return errors directly so siblings are not cancelled.
	_ = group.Wait()

	out := make([]*Report, 0, len(eventSlugs))
	for _, report := range reports {
		if report != nil {
			out = append(out, report)
		}
	}

	return out, errors.Join(errs...)
}

// DiscoverByConditionID backfills a single market found mid-sync. The
// market is persisted without an event association. A missing registry
// descriptor is a soft failure reported as gamma.ErrNotFound.
func (r *Reconciler) DiscoverByConditionID(ctx context.Context, conditionID string) (*store.Market, error) {
	descriptor, err := r.registry.GetMarketByConditionID(ctx, conditionID)
	if err != nil {
		return nil, fmt.Errorf("dynamic discovery for condition %s: %w", conditionID, err)
	}

	return r.reconcile(ctx, descriptor, nil)
}

// DiscoverByTokenID backfills the market owning an outcome token seen in
// a fill. Returns the stored market when it already exists.
func (r *Reconciler) DiscoverByTokenID(ctx context.Context, tokenID string) (*store.Market, error) {
	if existing, err := r.storage.FindMarketByTokenID(ctx, tokenID); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	descriptor, err := r.registry.GetMarketByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("dynamic discovery for token %s: %w", tokenID, err)
	}

	return r.reconcile(ctx, descriptor, nil)
}

func (r *Reconciler) processMarket(ctx context.Context, descriptor *gamma.Market, eventID *int64) error {
	_, err := r.reconcile(ctx, descriptor, eventID)
	return err
}

// reconcile re-derives both token ids, cross-checks them against the
// registry's claims and persists the market. On mismatch the computed
// ids win: they are independently verifiable, the registry's are not.
func (r *Reconciler) reconcile(ctx context.Context, descriptor *gamma.Market, eventID *int64) (*store.Market, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("incomplete market descriptor: %w", err)
	}

	oracle := r.registry.Oracle(descriptor)

	decoded, err := ctf.DecodeMarket(ctf.MarketParams{
		ConditionID: descriptor.ConditionID,
		QuestionID:  descriptor.QuestionID,
		Oracle:      oracle.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to derive token ids for %s: %w", descriptor.Slug, err)
	}

	claimedYes := descriptor.ClobTokenIDs[0]
	claimedNo := descriptor.ClobTokenIDs[1]
	if !strings.EqualFold(decoded.YesTokenID, claimedYes) || !strings.EqualFold(decoded.NoTokenID, claimedNo) {
		r.log.Warnf("token id mismatch for market %s: registry yes=%s no=%s, computed yes=%s no=%s; persisting computed ids",
			descriptor.Slug, claimedYes, claimedNo, decoded.YesTokenID, decoded.NoTokenID)
	}

	status := store.StatusActive
	if descriptor.IsClosed() {
		status = store.StatusClosed
	}

	market := &store.Market{
		Slug:            descriptor.Slug,
		ConditionID:     common.HexToHash(decoded.ConditionID),
		QuestionID:      common.HexToHash(decoded.QuestionID),
		Oracle:          common.HexToAddress(decoded.Oracle),
		CollateralToken: common.HexToAddress(decoded.CollateralToken),
		YesTokenID:      decoded.YesTokenID,
		NoTokenID:       decoded.NoTokenID,
		NegRisk:         descriptor.NegRisk,
		Status:          status,
		EventID:         eventID,
	}

	if _, err := r.storage.UpsertMarket(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to persist market %s: %w", descriptor.Slug, err)
	}

	return market, nil
}
