package gamma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polyscan/ctfindex/internal/ctf"
	"github.com/polyscan/ctfindex/internal/logger"
	"github.com/polyscan/ctfindex/pkg/config"
)

// ErrNotFound is returned when the registry has no descriptor for the query.
var ErrNotFound = errors.New("gamma: not found")

// Client is the REST client for the market registry (Gamma API).
type Client struct {
	baseURL       string
	defaultOracle common.Address
	httpClient    *http.Client
	log           *logger.Logger
}

// NewClient creates a registry client from configuration.
func NewClient(cfg config.GammaConfig, log *logger.Logger) *Client {
	oracle := common.HexToAddress(ctf.DefaultOracleAddress)
	if cfg.DefaultOracle != "" {
		oracle = common.HexToAddress(cfg.DefaultOracle)
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		defaultOracle: oracle,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout.Duration,
		},
		log: log.WithComponent("gamma"),
	}
}

// GetEvent returns the event descriptor for the given slug.
func (c *Client) GetEvent(ctx context.Context, slug string) (*Event, error) {
	body, err := c.doGet(ctx, "/events/"+url.PathEscape(slug))
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", slug, err)
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", slug, err)
	}

	return &event, nil
}

// GetEventMarkets returns every market grouped under the event. Markets
// nested in the event descriptor are preferred; the dedicated endpoint
// is the fallback.
func (c *Client) GetEventMarkets(ctx context.Context, eventSlug string) ([]Market, error) {
	event, err := c.GetEvent(ctx, eventSlug)
	if err == nil && len(event.Markets) > 0 {
		return event.Markets, nil
	}
	if err != nil {
		c.log.Warnf("could not list markets from event %s, falling back to markets endpoint: %v",
			eventSlug, err)
	}

	body, err := c.doGet(ctx, "/events/"+url.PathEscape(eventSlug)+"/markets")
	if err != nil {
		return nil, fmt.Errorf("get markets for event %s: %w", eventSlug, err)
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("decode markets for event %s: %w", eventSlug, err)
	}

	return markets, nil
}

// GetMarketByConditionID returns the market descriptor for a condition id,
// or ErrNotFound when the registry has no such market.
func (c *Client) GetMarketByConditionID(ctx context.Context, conditionID string) (*Market, error) {
	body, err := c.doGet(ctx, "/markets/"+url.PathEscape(conditionID))
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", conditionID, err)
	}

	var market Market
	if err := json.Unmarshal(body, &market); err != nil {
		return nil, fmt.Errorf("decode market %s: %w", conditionID, err)
	}

	return &market, nil
}

// GetMarketByTokenID looks a market up by one of its outcome token ids,
// or returns ErrNotFound.
func (c *Client) GetMarketByTokenID(ctx context.Context, tokenID string) (*Market, error) {
	params := url.Values{}
	params.Set("clob_token_ids", tokenID)

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("get market by token %s: %w", tokenID, err)
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("decode market by token %s: %w", tokenID, err)
	}

	if len(markets) == 0 {
		return nil, fmt.Errorf("market for token %s: %w", tokenID, ErrNotFound)
	}

	return &markets[0], nil
}

// Oracle returns the oracle address for a descriptor. The registry does
// not expose one, so the configured default adapter applies.
func (c *Client) Oracle(_ *Market) common.Address {
	return c.defaultOracle
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}
