package gamma

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var tokenIDRx = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

// TokenIDList handles the two wire shapes the registry uses for
// clobTokenIds: a plain JSON array and a JSON-encoded array string.
type TokenIDList []string

func (t *TokenIDList) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*t = direct
		return nil
	}

	var wrapped string
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("clobTokenIds is neither array nor string: %w", err)
	}

	var inner []string
	if err := json.Unmarshal([]byte(wrapped), &inner); err != nil {
		return fmt.Errorf("failed to decode clobTokenIds string: %w", err)
	}

	*t = inner
	return nil
}

// Event is a registry event descriptor with its nested markets.
type Event struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	NegRisk     bool     `json:"negRisk"`
	Markets     []Market `json:"markets"`
}

// Market is a registry market descriptor.
type Market struct {
	ID              string      `json:"id"`
	Slug            string      `json:"slug"`
	Question        string      `json:"question"`
	Description     string      `json:"description"`
	ConditionID     string      `json:"conditionId"`
	QuestionID      string      `json:"questionId"`
	ClobTokenIDs    TokenIDList `json:"clobTokenIds"`
	Active          bool        `json:"active"`
	Closed          bool        `json:"closed"`
	Archived        bool        `json:"archived"`
	EnableOrderBook bool        `json:"enableOrderBook"`
	AcceptingOrders bool        `json:"acceptingOrders"`
	NegRisk         bool        `json:"negRisk"`
}

// IsClosed reports whether the descriptor resolves to closed status:
// closed or archived, order book disabled, or not accepting orders.
func (m *Market) IsClosed() bool {
	if m.Closed || m.Archived {
		return true
	}
	return !m.EnableOrderBook || !m.AcceptingOrders
}

// Validate checks the descriptor carries everything derivation needs.
func (m *Market) Validate() error {
	if m.ConditionID == "" || m.QuestionID == "" {
		return fmt.Errorf("market %s is missing conditionId or questionId", m.Slug)
	}

	if len(m.ClobTokenIDs) < 2 {
		return fmt.Errorf("market %s has %d clob token ids, need at least 2",
			m.Slug, len(m.ClobTokenIDs))
	}

	for _, tokenID := range m.ClobTokenIDs {
		if !tokenIDRx.MatchString(tokenID) {
			return fmt.Errorf("market %s has malformed token id %q", m.Slug, tokenID)
		}
	}

	return nil
}
