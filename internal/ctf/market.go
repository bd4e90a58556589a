package ctf

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MarketParams are the public condition parameters of a binary market.
type MarketParams struct {
	ConditionID string
	QuestionID  string
	Oracle      string
}

// DecodedMarket carries the derived outcome token identifiers for a binary
// market. Token ids are 0x-prefixed 64-hex-character strings.
type DecodedMarket struct {
	ConditionID     string
	QuestionID      string
	Oracle          string
	CollateralToken string
	YesTokenID      string
	NoTokenID       string
}

// DecodeMarket derives the YES and NO outcome token ids for a binary market
// collateralized by USDC.
func DecodeMarket(params MarketParams) (*DecodedMarket, error) {
	return DecodeMarketWithCollateral(params, USDCAddress)
}

// DecodeMarketWithCollateral derives the YES and NO outcome token ids for a
// binary market with an explicit collateral token.
//
// The oracle is validated and carried through as condition metadata; it is
// not an input to the hash construction.
func DecodeMarketWithCollateral(params MarketParams, collateral string) (*DecodedMarket, error) {
	condition, err := ParseBytes32(params.ConditionID)
	if err != nil {
		return nil, fmt.Errorf("conditionId: %w", err)
	}
	question, err := ParseBytes32(params.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("questionId: %w", err)
	}
	oracle, err := ParseAddress(params.Oracle)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	collateralAddr, err := ParseAddress(collateral)
	if err != nil {
		return nil, fmt.Errorf("collateralToken: %w", err)
	}

	yesTokenID, err := deriveToken(collateralAddr, condition, YesIndexSet)
	if err != nil {
		return nil, err
	}
	noTokenID, err := deriveToken(collateralAddr, condition, NoIndexSet)
	if err != nil {
		return nil, err
	}

	return &DecodedMarket{
		ConditionID:     condition.Hex(),
		QuestionID:      question.Hex(),
		Oracle:          oracle.Hex(),
		CollateralToken: collateralAddr.Hex(),
		YesTokenID:      yesTokenID.Hex(),
		NoTokenID:       noTokenID.Hex(),
	}, nil
}

func deriveToken(collateral common.Address, condition common.Hash, indexSet uint64) (common.Hash, error) {
	collection, err := CollectionID(common.Hash{}, condition, indexSet)
	if err != nil {
		return common.Hash{}, err
	}
	return PositionID(collateral, collection)
}
