// Package trades normalizes raw OrderFilled logs emitted by the exchange
// contracts into canonical fill records.
package trades

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/polyscan/ctfindex/internal/ctf"
)

// OrderFilledSignature is the canonical event signature of an exchange fill.
const OrderFilledSignature = "OrderFilled(bytes32,address,address,uint256,uint256,uint256,uint256,uint256)"

// OrderFilledTopic is the topic0 hash of OrderFilledSignature.
var OrderFilledTopic = crypto.Keccak256Hash([]byte(OrderFilledSignature))

// Side is the maker's direction in a fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Outcome identifies which leg of a binary market a token represents.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

var (
	// ErrDecode marks logs whose shape does not match an OrderFilled event.
	ErrDecode = errors.New("malformed OrderFilled log")

	// ErrBothCollateral marks fills where both legs carry the collateral
	// sentinel asset id, which no valid settlement produces.
	ErrBothCollateral = errors.New("invalid fill: both asset ids are collateral")
)

// OrderFilled events carry exactly topic0 plus three indexed parameters
// (orderHash, maker, taker) and five unindexed uint256 words.
const (
	orderFilledTopics   = 4
	orderFilledDataSize = 5 * 32
)

// Fill is one normalized exchange fill.
//
// Price and Size are decimal strings produced by integer arithmetic; TokenID
// is a 0x-prefixed 64-hex-character string. Exactness is preserved across the
// storage boundary by never touching floating point.
type Fill struct {
	OrderHash common.Hash
	Maker     common.Address
	Taker     common.Address

	MakerAssetID *big.Int
	TakerAssetID *big.Int
	MakerAmount  *big.Int
	TakerAmount  *big.Int
	Fee          *big.Int

	Side    Side
	TokenID string
	Price   string
	Size    string

	TxHash      common.Hash
	LogIndex    uint
	BlockNumber uint64
}

// Normalize decodes one raw OrderFilled log into a Fill.
//
// Exactly one of makerAssetId/takerAssetId is expected to be the collateral
// sentinel (zero); the other is the outcome token. When both legs are outcome
// tokens the taker-side asset id is taken as the fill's token, mirroring the
// exchange's settlement convention for cross-market matches.
func Normalize(log types.Log) (*Fill, error) {
	if len(log.Topics) != orderFilledTopics {
		return nil, fmt.Errorf("%w: expected %d topics, got %d", ErrDecode, orderFilledTopics, len(log.Topics))
	}
	if log.Topics[0] != OrderFilledTopic {
		return nil, fmt.Errorf("%w: unexpected event signature %s", ErrDecode, log.Topics[0].Hex())
	}
	if len(log.Data) != orderFilledDataSize {
		return nil, fmt.Errorf("%w: expected %d data bytes, got %d", ErrDecode, orderFilledDataSize, len(log.Data))
	}

	makerAssetID := new(big.Int).SetBytes(log.Data[0:32])
	takerAssetID := new(big.Int).SetBytes(log.Data[32:64])
	makerAmount := new(big.Int).SetBytes(log.Data[64:96])
	takerAmount := new(big.Int).SetBytes(log.Data[96:128])
	fee := new(big.Int).SetBytes(log.Data[128:160])

	makerIsCollateral := makerAssetID.Sign() == 0
	takerIsCollateral := takerAssetID.Sign() == 0

	var tokenID *big.Int
	switch {
	case makerIsCollateral && takerIsCollateral:
		return nil, ErrBothCollateral
	case makerIsCollateral:
		tokenID = takerAssetID
	case takerIsCollateral:
		tokenID = makerAssetID
	default:
		// Both legs are outcome tokens; resolve to the taker side.
		tokenID = takerAssetID
	}

	var collateralAmount, tokenAmount *big.Int
	if makerIsCollateral {
		collateralAmount, tokenAmount = makerAmount, takerAmount
	} else {
		collateralAmount, tokenAmount = takerAmount, makerAmount
	}

	price := "0"
	if tokenAmount.Sign() != 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(ctf.USDCDecimals), nil)
		raw := new(big.Int).Mul(collateralAmount, scale)
		raw.Quo(raw, tokenAmount)
		price = FormatUnits(raw, ctf.USDCDecimals)
	}

	side := SideSell
	if makerIsCollateral {
		side = SideBuy
	}

	return &Fill{
		OrderHash:    log.Topics[1],
		Maker:        common.BytesToAddress(log.Topics[2].Bytes()),
		Taker:        common.BytesToAddress(log.Topics[3].Bytes()),
		MakerAssetID: makerAssetID,
		TakerAssetID: takerAssetID,
		MakerAmount:  makerAmount,
		TakerAmount:  takerAmount,
		Fee:          fee,
		Side:         side,
		TokenID:      fmt.Sprintf("0x%064x", tokenID),
		Price:        price,
		Size:         FormatUnits(tokenAmount, ctf.USDCDecimals),
		TxHash:       log.TxHash,
		LogIndex:     log.Index,
		BlockNumber:  log.BlockNumber,
	}, nil
}
