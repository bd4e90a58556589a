// Package ctf derives conditional-token identifiers from public contract
// parameters following the Gnosis Conditional Token Framework construction:
//
//	collectionId = keccak256(abi.encode(parentCollectionId, conditionId, indexSet))
//	positionId   = keccak256(abi.encode(collateralToken, collectionId))
//
// The derivation is pure: identical inputs always produce identical outputs
// and no network or mutable state is consulted.
package ctf

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrInvalidInput marks identifiers or addresses that fail shape validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOneWayHash marks derivations that cannot be inverted.
	ErrOneWayHash = errors.New("keccak256 is a one-way hash")
)

var (
	bytes32Hex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	addressHex = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
)

var (
	collectionArgs abi.Arguments
	positionArgs   abi.Arguments
)

func init() {
	bytes32Ty, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	addressTy, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}

	collectionArgs = abi.Arguments{
		{Type: bytes32Ty},
		{Type: bytes32Ty},
		{Type: uint256Ty},
	}
	positionArgs = abi.Arguments{
		{Type: addressTy},
		{Type: bytes32Ty},
	}
}

// CollectionID computes the collection identifier for a condition and an
// outcome index set. parent is the zero hash for root collections.
func CollectionID(parent, condition common.Hash, indexSet uint64) (common.Hash, error) {
	if indexSet == 0 {
		return common.Hash{}, fmt.Errorf("%w: index set must be a positive bitmask", ErrInvalidInput)
	}

	encoded, err := collectionArgs.Pack(
		[32]byte(parent),
		[32]byte(condition),
		new(big.Int).SetUint64(indexSet),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode collection: %w", err)
	}

	return crypto.Keccak256Hash(encoded), nil
}

// PositionID computes the outcome token identifier for a collateral token and
// a collection. The address is padded to a 32-byte word before hashing, which
// is the encoding the exchange contracts use.
func PositionID(collateral common.Address, collection common.Hash) (common.Hash, error) {
	encoded, err := positionArgs.Pack(collateral, [32]byte(collection))
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode position: %w", err)
	}

	return crypto.Keccak256Hash(encoded), nil
}

// CollectionIDFromPositionID would invert the position derivation. The hash
// construction is one-way, so this always fails; callers must obtain the
// collection id from its inputs instead.
func CollectionIDFromPositionID(common.Hash) (common.Hash, error) {
	return common.Hash{}, ErrOneWayHash
}

// ParseBytes32 validates and parses a 64-hex-character identifier, with or
// without a 0x prefix.
func ParseBytes32(value string) (common.Hash, error) {
	hex := strings.TrimPrefix(value, "0x")
	if !bytes32Hex.MatchString(hex) {
		return common.Hash{}, fmt.Errorf("%w: %q is not 64 hex characters", ErrInvalidInput, value)
	}
	return common.HexToHash(hex), nil
}

// ParseAddress validates and parses a 40-hex-character address, with or
// without a 0x prefix.
func ParseAddress(value string) (common.Address, error) {
	hex := strings.TrimPrefix(value, "0x")
	if !addressHex.MatchString(hex) {
		return common.Address{}, fmt.Errorf("%w: %q is not 40 hex characters", ErrInvalidInput, value)
	}
	return common.HexToAddress(hex), nil
}
