package ctf

import "github.com/ethereum/go-ethereum/common"

// Protocol addresses on Polygon.
const (
	// USDCAddress is the USDC.e collateral token.
	USDCAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	// CTFExchangeAddress is the exchange for plain binary markets.
	CTFExchangeAddress = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

	// NegRiskExchangeAddress is the exchange for negative-risk multi-outcome markets.
	NegRiskExchangeAddress = "0xC5d563A36AE78145C45a50134d48A1215220f80a"

	// DefaultOracleAddress is the UMA adapter used when a market descriptor
	// does not carry an oracle.
	DefaultOracleAddress = "0x157Ce2d672854c848c9b79C49a8Cc6cc89176a49"
)

// Binary market outcome slots. The index set is a bitmask over outcome slots;
// for binary markets slot 1 is YES and slot 2 is NO.
const (
	YesIndexSet = 1
	NoIndexSet  = 2
)

// USDCDecimals is the decimal precision shared by the collateral token and
// the outcome tokens.
const USDCDecimals = 6

// ExchangeAddresses returns the exchange contracts whose fill events are indexed.
func ExchangeAddresses() []common.Address {
	return []common.Address{
		common.HexToAddress(CTFExchangeAddress),
		common.HexToAddress(NegRiskExchangeAddress),
	}
}
