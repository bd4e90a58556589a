package trades

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FillsFromReceipt decodes every OrderFilled event in the receipt that
// was emitted by one of the given exchange contracts. Logs from other
// contracts are ignored even when they carry the OrderFilled topic, so
// a third-party contract cannot spoof a fill in the same transaction.
// Undecodable or degenerate logs are skipped.
func FillsFromReceipt(receipt *types.Receipt, exchanges []common.Address) []*Fill {
	allowed := make(map[common.Address]struct{}, len(exchanges))
	for _, addr := range exchanges {
		allowed[addr] = struct{}{}
	}

	fills := make([]*Fill, 0, len(receipt.Logs))
	for _, txLog := range receipt.Logs {
		if _, ok := allowed[txLog.Address]; !ok {
			continue
		}

		fill, err := Normalize(*txLog)
		if err != nil {
			continue
		}
		fills = append(fills, fill)
	}

	return fills
}
