package trades

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyscan/ctfindex/internal/ctf"
)

func TestFillsFromReceipt_SkipsForeignContracts(t *testing.T) {
	exchange := ctf.ExchangeAddresses()[0]
	foreign := common.HexToAddress("0x" + strings.Repeat("de", 20))

	genuine := fillLog(t, big.NewInt(0), big.NewInt(77), big.NewInt(500000), big.NewInt(1000000))
	genuine.Address = exchange
	genuine.Index = 3

	// Same topic, same data shape, but emitted by an unrelated contract.
	spoofed := fillLog(t, big.NewInt(0), big.NewInt(99), big.NewInt(500000), big.NewInt(1000000))
	spoofed.Address = foreign
	spoofed.Index = 4

	receipt := &types.Receipt{Logs: []*types.Log{&spoofed, &genuine}}

	fills := FillsFromReceipt(receipt, ctf.ExchangeAddresses())
	require.Len(t, fills, 1)
	assert.Equal(t, uint(3), fills[0].LogIndex)
	assert.Equal(t, "0x"+strings.Repeat("0", 62)+"4d", fills[0].TokenID)
}

func TestFillsFromReceipt_SkipsUndecodableLogs(t *testing.T) {
	exchange := ctf.ExchangeAddresses()[1]

	truncated := fillLog(t, big.NewInt(0), big.NewInt(77), big.NewInt(100), big.NewInt(200))
	truncated.Address = exchange
	truncated.Data = truncated.Data[:64]

	degenerate := fillLog(t, big.NewInt(0), big.NewInt(0), big.NewInt(100), big.NewInt(200))
	degenerate.Address = exchange

	good := fillLog(t, big.NewInt(42), big.NewInt(0), big.NewInt(2000000), big.NewInt(1500000))
	good.Address = exchange

	receipt := &types.Receipt{Logs: []*types.Log{&truncated, &degenerate, &good}}

	fills := FillsFromReceipt(receipt, ctf.ExchangeAddresses())
	require.Len(t, fills, 1)
	assert.Equal(t, SideSell, fills[0].Side)
}

func TestFillsFromReceipt_ConfiguredExchangeSet(t *testing.T) {
	custom := common.HexToAddress("0x" + strings.Repeat("11", 20))

	fill := fillLog(t, big.NewInt(0), big.NewInt(5), big.NewInt(100), big.NewInt(200))
	fill.Address = custom

	receipt := &types.Receipt{Logs: []*types.Log{&fill}}

	assert.Empty(t, FillsFromReceipt(receipt, ctf.ExchangeAddresses()))
	require.Len(t, FillsFromReceipt(receipt, []common.Address{custom}), 1)
}
