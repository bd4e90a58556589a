package ctf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() MarketParams {
	return MarketParams{
		ConditionID: "0x" + strings.Repeat("11", 32),
		QuestionID:  "0x" + strings.Repeat("22", 32),
		Oracle:      "0x" + strings.Repeat("33", 20),
	}
}

func TestDecodeMarket(t *testing.T) {
	decoded, err := DecodeMarket(validParams())
	require.NoError(t, err)

	// token ids are 0x-prefixed 64-hex strings
	assert.Len(t, decoded.YesTokenID, 66)
	assert.Len(t, decoded.NoTokenID, 66)
	assert.True(t, strings.HasPrefix(decoded.YesTokenID, "0x"))
	assert.True(t, strings.HasPrefix(decoded.NoTokenID, "0x"))

	// mutually distinct and distinct from the zero hash
	assert.NotEqual(t, decoded.YesTokenID, decoded.NoTokenID)
	zero := "0x" + strings.Repeat("0", 64)
	assert.NotEqual(t, zero, decoded.YesTokenID)
	assert.NotEqual(t, zero, decoded.NoTokenID)

	assert.Equal(t, USDCAddress, decoded.CollateralToken)
}

func TestDecodeMarket_Deterministic(t *testing.T) {
	first, err := DecodeMarket(validParams())
	require.NoError(t, err)
	second, err := DecodeMarket(validParams())
	require.NoError(t, err)

	assert.Equal(t, first.YesTokenID, second.YesTokenID)
	assert.Equal(t, first.NoTokenID, second.NoTokenID)
}

func TestDecodeMarket_OracleNotAHashInput(t *testing.T) {
	base, err := DecodeMarket(validParams())
	require.NoError(t, err)

	changed := validParams()
	changed.Oracle = "0x" + strings.Repeat("44", 20)
	other, err := DecodeMarket(changed)
	require.NoError(t, err)

	assert.Equal(t, base.YesTokenID, other.YesTokenID)
	assert.Equal(t, base.NoTokenID, other.NoTokenID)
}

func TestDecodeMarket_ConditionChangesTokens(t *testing.T) {
	base, err := DecodeMarket(validParams())
	require.NoError(t, err)

	changed := validParams()
	changed.ConditionID = "0x" + strings.Repeat("aa", 32)
	other, err := DecodeMarket(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base.YesTokenID, other.YesTokenID)
	assert.NotEqual(t, base.NoTokenID, other.NoTokenID)
}

func TestDecodeMarket_CollateralChangesTokens(t *testing.T) {
	base, err := DecodeMarket(validParams())
	require.NoError(t, err)

	other, err := DecodeMarketWithCollateral(validParams(), "0x"+strings.Repeat("cd", 20))
	require.NoError(t, err)

	assert.NotEqual(t, base.YesTokenID, other.YesTokenID)
	assert.NotEqual(t, base.NoTokenID, other.NoTokenID)
}

func TestDecodeMarket_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MarketParams)
	}{
		{"short conditionId", func(p *MarketParams) { p.ConditionID = "0x1234" }},
		{"non-hex conditionId", func(p *MarketParams) { p.ConditionID = "0x" + strings.Repeat("x", 64) }},
		{"short questionId", func(p *MarketParams) { p.QuestionID = "0xabcd" }},
		{"short oracle", func(p *MarketParams) { p.Oracle = "0x1234" }},
		{"empty conditionId", func(p *MarketParams) { p.ConditionID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			_, err := DecodeMarket(params)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestDecodeMarket_BadCollateral(t *testing.T) {
	_, err := DecodeMarketWithCollateral(validParams(), "0xnope")
	require.ErrorIs(t, err, ErrInvalidInput)
}
