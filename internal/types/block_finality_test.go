package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockFinality(t *testing.T) {
	tests := []struct {
		input   string
		want    BlockFinality
		wantErr bool
	}{
		{"finalized", FinalityFinalized, false},
		{"safe", FinalitySafe, false},
		{"latest", FinalityLatest, false},
		{"", "", true},
		{"pending", "", true},
		{"Finalized", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBlockFinality(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestBlockFinality_Tag(t *testing.T) {
	assert.Equal(t, int64(rpc.FinalizedBlockNumber), FinalityFinalized.Tag().Int64())
	assert.Equal(t, int64(rpc.SafeBlockNumber), FinalitySafe.Tag().Int64())
	assert.Equal(t, int64(rpc.LatestBlockNumber), FinalityLatest.Tag().Int64())
}
