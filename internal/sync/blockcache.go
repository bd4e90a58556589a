package sync

import (
	"github.com/ethereum/go-ethereum/common"
)

// BlockInfo is the cached slice of a block header the indexer needs.
type BlockInfo struct {
	Timestamp uint64
	Hash      common.Hash
}

// BlockCache is a bounded block number → BlockInfo mapping. It is owned
// by a single Syncer and only touched from its run loop, so it needs no
// locking. Eviction is FIFO once the bound is reached.
type BlockCache struct {
	capacity int
	entries  map[uint64]BlockInfo
	order    []uint64
}

// NewBlockCache creates a cache bounded to capacity entries.
func NewBlockCache(capacity int) *BlockCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &BlockCache{
		capacity: capacity,
		entries:  make(map[uint64]BlockInfo, capacity),
	}
}

// Get returns the cached info for a block number.
func (c *BlockCache) Get(blockNum uint64) (BlockInfo, bool) {
	info, ok := c.entries[blockNum]
	return info, ok
}

// Put stores block info, evicting the oldest entry at capacity.
func (c *BlockCache) Put(blockNum uint64, info BlockInfo) {
	if _, exists := c.entries[blockNum]; exists {
		c.entries[blockNum] = info
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[blockNum] = info
	c.order = append(c.order, blockNum)
}

// Len returns the number of cached entries.
func (c *BlockCache) Len() int {
	return len(c.entries)
}

// Reset drops all entries, for test isolation between runs.
func (c *BlockCache) Reset() {
	c.entries = make(map[uint64]BlockInfo, c.capacity)
	c.order = nil
}
