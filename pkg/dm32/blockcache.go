// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"fmt"
	"time"
)

// CachedBlock is one 4096-byte block held in memory for the session. It is
// immutable once populated; writes replace it wholesale.
type CachedBlock struct {
	Address uint32
	Tag     byte
	Kind    BlockKind
	Data    []byte
}

// BlockCache holds every block the session needs after the single bulk read.
// All decoding is served from here; once the bulk read completes the
// connection is closed and no decode path touches the device again.
type BlockCache struct {
	byTag  map[byte]*CachedBlock
	byAddr map[uint32]*CachedBlock
	order  []*CachedBlock // read order, kept for deterministic re-writes
}

func newBlockCache() *BlockCache {
	return &BlockCache{
		byTag:  make(map[byte]*CachedBlock),
		byAddr: make(map[uint32]*CachedBlock),
	}
}

func (c *BlockCache) put(b *CachedBlock) {
	if existing, ok := c.byAddr[b.Address]; ok {
		*existing = *b
		return
	}
	c.byTag[b.Tag] = b
	c.byAddr[b.Address] = b
	c.order = append(c.order, b)
}

// ByTag returns the cached block carrying the given metadata tag.
func (c *BlockCache) ByTag(tag byte) (*CachedBlock, bool) {
	b, ok := c.byTag[tag]
	return b, ok
}

// ByAddress returns the cached block at the given base address.
func (c *BlockCache) ByAddress(addr uint32) (*CachedBlock, bool) {
	b, ok := c.byAddr[addr]
	return b, ok
}

// OfKind returns the cached blocks of one kind in ascending tag order
// (channel and zone blocks are tag-contiguous, so tag order is record order).
func (c *BlockCache) OfKind(kind BlockKind) []*CachedBlock {
	var out []*CachedBlock
	for _, b := range c.order {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Tag > out[j].Tag; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Blocks returns every cached block in read order.
func (c *BlockCache) Blocks() []*CachedBlock {
	return c.order
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	return len(c.order)
}

// neededForSession filters the inventory down to the blocks the bulk read
// must fetch: channel blocks up to the count-derived limit, every other known
// kind, and nothing empty or unrecognized.
func neededForSession(idx *BlockIndex) []MemoryBlock {
	needed := make([]MemoryBlock, 0, len(idx.Blocks))
	channelLimit := idx.NeededChannelBlocks()
	for _, b := range idx.Blocks {
		switch b.Kind {
		case KindEmpty, KindUnknown:
			continue
		case KindChannel:
			// The ordinal of a channel block is its tag distance from the
			// first-channel tag, not its position in the scan.
			if int(b.Tag-tagChannelFirst) >= channelLimit {
				continue
			}
		}
		needed = append(needed, b)
	}
	return needed
}

// bulkRead performs the single sequential read of every needed block, with a
// short inter-block delay to respect device timing.
func bulkRead(t *Transport, idx *BlockIndex, delay time.Duration, onBlock func(done, total int)) (*BlockCache, error) {
	cache := newBlockCache()
	needed := neededForSession(idx)
	for i, b := range needed {
		data, err := readMemory(t, b.Address, BlockSize, defaultBlockTimeout)
		if err != nil {
			return nil, fmt.Errorf("bulk read block %#x (%s): %w", b.Address, b.Kind, err)
		}
		cache.put(&CachedBlock{Address: b.Address, Tag: b.Tag, Kind: b.Kind, Data: data})
		if onBlock != nil {
			onBlock(i+1, len(needed))
		}
		if delay > 0 && i < len(needed)-1 {
			time.Sleep(delay)
		}
	}
	return cache, nil
}
