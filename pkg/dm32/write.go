// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 dm32prog contributors

package dm32

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// Write operations rebuild full 4096-byte blocks from cache, reconnect, and
// transmit the complete configuration set in the device-mandated order:
// channel blocks by ascending tag first, then the fixed configuration tag
// sequence. The device does not accept incremental deltas; unmodified blocks
// are re-sent verbatim from cache. Any unacknowledged write aborts the
// operation — device state must then be treated as inconsistent until a
// fresh read-verify cycle.

// WriteChannels re-encodes the channel set into the cached channel blocks and
// writes the configuration back. Requires a prior BulkRead.
func (s *Session) WriteChannels(ctx context.Context, channels []Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil || s.index == nil {
		return ErrNoBulkRead
	}
	if len(channels) > MaxChannels {
		return fmt.Errorf("dm32: %d channels exceed the radio's capacity of %d", len(channels), MaxChannels)
	}
	for i, c := range channels {
		for _, w := range ValidateChannel(c, s.info) {
			s.warnf(fmt.Errorf("dm32: channel %d: %s", i+1, w))
		}
	}

	blocksNeeded := channelBlocksForCount(len(channels))
	idxBlocks := s.index.ChannelBlocks()
	if blocksNeeded > len(idxBlocks) {
		return fmt.Errorf("dm32: %d channels need %d blocks, radio exposes %d", len(channels), blocksNeeded, len(idxBlocks))
	}

	work := make(map[uint32][]byte, blocksNeeded)
	blockData := make([][]byte, blocksNeeded)
	for b := 0; b < blocksNeeded; b++ {
		mb := idxBlocks[b]
		data := make([]byte, BlockSize)
		if cb, ok := s.cache.ByAddress(mb.Address); ok {
			copy(data, cb.Data)
		} else {
			for i := range data {
				data[i] = 0xFF
			}
		}
		data[metadataOffset] = mb.Tag
		work[mb.Address] = data
		blockData[b] = data
	}

	// Count header, then a clean slate for the record area so removed
	// channels disappear.
	binary.LittleEndian.PutUint32(blockData[0][0:4], uint32(len(channels)))
	for b := 0; b < blocksNeeded; b++ {
		start := 0
		if b == 0 {
			start = ChannelRecordSize
		}
		end := start + channelBlockRecordArea(b)
		for i := start; i < end; i++ {
			blockData[b][i] = 0xFF
		}
	}

	for i, c := range channels {
		n := i + 1
		blk, off := channelRecordPosition(n)
		rec, err := EncodeChannel(c)
		if err != nil {
			return fmt.Errorf("dm32: encode channel %d: %w", n, err)
		}
		copy(blockData[blk][off:off+ChannelRecordSize], rec[:])
	}

	// Second pass for the out-of-band forbid-TX bits: the overlay bytes
	// are only final once every neighboring record has been written.
	for i, c := range channels {
		n := i + 1
		fb, foff, ok := channelFlagPosition(n)
		if !ok || fb >= blocksNeeded {
			s.log.Warnf("channel %d: flag address out of range, forbid-TX not stored", n)
			continue
		}
		if c.ForbidTX {
			blockData[fb][foff] |= 0x01
		} else {
			blockData[fb][foff] &^= 0x01
		}
	}

	return s.writeSessionLocked(ctx, work)
}

// cachedChannelCountLocked reads the channel count header from the cached
// first channel block. Without one the count is unknown and the hardware
// capacity stands in, so zone membership checks never reject blindly.
func (s *Session) cachedChannelCountLocked() int {
	blocks := s.cache.OfKind(KindChannel)
	if len(blocks) == 0 || blocks[0].Tag != tagChannelFirst {
		return MaxChannels
	}
	count := int(binary.LittleEndian.Uint32(blocks[0].Data[0:4]))
	if count > MaxChannels {
		return MaxChannels
	}
	return count
}

// channelBlockRecordArea returns the byte length of the record region of
// channel block ordinal b.
func channelBlockRecordArea(b int) int {
	if b == 0 {
		return firstBlockChannelCapacity * ChannelRecordSize
	}
	return channelBlockCapacity * ChannelRecordSize
}

// WriteZones re-encodes the zone set into the cached zone blocks and writes
// the configuration back.
func (s *Session) WriteZones(ctx context.Context, zones []Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil || s.index == nil {
		return ErrNoBulkRead
	}

	blocks := s.cache.OfKind(KindZone)
	if len(blocks) == 0 {
		return fmt.Errorf("dm32: radio exposes no zone blocks")
	}
	perBlock := BlockSize / ZoneRecordSize
	if len(zones) > len(blocks)*perBlock {
		return fmt.Errorf("dm32: %d zones exceed capacity of %d", len(zones), len(blocks)*perBlock)
	}
	channelCount := s.cachedChannelCountLocked()
	for i, z := range zones {
		for _, w := range ValidateZone(z, channelCount) {
			s.warnf(fmt.Errorf("dm32: zone %d: %s", i+1, w))
		}
	}

	work := make(map[uint32][]byte, len(blocks))
	for _, b := range blocks {
		data := make([]byte, BlockSize)
		for i := range data {
			data[i] = 0xFF
		}
		data[metadataOffset] = b.Tag
		work[b.Address] = data
	}

	for i, z := range zones {
		rec, err := EncodeZone(z)
		if err != nil {
			return fmt.Errorf("dm32: encode zone %d: %w", i+1, err)
		}
		b := blocks[i/perBlock]
		off := (i % perBlock) * ZoneRecordSize
		copy(work[b.Address][off:off+ZoneRecordSize], rec[:])
	}

	return s.writeSessionLocked(ctx, work)
}

// WriteScanLists rewrites scan lists in place. Slots have no fixed layout, so
// only lists carrying offsets from a previous decode can be written; a list
// without provenance is skipped with a warning rather than guessed at.
func (s *Session) WriteScanLists(ctx context.Context, lists []ScanList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil || s.index == nil {
		return ErrNoBulkRead
	}

	work := make(map[uint32][]byte)
	for _, sl := range lists {
		block, ok := s.cache.ByTag(sl.BlockTag)
		if !ok || block.Kind != KindScanList {
			s.warnf(fmt.Errorf("dm32: scan list %q: no slot known, skipped", sl.Name))
			continue
		}
		data, exists := work[block.Address]
		if !exists {
			data = make([]byte, BlockSize)
			copy(data, block.Data)
			work[block.Address] = data
		}
		if !encodeScanListInto(data, sl) {
			s.warnf(fmt.Errorf("dm32: scan list %q: no slot known, skipped", sl.Name))
		}
	}
	if len(work) == 0 {
		return fmt.Errorf("dm32: no writable scan lists")
	}

	return s.writeSessionLocked(ctx, work)
}

// writeSessionLocked reconnects and transmits every cached block, with the
// blocks in work replacing their cached counterparts. On success the cache is
// updated wholesale to mirror the device.
func (s *Session) writeSessionLocked(ctx context.Context, work map[uint32][]byte) error {
	if s.transport != nil {
		return ErrAlreadyConnected
	}
	if err := s.connectLocked(ctx); err != nil {
		return err
	}
	defer s.disconnectLocked()

	type outBlock struct {
		addr uint32
		tag  byte
		data []byte
	}
	var queue []outBlock

	// Channel blocks first, ascending tag.
	for _, cb := range s.cache.OfKind(KindChannel) {
		data := cb.Data
		if w, ok := work[cb.Address]; ok {
			data = w
		}
		queue = append(queue, outBlock{addr: cb.Address, tag: cb.Tag, data: data})
	}
	// New channel blocks that were not cached before (channel growth).
	for _, mb := range s.index.ChannelBlocks() {
		if _, cached := s.cache.ByAddress(mb.Address); cached {
			continue
		}
		if w, ok := work[mb.Address]; ok {
			queue = append(queue, outBlock{addr: mb.Address, tag: mb.Tag, data: w})
		}
	}
	// Then the fixed configuration sequence.
	for _, tag := range writeTagOrder() {
		cb, ok := s.cache.ByTag(tag)
		if !ok {
			continue
		}
		data := cb.Data
		if w, exists := work[cb.Address]; exists {
			data = w
		}
		queue = append(queue, outBlock{addr: cb.Address, tag: cb.Tag, data: data})
	}

	started := time.Now()
	s.emit(PhaseWrite, 0, "writing configuration")
	for i, ob := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeBlock(s.transport, ob.addr, ob.data, ob.tag, defaultBlockTimeout); err != nil {
			return err
		}
		s.stats.BlocksWritten++
		s.stats.BytesWritten += BlockSize
		s.emit(PhaseWrite, (i+1)*100/len(queue), fmt.Sprintf("wrote %d/%d blocks", i+1, len(queue)))
		if s.cfg.interBlockDelay > 0 && i < len(queue)-1 {
			time.Sleep(s.cfg.interBlockDelay)
		}
	}
	s.stats.WriteTime += time.Since(started)

	// Mirror the device: replace written blocks in cache.
	for addr, data := range work {
		kind := ClassifyTag(data[metadataOffset])
		s.cache.put(&CachedBlock{Address: addr, Tag: data[metadataOffset], Kind: kind, Data: data})
	}
	s.emit(PhaseWrite, 100, "write complete")
	return nil
}
